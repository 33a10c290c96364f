package domain

import (
	"context"
	"time"
)

const (
	// MaxMediaPerPost is the number of files a single post may carry.
	MaxMediaPerPost = 5
	// MaxContentLength is the maximum number of characters of a post's content.
	MaxContentLength = 5000
)

// Post is a piece of content published by a user. Apart from its likes and comments it
// never changes after creation. LikeCount mirrors the number of Like rows of the post and
// is only ever changed by the database in the same transaction that adds or removes a Like.
type Post struct {
	ID       int       `json:"id"`
	UserID   int       `json:"-" gorm:"notNull;index"`
	User     User      `json:"-"`
	Username string    `json:"username" gorm:"-"`
	Title    string    `json:"title" gorm:"notNull"`
	Content  string    `json:"content" gorm:"notNull"`
	Media    []Media   `json:"media" gorm:"foreignKey:PostID"`
	Comments []Comment `json:"comments" gorm:"foreignKey:PostID"`

	LikeCount    int  `json:"like_count" gorm:"notNull;default:0"`
	CommentCount int  `json:"comment_count" gorm:"-"`
	Liked        bool `json:"liked" gorm:"-"`
	IsFollowing  bool `json:"is_following" gorm:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Media references a blob attached to a post.
type Media struct {
	ID       int    `json:"-"`
	PostID   int    `json:"-" gorm:"notNull;index"`
	BlobID   string `json:"id" gorm:"notNull"`
	MimeType string `json:"type"`
}

// PostService is a set of methods to manipulate and work with the Post model.
type PostService interface {
	ByID(ctx context.Context, id int) (*Post, error)
	Create(ctx context.Context, post *Post) error
}

// Denormalize fills the fields of a loaded post that are derived from its associations.
func (p *Post) Denormalize() {
	if p.User.Username != "" {
		p.Username = p.User.Username
	}
	if p.Media == nil {
		p.Media = []Media{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Denormalize()
	}
	p.CommentCount = len(p.Comments)
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}
}
