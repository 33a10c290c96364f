package domain

import (
	"context"
	"time"
)

// Comment is a text reply attached to a post. Comments are listed in the order they were
// added and are never edited or deleted.
type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id" gorm:"notNull;index"`
	UserID    int       `json:"-" gorm:"notNull"`
	User      User      `json:"-"`
	Username  string    `json:"username" gorm:"-"`
	Text      string    `json:"comment" gorm:"notNull"`
	CreatedAt time.Time `json:"timestamp"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	Create(ctx context.Context, comment *Comment) error
	ByPostID(ctx context.Context, postID int) ([]Comment, error)
}

// Denormalize copies the author's username onto the comment.
func (c *Comment) Denormalize() {
	if c.User.Username != "" {
		c.Username = c.User.Username
	}
}
