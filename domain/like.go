package domain

import (
	"context"
	"time"
)

// Like represents a many-to-many relationship between a User and a Post.
// A Like is created when a user decides to like a post and destroyed when
// the user likes the same post again. A user can like a post at most once.
type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id" gorm:"notNull;uniqueIndex:idx_like_pair"`
	PostID    int       `json:"post_id" gorm:"notNull;uniqueIndex:idx_like_pair;index"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	Toggle(ctx context.Context, like *Like) (*LikeResult, error)
	LikedSet(ctx context.Context, userID int, postIDs []int) (map[int]bool, error)
}

// LikeResult is the state of a post's likes after a toggle.
type LikeResult struct {
	PostID    int  `json:"post_id"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
