package domain

import (
	"context"
	"time"
)

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is the ID of the
// user that is being followed. One row is the whole edge: a user's "following" list and
// the other user's "followers" list are both read from it, so they cannot disagree.
type Follow struct {
	ID         int       `json:"id"`
	FollowerID int       `json:"-" gorm:"notNull;uniqueIndex:idx_follow_pair;index"`
	Follower   User      `json:"-"`
	FollowedID int       `json:"-" gorm:"notNull;uniqueIndex:idx_follow_pair;index"`
	Followed   User      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Relations holds the usernames on both ends of a user's follow edges.
type Relations struct {
	Followers []string
	Following []string
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Create(ctx context.Context, follow *Follow) error
	Delete(ctx context.Context, follow *Follow) error
	IsFollowing(ctx context.Context, followerID, followedID int) (bool, error)
	FollowedSet(ctx context.Context, followerID int, followedIDs []int) (map[int]bool, error)
	FollowerNames(ctx context.Context, userID int) ([]string, error)
	FollowingNames(ctx context.Context, userID int) ([]string, error)
	FollowingIDs(ctx context.Context, userID int) ([]int, error)
	RelationsOf(ctx context.Context, userIDs []int) (map[int]*Relations, error)
}
