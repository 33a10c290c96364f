package domain

import (
	"context"
	"time"
)

// Playlist is a named collection of saved posts. Its name is unique among the
// playlists of its owner.
type Playlist struct {
	ID        int            `json:"id"`
	UserID    int            `json:"-" gorm:"notNull;uniqueIndex:idx_playlist_owner_name"`
	Name      string         `json:"name" gorm:"notNull;uniqueIndex:idx_playlist_owner_name"`
	Items     []PlaylistItem `json:"posts" gorm:"foreignKey:PlaylistID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PlaylistItem is a reference from a playlist to a saved post.
type PlaylistItem struct {
	ID         int       `json:"-"`
	PlaylistID int       `json:"-" gorm:"notNull;uniqueIndex:idx_playlist_item"`
	PostID     int       `json:"post_id" gorm:"notNull;uniqueIndex:idx_playlist_item"`
	CreatedAt  time.Time `json:"added_at"`
}

// PlaylistService is a set of methods to manipulate and work with the Playlist model.
type PlaylistService interface {
	Create(ctx context.Context, playlist *Playlist) error
	ByUser(ctx context.Context, userID int) ([]Playlist, error)
	AddPost(ctx context.Context, userID int, name string, postID int) (*Playlist, error)
	RemovePost(ctx context.Context, userID int, name string, postID int) (*Playlist, error)
}
