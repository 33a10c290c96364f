package domain

import (
	"context"
	"time"
)

// User represents an account. Followers and Following are not stored on the users table,
// they are read from the follows table (see Follow) and only filled in when a profile is
// requested. Password and Remember only ever live in memory: the database stores their
// hashes in PasswordHash and RememberHash.
type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username" gorm:"notNull;uniqueIndex"`
	Email          string     `json:"email" gorm:"notNull;index"`
	Password       string     `json:"password,omitempty" gorm:"-"`
	PasswordHash   string     `json:"-" gorm:"notNull"`
	Remember       string     `json:"-" gorm:"-"`
	RememberHash   string     `json:"-" gorm:"notNull;index"`
	Bio            string     `json:"bio"`
	FavoriteGenres []string   `json:"favorite_genres" gorm:"serializer:json"`
	ProfilePicture string     `json:"profile_picture"`
	Playlists      []Playlist `json:"playlists,omitempty" gorm:"foreignKey:UserID"`

	Followers   []string `json:"followers" gorm:"-"`
	Following   []string `json:"following" gorm:"-"`
	IsFollowing bool     `json:"is_following" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(ctx context.Context, id int) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	ByRemember(ctx context.Context, token string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Search(ctx context.Context, viewerID int, query string) ([]User, error)
	MakeRememberToken() (string, error)
}

// UserUpdate holds the profile fields a user may change. Nil fields are left untouched.
type UserUpdate struct {
	Username       *string   `json:"username"`
	Email          *string   `json:"email"`
	Bio            *string   `json:"bio"`
	FavoriteGenres *[]string `json:"favorite_genres"`
	ProfilePicture *string   `json:"profile_picture"`
}

// Apply copies every non-nil field of the update onto the user.
func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.FavoriteGenres != nil {
		user.FavoriteGenres = *u.FavoriteGenres
	}
	if u.ProfilePicture != nil {
		user.ProfilePicture = *u.ProfilePicture
	}
}
