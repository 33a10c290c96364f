package crud

import (
	"errors"

	"gorm.io/gorm"

	"tunefeed/storage"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// The crud services all share the database connection provided by Services.
// Services that depend on other services (the feed and user search need the
// follow and like lookups) must be configured after their dependencies.
type Services struct {
	db       *gorm.DB
	User     *UserService
	Post     *PostService
	Comment  *CommentService
	Follow   *FollowService
	Like     *LikeService
	Feed     *FeedService
	Blob     *BlobService
	Playlist *PlaylistService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db)
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db)
		return nil
	}
}

// WithUser wraps the constructor of UserService, NewUserService. Requires WithFollow.
func WithUser(pepper, hmacKey string) ServicesConfig {
	return func(s *Services) error {
		if s.Follow == nil {
			return errors.New("crud: WithUser requires WithFollow to be configured first")
		}
		s.User = NewUserService(s.db, pepper, hmacKey, s.Follow)
		return nil
	}
}

// WithPost wraps the constructor of PostService, NewPostService.
func WithPost() ServicesConfig {
	return func(s *Services) error {
		s.Post = NewPostService(s.db)
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment() ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db)
		return nil
	}
}

// WithFeed wraps the constructor of FeedService, NewFeedService. Requires WithFollow and WithLike.
func WithFeed() ServicesConfig {
	return func(s *Services) error {
		if s.Follow == nil || s.Like == nil {
			return errors.New("crud: WithFeed requires WithFollow and WithLike to be configured first")
		}
		s.Feed = NewFeedService(s.db, s.Follow, s.Like)
		return nil
	}
}

// WithBlob wraps the constructor of BlobService, NewBlobService.
func WithBlob(backend storage.Backend) ServicesConfig {
	return func(s *Services) error {
		if backend == nil {
			return errors.New("crud: WithBlob requires a storage backend")
		}
		s.Blob = NewBlobService(s.db, backend)
		return nil
	}
}

// WithPlaylist wraps the constructor of PlaylistService, NewPlaylistService.
func WithPlaylist() ServicesConfig {
	return func(s *Services) error {
		s.Playlist = NewPlaylistService(s.db)
		return nil
	}
}
