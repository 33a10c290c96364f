package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/metrics"
)

// MaxTitleLength is the maximum number of characters of a post's title.
const MaxTitleLength = 200

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db: db,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(ctx context.Context, post *domain.Post) error {
	err := runPostValFns(ctx, post,
		pv.userIDValid,
		pv.titleRequired,
		pv.titleMaxLength,
		pv.contentRequired,
		pv.contentMaxLength,
		pv.mediaMaxCount,
		pv.mediaBlobsExist)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(ctx, post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(ctx context.Context, post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn = func(ctx context.Context, post *domain.Post) error

// userIDValid ensures that the post has an author.
func (pv *postValidator) userIDValid(ctx context.Context, post *domain.Post) error {
	if post.UserID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in.")
	}
	return nil
}

// titleRequired trims the title and makes sure that it is not empty.
func (pv *postValidator) titleRequired(ctx context.Context, post *domain.Post) error {
	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return errs.Errorf(errs.EINVALID, "Title and content are required.")
	}
	return nil
}

// titleMaxLength makes sure that the title does not exceed MaxTitleLength characters.
func (pv *postValidator) titleMaxLength(ctx context.Context, post *domain.Post) error {
	if utf8.RuneCountInString(post.Title) > MaxTitleLength {
		return errs.Errorf(errs.EINVALID, "Post title max length is %d characters.", MaxTitleLength)
	}
	return nil
}

// contentRequired makes sure that the post's content is not only whitespace.
func (pv *postValidator) contentRequired(ctx context.Context, post *domain.Post) error {
	if strings.TrimSpace(post.Content) == "" {
		return errs.Errorf(errs.EINVALID, "Title and content are required.")
	}
	return nil
}

// contentMaxLength makes sure that the post's content does not exceed the maximum content length.
func (pv *postValidator) contentMaxLength(ctx context.Context, post *domain.Post) error {
	if utf8.RuneCountInString(post.Content) > domain.MaxContentLength {
		return errs.Errorf(errs.EINVALID, "Post content max length is %d characters.", domain.MaxContentLength)
	}
	return nil
}

// mediaMaxCount makes sure that a post carries at most domain.MaxMediaPerPost files.
func (pv *postValidator) mediaMaxCount(ctx context.Context, post *domain.Post) error {
	if len(post.Media) > domain.MaxMediaPerPost {
		return errs.Errorf(errs.EINVALID, "Too many media files, not more than %d allowed.", domain.MaxMediaPerPost)
	}
	return nil
}

// mediaBlobsExist makes sure that every media reference points to a stored blob.
func (pv *postValidator) mediaBlobsExist(ctx context.Context, post *domain.Post) error {
	if len(post.Media) == 0 {
		return nil
	}
	ids := make([]string, 0, len(post.Media))
	seen := make(map[string]bool)
	for _, m := range post.Media {
		if !seen[m.BlobID] {
			seen[m.BlobID] = true
			ids = append(ids, m.BlobID)
		}
	}
	var count int64
	err := pv.db.WithContext(ctx).Model(&domain.Blob{}).Where("id IN ?", ids).Count(&count).Error
	if err != nil {
		return err
	}
	if int(count) != len(ids) {
		return errs.Errorf(errs.ENOTFOUND, "Media file not found.")
	}
	return nil
}

// withDetails preloads everything a post is rendered with: its author, its media
// and its comments (oldest first) along with their authors.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Comments.User")
}

// ByID retrieves a single Post by ID, along with its author, media and comments.
// If the record doesn't exist, it returns errs.ENOTFOUND.
func (pg *postGorm) ByID(ctx context.Context, id int) (*domain.Post, error) {
	var post domain.Post
	err := withDetails(pg.db.WithContext(ctx)).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "Post not found.")
	}
	post.Denormalize()
	return &post, nil
}

// Create stores the data from the Post object in a new database record, along with its
// media references, and reloads it with its author.
func (pg *postGorm) Create(ctx context.Context, post *domain.Post) error {
	post.LikeCount = 0
	if err := pg.db.WithContext(ctx).Omit("User", "Comments").Create(post).Error; err != nil {
		return err
	}
	created, err := pg.ByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *created
	metrics.Engagement("post")
	return nil
}
