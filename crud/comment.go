package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/metrics"
)

// MaxCommentLength is the maximum number of characters of a comment.
const MaxCommentLength = 1000

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db: db,
			},
		},
	}
}

var _ domain.CommentService = &CommentService{}

// Create runs validations needed for adding a comment to a post. A failed validation
// leaves the post untouched.
func (cv *commentValidator) Create(ctx context.Context, comment *domain.Comment) error {
	err := runCommentValFns(ctx, comment,
		cv.userIDValid,
		cv.textNormalize,
		cv.textRequired,
		cv.textMaxLength,
		cv.commentedPostExists)
	if err != nil {
		return err
	}
	return cv.commentGorm.Create(ctx, comment)
}

// ByPostID makes sure that the post exists before listing its comments.
func (cv *commentValidator) ByPostID(ctx context.Context, postID int) ([]domain.Comment, error) {
	if err := cv.commentedPostExists(ctx, &domain.Comment{PostID: postID}); err != nil {
		return nil, err
	}
	return cv.commentGorm.ByPostID(ctx, postID)
}

func runCommentValFns(ctx context.Context, comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, comment); err != nil {
			return err
		}
	}
	return nil
}

type commentValFn func(ctx context.Context, comment *domain.Comment) error

func (cv *commentValidator) userIDValid(ctx context.Context, comment *domain.Comment) error {
	if comment.UserID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in.")
	}
	return nil
}

func (cv *commentValidator) textNormalize(ctx context.Context, comment *domain.Comment) error {
	comment.Text = strings.TrimSpace(comment.Text)
	return nil
}

func (cv *commentValidator) textRequired(ctx context.Context, comment *domain.Comment) error {
	if comment.Text == "" {
		return errs.Errorf(errs.EINVALID, "Comment cannot be empty.")
	}
	return nil
}

func (cv *commentValidator) textMaxLength(ctx context.Context, comment *domain.Comment) error {
	if utf8.RuneCountInString(comment.Text) > MaxCommentLength {
		return errs.Errorf(errs.EINVALID, "Comment max length is %d characters.", MaxCommentLength)
	}
	return nil
}

func (cv *commentValidator) commentedPostExists(ctx context.Context, comment *domain.Comment) error {
	found, err := exists(cv.db.WithContext(ctx), &domain.Post{}, "id = ?", comment.PostID)
	if err != nil {
		return err
	}
	if !found {
		return errs.Errorf(errs.ENOTFOUND, "Post not found.")
	}
	return nil
}

// Create appends the comment to its post. A comment is its own row, so appending is a
// single insert and concurrent comments on one post cannot overwrite each other.
// On success the author is loaded, so that the comment carries its username.
func (cg *commentGorm) Create(ctx context.Context, comment *domain.Comment) error {
	db := cg.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return err
	}
	if err := db.Preload("User").First(comment, comment.ID).Error; err != nil {
		return err
	}
	comment.Denormalize()
	metrics.Engagement("comment")
	return nil
}

// ByPostID retrieves the comments of a post in the order they were added.
func (cg *commentGorm) ByPostID(ctx context.Context, postID int) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	err := cg.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Denormalize()
	}
	return comments, nil
}
