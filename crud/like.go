package crud

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/metrics"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Toggle runs validations needed for liking or unliking a post.
func (lv *likeValidator) Toggle(ctx context.Context, like *domain.Like) (*domain.LikeResult, error) {
	err := runLikeValFns(ctx, like,
		lv.userIDValid,
		lv.likedPostExists)
	if err != nil {
		return nil, err
	}
	return lv.likeGorm.Toggle(ctx, like)
}

// runLikeValFns runs any number of functions of type likeValFn on the passed in Like object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runLikeValFns(ctx context.Context, like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, like); err != nil {
			return err
		}
	}
	return nil
}

// A likeValFn is any function that takes in a pointer to a domain.Like object and returns an error.
type likeValFn func(ctx context.Context, like *domain.Like) error

// likedPostExists makes sure that the post to be liked actually exists.
func (lv *likeValidator) likedPostExists(ctx context.Context, like *domain.Like) error {
	found, err := exists(lv.db.WithContext(ctx), &domain.Post{}, "id = ?", like.PostID)
	if err != nil {
		return err
	}
	if !found {
		return errs.Errorf(errs.ENOTFOUND, "Post not found.")
	}
	return nil
}

// userIDValid ensures that the like has an acting user.
func (lv *likeValidator) userIDValid(ctx context.Context, like *domain.Like) error {
	if like.UserID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in.")
	}
	return nil
}

// Toggle removes the user's like of the post if there is one, and adds it otherwise.
// The like row and the post's like_count change in one transaction, and the count is
// incremented by the database rather than written back, so concurrent toggles on the
// same post do not lose updates.
func (lg *likeGorm) Toggle(ctx context.Context, like *domain.Like) (*domain.LikeResult, error) {
	result := &domain.LikeResult{PostID: like.PostID}
	err := lg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", like.UserID, like.PostID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		delta := 0
		if res.RowsAffected > 0 {
			delta = -1
		} else {
			like.ID = 0
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
			if res.Error != nil {
				return res.Error
			}
			// Zero rows means a concurrent request of the same user inserted the like first.
			if res.RowsAffected > 0 {
				delta = 1
			}
			result.Liked = true
		}
		if delta != 0 {
			err := tx.Model(&domain.Post{}).
				Where("id = ?", like.PostID).
				UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
			if err != nil {
				return err
			}
		}
		var post domain.Post
		if err := tx.Select("id", "like_count").First(&post, like.PostID).Error; err != nil {
			return notFound(err, "Post not found.")
		}
		result.LikeCount = post.LikeCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Liked {
		metrics.Engagement("like")
	} else {
		metrics.Engagement("unlike")
	}
	return result, nil
}

// LikedSet reports, in a single query, which of the given posts userID likes.
func (lg *likeGorm) LikedSet(ctx context.Context, userID int, postIDs []int) (map[int]bool, error) {
	set := make(map[int]bool)
	if len(postIDs) == 0 || userID <= 0 {
		return set, nil
	}
	var found []int
	err := lg.db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}
