package crud

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/metrics"
)

// FollowService manages Follows, the edges of the follow graph.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Create runs validations needed for following a user. Following a user that is
// already followed succeeds without changing anything.
func (fv *followValidator) Create(ctx context.Context, follow *domain.Follow) error {
	err := runFollowValFns(ctx, follow,
		fv.followerIDValid,
		fv.followedIsNotFollower,
		fv.followedUserExists)
	if err != nil {
		return err
	}
	return fv.followGorm.Create(ctx, follow)
}

// Delete runs validations needed for unfollowing a user. Unfollowing a user that is
// not followed succeeds without changing anything.
func (fv *followValidator) Delete(ctx context.Context, follow *domain.Follow) error {
	err := runFollowValFns(ctx, follow,
		fv.followerIDValid,
		fv.unfollowedIsNotFollower,
		fv.followedUserExists)
	if err != nil {
		return err
	}
	return fv.followGorm.Delete(ctx, follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(ctx context.Context, follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn func(ctx context.Context, follow *domain.Follow) error

// followerIDValid ensures that the follow has an acting user.
func (fv *followValidator) followerIDValid(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in.")
	}
	return nil
}

// followedIsNotFollower makes sure that a user does not follow itself.
func (fv *followValidator) followedIsNotFollower(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You can't follow yourself.")
	}
	return nil
}

func (fv *followValidator) unfollowedIsNotFollower(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You can't unfollow yourself.")
	}
	return nil
}

// followedUserExists makes sure that the user to be followed actually exists.
func (fv *followValidator) followedUserExists(ctx context.Context, follow *domain.Follow) error {
	found, err := exists(fv.db.WithContext(ctx), &domain.User{}, "id = ?", follow.FollowedID)
	if err != nil {
		return err
	}
	if !found {
		return errs.Errorf(errs.ENOTFOUND, "Target user not found.")
	}
	return nil
}

// Create inserts the follow edge. The unique index on the user pair turns a repeated
// follow into a no-op instead of a duplicate edge.
func (fg *followGorm) Create(ctx context.Context, follow *domain.Follow) error {
	res := fg.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.Relationship("follow")
	}
	return nil
}

// Delete permanently deletes the follow edge between the two users, if there is one.
func (fg *followGorm) Delete(ctx context.Context, follow *domain.Follow) error {
	res := fg.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.Relationship("unfollow")
	}
	return nil
}

// IsFollowing reports whether followerID follows followedID.
func (fg *followGorm) IsFollowing(ctx context.Context, followerID, followedID int) (bool, error) {
	return exists(fg.db.WithContext(ctx), &domain.Follow{},
		"follower_id = ? AND followed_id = ?", followerID, followedID)
}

// FollowedSet reports, in a single query, which of the given users followerID follows.
// Users that are not followed are absent from the returned map.
func (fg *followGorm) FollowedSet(ctx context.Context, followerID int, followedIDs []int) (map[int]bool, error) {
	set := make(map[int]bool)
	if len(followedIDs) == 0 {
		return set, nil
	}
	var found []int
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", followerID, followedIDs).
		Pluck("followed_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// FollowerNames returns the usernames of the users following userID, sorted.
func (fg *followGorm) FollowerNames(ctx context.Context, userID int) ([]string, error) {
	names := []string{}
	err := fg.db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.username").
		Pluck("users.username", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// FollowingNames returns the usernames of the users userID follows, sorted.
func (fg *followGorm) FollowingNames(ctx context.Context, userID int) ([]string, error) {
	names := []string{}
	err := fg.db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.username").
		Pluck("users.username", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// FollowingIDs returns the IDs of the users userID follows.
func (fg *followGorm) FollowingIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RelationsOf returns the followers and following usernames of each of the given users,
// read in a single query. Every requested user has an entry, with sorted, non-nil lists.
func (fg *followGorm) RelationsOf(ctx context.Context, userIDs []int) (map[int]*domain.Relations, error) {
	rels := make(map[int]*domain.Relations, len(userIDs))
	for _, id := range userIDs {
		rels[id] = &domain.Relations{Followers: []string{}, Following: []string{}}
	}
	if len(userIDs) == 0 {
		return rels, nil
	}
	var edges []struct {
		FollowerID   int
		FollowedID   int
		FollowerName string
		FollowedName string
	}
	err := fg.db.WithContext(ctx).
		Table("follows").
		Select("follows.follower_id, follows.followed_id, fu.username AS follower_name, tu.username AS followed_name").
		Joins("JOIN users fu ON fu.id = follows.follower_id").
		Joins("JOIN users tu ON tu.id = follows.followed_id").
		Where("follows.follower_id IN ? OR follows.followed_id IN ?", userIDs, userIDs).
		Scan(&edges).Error
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if rel, ok := rels[e.FollowedID]; ok {
			rel.Followers = append(rel.Followers, e.FollowerName)
		}
		if rel, ok := rels[e.FollowerID]; ok {
			rel.Following = append(rel.Following, e.FollowedName)
		}
	}
	for _, rel := range rels {
		sort.Strings(rel.Followers)
		sort.Strings(rel.Following)
	}
	return rels, nil
}
