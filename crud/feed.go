package crud

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"tunefeed/domain"
	"tunefeed/errs"
)

// FeedService assembles pages of posts for a viewer. Every post it returns carries
// its like and comment counts, whether the viewer likes it and whether the viewer
// follows its author. It implements the domain.FeedService interface.
type FeedService struct {
	feedValidator
	follows domain.FollowService
	likes   domain.LikeService
}

// feedValidator normalizes pages and search queries.
// On success, it passes them on to feedGorm.
type feedValidator struct {
	feedGorm
}

// feedGorm runs the feed queries against the database.
type feedGorm struct {
	db *gorm.DB
}

// NewFeedService returns an instance of FeedService.
func NewFeedService(db *gorm.DB, follows domain.FollowService, likes domain.LikeService) *FeedService {
	return &FeedService{
		feedValidator: feedValidator{
			feedGorm{
				db: db,
			},
		},
		follows: follows,
		likes:   likes,
	}
}

var _ domain.FeedService = &FeedService{}

// List returns a page of all posts, newest first.
func (fs *FeedService) List(ctx context.Context, viewerID int, page domain.Page) ([]domain.Post, error) {
	posts, err := fs.feedValidator.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return posts, fs.Annotate(ctx, viewerID, posts)
}

// Followed returns a page of the posts of the users the viewer follows, newest first.
// It returns ENOTFOUND if the viewer does not follow anyone.
func (fs *FeedService) Followed(ctx context.Context, viewerID int, page domain.Page) ([]domain.Post, error) {
	authorIDs, err := fs.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No followed users or feed content available.")
	}
	posts, err := fs.feedValidator.ByAuthors(ctx, authorIDs, page)
	if err != nil {
		return nil, err
	}
	return posts, fs.Annotate(ctx, viewerID, posts)
}

// Search returns the posts whose title or content contains the query, case-insensitively.
func (fs *FeedService) Search(ctx context.Context, viewerID int, query string) ([]domain.Post, error) {
	posts, err := fs.feedValidator.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return posts, fs.Annotate(ctx, viewerID, posts)
}

// Annotate fills the derived fields of the given posts for the viewer. The follow and like
// state of the whole page are read with one query each, keyed by the distinct authors and
// posts of the page.
func (fs *FeedService) Annotate(ctx context.Context, viewerID int, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	authorIDs := make([]int, 0, len(posts))
	postIDs := make([]int, 0, len(posts))
	seen := make(map[int]bool)
	for i := range posts {
		posts[i].Denormalize()
		postIDs = append(postIDs, posts[i].ID)
		if !seen[posts[i].UserID] {
			seen[posts[i].UserID] = true
			authorIDs = append(authorIDs, posts[i].UserID)
		}
	}
	followed, err := fs.follows.FollowedSet(ctx, viewerID, authorIDs)
	if err != nil {
		return err
	}
	liked, err := fs.likes.LikedSet(ctx, viewerID, postIDs)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].IsFollowing = followed[posts[i].UserID]
		posts[i].Liked = liked[posts[i].ID]
	}
	return nil
}

// List normalizes the page before passing it on to feedGorm.List.
func (fv *feedValidator) List(ctx context.Context, page domain.Page) ([]domain.Post, error) {
	return fv.feedGorm.List(ctx, domain.NewPage(page.Number, page.Size))
}

// ByAuthors normalizes the page before passing it on to feedGorm.ByAuthors.
func (fv *feedValidator) ByAuthors(ctx context.Context, authorIDs []int, page domain.Page) ([]domain.Post, error) {
	return fv.feedGorm.ByAuthors(ctx, authorIDs, domain.NewPage(page.Number, page.Size))
}

// Search rejects an empty query and reports a search without results as ENOTFOUND.
func (fv *feedValidator) Search(ctx context.Context, query string) ([]domain.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Errorf(errs.EINVALID, `Query parameter "q" is required.`)
	}
	posts, err := fv.feedGorm.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No content found matching your query.")
	}
	return posts, nil
}

// newest orders posts by creation time, newest first. Posts created at the same instant
// are ordered by ID, so that pages never overlap.
func newest(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

// List retrieves one page of all posts.
func (fg *feedGorm) List(ctx context.Context, page domain.Page) ([]domain.Post, error) {
	posts := []domain.Post{}
	err := withDetails(fg.db.WithContext(ctx)).
		Scopes(newest).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ByAuthors retrieves one page of the posts written by any of the given users.
func (fg *feedGorm) ByAuthors(ctx context.Context, authorIDs []int, page domain.Page) ([]domain.Post, error) {
	posts := []domain.Post{}
	err := withDetails(fg.db.WithContext(ctx)).
		Where("posts.user_id IN ?", authorIDs).
		Scopes(newest).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Search retrieves the newest posts whose title or content contains the query.
func (fg *feedGorm) Search(ctx context.Context, query string) ([]domain.Post, error) {
	pattern := likePattern(query)
	posts := []domain.Post{}
	err := withDetails(fg.db.WithContext(ctx)).
		Where("LOWER(posts.title) LIKE ?"+likeEscape+" OR LOWER(posts.content) LIKE ?"+likeEscape, pattern, pattern).
		Scopes(newest).
		Limit(searchLimit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}
