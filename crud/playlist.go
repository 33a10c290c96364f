package crud

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tunefeed/domain"
	"tunefeed/errs"
)

// MaxPlaylistNameLength is the maximum number of characters of a playlist name.
const MaxPlaylistNameLength = 100

// PlaylistService manages Playlists and the posts saved in them.
// It implements the domain.PlaylistService interface.
type PlaylistService struct {
	playlistValidator
}

// playlistValidator runs validations on incoming Playlist data.
// On success, it passes the data on to playlistGorm.
type playlistValidator struct {
	playlistGorm
}

// playlistGorm runs CRUD operations on the database using incoming Playlist data.
type playlistGorm struct {
	db *gorm.DB
}

// NewPlaylistService returns an instance of PlaylistService.
func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{
		playlistValidator{
			playlistGorm{
				db: db,
			},
		},
	}
}

var _ domain.PlaylistService = &PlaylistService{}

// Create runs validations needed for creating a new playlist.
func (pv *playlistValidator) Create(ctx context.Context, playlist *domain.Playlist) error {
	err := runPlaylistValFns(ctx, playlist,
		pv.userIDValid,
		pv.nameNormalize,
		pv.nameRequired,
		pv.nameMaxLength,
		pv.nameIsAvail)
	if err != nil {
		return err
	}
	return pv.playlistGorm.Create(ctx, playlist)
}

// AddPost saves a post in the named playlist of the user. Saving a post twice is a no-op.
func (pv *playlistValidator) AddPost(ctx context.Context, userID int, name string, postID int) (*domain.Playlist, error) {
	found, err := exists(pv.db.WithContext(ctx), &domain.Post{}, "id = ?", postID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Errorf(errs.ENOTFOUND, "Post not found.")
	}
	return pv.playlistGorm.AddPost(ctx, userID, strings.TrimSpace(name), postID)
}

// RemovePost removes a post from the named playlist of the user, if it is saved there.
func (pv *playlistValidator) RemovePost(ctx context.Context, userID int, name string, postID int) (*domain.Playlist, error) {
	return pv.playlistGorm.RemovePost(ctx, userID, strings.TrimSpace(name), postID)
}

func runPlaylistValFns(ctx context.Context, playlist *domain.Playlist, fns ...playlistValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, playlist); err != nil {
			return err
		}
	}
	return nil
}

type playlistValFn func(ctx context.Context, playlist *domain.Playlist) error

func (pv *playlistValidator) userIDValid(ctx context.Context, playlist *domain.Playlist) error {
	if playlist.UserID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in.")
	}
	return nil
}

func (pv *playlistValidator) nameNormalize(ctx context.Context, playlist *domain.Playlist) error {
	playlist.Name = strings.TrimSpace(playlist.Name)
	return nil
}

func (pv *playlistValidator) nameRequired(ctx context.Context, playlist *domain.Playlist) error {
	if playlist.Name == "" {
		return errs.Errorf(errs.EINVALID, "A playlist name is required.")
	}
	return nil
}

func (pv *playlistValidator) nameMaxLength(ctx context.Context, playlist *domain.Playlist) error {
	if utf8.RuneCountInString(playlist.Name) > MaxPlaylistNameLength {
		return errs.Errorf(errs.EINVALID, "Playlist name max length is %d characters.", MaxPlaylistNameLength)
	}
	return nil
}

// nameIsAvail makes sure that the owner has no other playlist of that name.
func (pv *playlistValidator) nameIsAvail(ctx context.Context, playlist *domain.Playlist) error {
	taken, err := exists(pv.db.WithContext(ctx), &domain.Playlist{},
		"user_id = ? AND name = ?", playlist.UserID, playlist.Name)
	if err != nil {
		return err
	}
	if taken {
		return errs.Errorf(errs.ECONFLICT, "A playlist named %q already exists.", playlist.Name)
	}
	return nil
}

// Create stores a new, empty playlist.
func (pg *playlistGorm) Create(ctx context.Context, playlist *domain.Playlist) error {
	err := pg.db.WithContext(ctx).Omit(clause.Associations).Create(playlist).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "A playlist named %q already exists.", playlist.Name)
	}
	if err != nil {
		return err
	}
	playlist.Items = []domain.PlaylistItem{}
	return nil
}

// ByUser retrieves all playlists of a user with their items, sorted by name.
func (pg *playlistGorm) ByUser(ctx context.Context, userID int) ([]domain.Playlist, error) {
	playlists := []domain.Playlist{}
	err := pg.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("name").
		Find(&playlists).Error
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// byName retrieves a single playlist of a user with its items.
func (pg *playlistGorm) byName(ctx context.Context, userID int, name string) (*domain.Playlist, error) {
	var playlist domain.Playlist
	err := pg.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ? AND name = ?", userID, name).
		First(&playlist).Error
	if err != nil {
		return nil, notFound(err, "Playlist not found.")
	}
	if playlist.Items == nil {
		playlist.Items = []domain.PlaylistItem{}
	}
	return &playlist, nil
}

// AddPost inserts the playlist item unless it already exists.
func (pg *playlistGorm) AddPost(ctx context.Context, userID int, name string, postID int) (*domain.Playlist, error) {
	playlist, err := pg.byName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	item := domain.PlaylistItem{PlaylistID: playlist.ID, PostID: postID}
	err = pg.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return pg.byName(ctx, userID, name)
}

// RemovePost deletes the playlist item, if there is one.
func (pg *playlistGorm) RemovePost(ctx context.Context, userID int, name string, postID int) (*domain.Playlist, error) {
	playlist, err := pg.byName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	err = pg.db.WithContext(ctx).
		Where("playlist_id = ? AND post_id = ?", playlist.ID, postID).
		Delete(&domain.PlaylistItem{}).Error
	if err != nil {
		return nil, err
	}
	return pg.byName(ctx, userID, name)
}
