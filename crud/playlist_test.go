package crud

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestPlaylists() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	post := s.createPost(bob, "T", "C")

	playlist := &domain.Playlist{UserID: alice.ID, Name: " Late Night "}
	require.NoError(s.T(), s.services.Playlist.Create(s.ctx, playlist))
	assert.Equal(s.T(), "Late Night", playlist.Name)
	assert.Empty(s.T(), playlist.Items)

	// Saving a post twice keeps one item.
	saved, err := s.services.Playlist.AddPost(s.ctx, alice.ID, "Late Night", post.ID)
	require.NoError(s.T(), err)
	saved, err = s.services.Playlist.AddPost(s.ctx, alice.ID, "Late Night", post.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), saved.Items, 1)
	assert.Equal(s.T(), post.ID, saved.Items[0].PostID)

	// Bob may use the same playlist name.
	require.NoError(s.T(), s.services.Playlist.Create(s.ctx, &domain.Playlist{UserID: bob.ID, Name: "Late Night"}))
	require.NoError(s.T(), s.services.Playlist.Create(s.ctx, &domain.Playlist{UserID: alice.ID, Name: "Commute"}))

	playlists, err := s.services.Playlist.ByUser(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), playlists, 2)
	assert.Equal(s.T(), "Commute", playlists[0].Name)
	assert.Equal(s.T(), "Late Night", playlists[1].Name)
	assert.Len(s.T(), playlists[1].Items, 1)

	// The playlists are part of the owner's profile.
	user, err := s.services.User.ByID(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), user.Playlists, 2)

	removed, err := s.services.Playlist.RemovePost(s.ctx, alice.ID, "Late Night", post.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), removed.Items)
	_, err = s.services.Playlist.RemovePost(s.ctx, alice.ID, "Late Night", post.ID)
	require.NoError(s.T(), err)
}

func (s *CrudTestSuite) TestPlaylistValidation() {
	alice := s.createUser("alice")
	post := s.createPost(alice, "T", "C")
	require.NoError(s.T(), s.services.Playlist.Create(s.ctx, &domain.Playlist{UserID: alice.ID, Name: "Mix"}))

	err := s.services.Playlist.Create(s.ctx, &domain.Playlist{UserID: alice.ID, Name: "Mix"})
	s.requireCode(err, errs.ECONFLICT)

	err = s.services.Playlist.Create(s.ctx, &domain.Playlist{UserID: alice.ID, Name: "   "})
	s.requireCode(err, errs.EINVALID)

	err = s.services.Playlist.Create(s.ctx, &domain.Playlist{Name: "Mine"})
	s.requireCode(err, errs.EUNAUTHORIZED)

	_, err = s.services.Playlist.AddPost(s.ctx, alice.ID, "Nope", post.ID)
	s.requireCode(err, errs.ENOTFOUND)

	_, err = s.services.Playlist.AddPost(s.ctx, alice.ID, "Mix", post.ID+1)
	s.requireCode(err, errs.ENOTFOUND)
}
