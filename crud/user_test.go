package crud

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestCreateUser() {
	user := &domain.User{
		Username:       " alice ",
		Email:          " Alice@Example.COM ",
		Password:       testPassword,
		FavoriteGenres: []string{"jazz", " Jazz ", "", "techno"},
	}
	require.NoError(s.T(), s.services.User.Create(s.ctx, user))

	assert.NotZero(s.T(), user.ID)
	assert.Equal(s.T(), "alice", user.Username)
	assert.Equal(s.T(), "alice@example.com", user.Email)
	assert.Empty(s.T(), user.Password)
	assert.NotEqual(s.T(), testPassword, user.PasswordHash)
	assert.NotEmpty(s.T(), user.Remember)
	assert.NotEmpty(s.T(), user.RememberHash)
	assert.Equal(s.T(), []string{"jazz", "techno"}, user.FavoriteGenres)

	found, err := s.services.User.ByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"jazz", "techno"}, found.FavoriteGenres)
}

func (s *CrudTestSuite) TestCreateUserValidation() {
	s.createUser("alice")

	tests := []struct {
		name string
		user domain.User
		code string
	}{
		{"duplicate username", domain.User{Username: "alice", Email: "other@example.com", Password: testPassword}, errs.ECONFLICT},
		{"no username", domain.User{Email: "x@example.com", Password: testPassword}, errs.EINVALID},
		{"bad username", domain.User{Username: "a b", Email: "x@example.com", Password: testPassword}, errs.EINVALID},
		{"no email", domain.User{Username: "xavier", Password: testPassword}, errs.EINVALID},
		{"bad email", domain.User{Username: "xavier", Email: "not-an-email", Password: testPassword}, errs.EINVALID},
		{"no password", domain.User{Username: "xavier", Email: "x@example.com"}, errs.EINVALID},
		{"short password", domain.User{Username: "xavier", Email: "x@example.com", Password: "short"}, errs.EINVALID},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			user := tt.user
			s.requireCode(s.services.User.Create(s.ctx, &user), tt.code)
		})
	}
}

func (s *CrudTestSuite) TestAuthenticate() {
	alice := s.createUser("alice")

	user, err := s.services.User.Authenticate(s.ctx, "alice", testPassword)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice.ID, user.ID)

	_, err = s.services.User.Authenticate(s.ctx, "alice", "wrong-password")
	s.requireCode(err, errs.EINVALID)

	_, err = s.services.User.Authenticate(s.ctx, "nobody", testPassword)
	s.requireCode(err, errs.EINVALID)
	assert.Equal(s.T(), "Invalid username or password.", errs.ErrorMessage(err))
}

func (s *CrudTestSuite) TestRememberToken() {
	alice := s.createUser("alice")

	user, err := s.services.User.ByRemember(s.ctx, alice.Remember)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice.ID, user.ID)

	// Rotating the token invalidates the old one.
	old := alice.Remember
	token, err := s.services.User.MakeRememberToken()
	require.NoError(s.T(), err)
	user.Remember = token
	require.NoError(s.T(), s.services.User.Update(s.ctx, user))

	_, err = s.services.User.ByRemember(s.ctx, old)
	s.requireCode(err, errs.ENOTFOUND)
	found, err := s.services.User.ByRemember(s.ctx, token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice.ID, found.ID)
}

func (s *CrudTestSuite) TestUpdateUser() {
	alice := s.createUser("alice")
	s.createUser("bob")
	picture := s.createBlob(alice, "me.png", pngBytes)

	user, err := s.services.User.ByID(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	bio := "  I make beats.  "
	genres := []string{"house", "House", "dub"}
	domain.UserUpdate{Bio: &bio, FavoriteGenres: &genres, ProfilePicture: &picture.ID}.Apply(user)
	require.NoError(s.T(), s.services.User.Update(s.ctx, user))

	found, err := s.services.User.ByID(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "I make beats.", found.Bio)
	assert.Equal(s.T(), []string{"house", "dub"}, found.FavoriteGenres)
	assert.Equal(s.T(), picture.ID, found.ProfilePicture)

	// The password still works after an update without a new password.
	_, err = s.services.User.Authenticate(s.ctx, "alice", testPassword)
	require.NoError(s.T(), err)

	taken := "bob"
	domain.UserUpdate{Username: &taken}.Apply(found)
	s.requireCode(s.services.User.Update(s.ctx, found), errs.ECONFLICT)

	found, err = s.services.User.ByID(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	missing := "no-such-blob"
	domain.UserUpdate{ProfilePicture: &missing}.Apply(found)
	s.requireCode(s.services.User.Update(s.ctx, found), errs.ENOTFOUND)
}

func (s *CrudTestSuite) TestSearchUsers() {
	alice, s1, s2 := s.createUser("alice"), s.createUser("sam_beats"), s.createUser("samantha")
	s.createUser("zed")
	s.follow(alice, s2)

	users, err := s.services.User.Search(s.ctx, alice.ID, "SAM")
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 2)
	assert.Equal(s.T(), s1.ID, users[0].ID)
	assert.False(s.T(), users[0].IsFollowing)
	assert.Equal(s.T(), s2.ID, users[1].ID)
	assert.True(s.T(), users[1].IsFollowing)
	assert.Equal(s.T(), []string{"alice"}, users[1].Followers)
	assert.Equal(s.T(), []string{}, users[1].Following)
	assert.Equal(s.T(), []string{}, users[0].Followers)

	// Matches on email as well.
	users, err = s.services.User.Search(s.ctx, alice.ID, "zed@example")
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 1)

	// The underscore is not a wildcard.
	users, err = s.services.User.Search(s.ctx, alice.ID, "m_b")
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 1)
	assert.Equal(s.T(), "sam_beats", users[0].Username)
	_, err = s.services.User.Search(s.ctx, alice.ID, "s_m")
	s.requireCode(err, errs.ENOTFOUND)

	_, err = s.services.User.Search(s.ctx, alice.ID, "")
	s.requireCode(err, errs.EINVALID)

	_, err = s.services.User.Search(s.ctx, alice.ID, "nobody-here")
	s.requireCode(err, errs.ENOTFOUND)
}
