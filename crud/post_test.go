package crud

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestCreatePost() {
	bob := s.createUser("bob")
	blob := s.createBlob(bob, "cover.png", pngBytes)

	post := &domain.Post{
		UserID:    bob.ID,
		Title:     "  First Track ",
		Content:   "listen to this",
		LikeCount: 99,
		Media:     []domain.Media{{BlobID: blob.ID, MimeType: blob.ContentType}},
	}
	require.NoError(s.T(), s.services.Post.Create(s.ctx, post))

	assert.NotZero(s.T(), post.ID)
	assert.Equal(s.T(), "First Track", post.Title)
	assert.Equal(s.T(), "bob", post.Username)
	assert.Equal(s.T(), 0, post.LikeCount)
	assert.Empty(s.T(), post.Comments)
	require.Len(s.T(), post.Media, 1)
	assert.Equal(s.T(), blob.ID, post.Media[0].BlobID)
	assert.Equal(s.T(), "image/png", post.Media[0].MimeType)
}

func (s *CrudTestSuite) TestCreatePostValidation() {
	bob := s.createUser("bob")

	tests := []struct {
		name string
		post domain.Post
		code string
	}{
		{"no author", domain.Post{Title: "T", Content: "C"}, errs.EUNAUTHORIZED},
		{"no title", domain.Post{UserID: bob.ID, Title: "  ", Content: "C"}, errs.EINVALID},
		{"no content", domain.Post{UserID: bob.ID, Title: "T", Content: ""}, errs.EINVALID},
		{"long title", domain.Post{UserID: bob.ID, Title: strings.Repeat("t", MaxTitleLength+1), Content: "C"}, errs.EINVALID},
		{"long content", domain.Post{UserID: bob.ID, Title: "T", Content: strings.Repeat("c", domain.MaxContentLength+1)}, errs.EINVALID},
		{"too many media", domain.Post{UserID: bob.ID, Title: "T", Content: "C", Media: make([]domain.Media, domain.MaxMediaPerPost+1)}, errs.EINVALID},
		{"unknown media", domain.Post{UserID: bob.ID, Title: "T", Content: "C", Media: []domain.Media{{BlobID: "missing"}}}, errs.ENOTFOUND},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			post := tt.post
			s.requireCode(s.services.Post.Create(s.ctx, &post), tt.code)
		})
	}

	var count int64
	require.NoError(s.T(), s.db.Model(&domain.Post{}).Count(&count).Error)
	assert.Zero(s.T(), count)
}

func (s *CrudTestSuite) TestContentLengthCountsCharacters() {
	bob := s.createUser("bob")

	// Multi-byte characters count once each.
	post := &domain.Post{UserID: bob.ID, Title: "T", Content: strings.Repeat("é", domain.MaxContentLength)}
	require.NoError(s.T(), s.services.Post.Create(s.ctx, post))
}

func (s *CrudTestSuite) TestPostByIDNotFound() {
	_, err := s.services.Post.ByID(s.ctx, 12345)
	s.requireCode(err, errs.ENOTFOUND)
}
