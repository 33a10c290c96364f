package crud

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestCreateComment() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	post := s.createPost(bob, "T", "C")

	first := &domain.Comment{PostID: post.ID, UserID: alice.ID, Text: "  first!  "}
	require.NoError(s.T(), s.services.Comment.Create(s.ctx, first))
	assert.Equal(s.T(), "first!", first.Text)
	assert.Equal(s.T(), "alice", first.Username)
	assert.False(s.T(), first.CreatedAt.IsZero())

	second := &domain.Comment{PostID: post.ID, UserID: bob.ID, Text: "thanks"}
	require.NoError(s.T(), s.services.Comment.Create(s.ctx, second))

	comments, err := s.services.Comment.ByPostID(s.ctx, post.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), comments, 2)
	assert.Equal(s.T(), "first!", comments[0].Text)
	assert.Equal(s.T(), "bob", comments[1].Username)

	detail, err := s.services.Post.ByID(s.ctx, post.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, detail.CommentCount)
}

func (s *CrudTestSuite) TestCreateCommentValidation() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	post := s.createPost(bob, "T", "C")

	err := s.services.Comment.Create(s.ctx, &domain.Comment{PostID: post.ID, UserID: alice.ID, Text: " \n\t "})
	s.requireCode(err, errs.EINVALID)

	err = s.services.Comment.Create(s.ctx, &domain.Comment{PostID: post.ID, UserID: alice.ID,
		Text: strings.Repeat("a", MaxCommentLength+1)})
	s.requireCode(err, errs.EINVALID)

	err = s.services.Comment.Create(s.ctx, &domain.Comment{PostID: post.ID + 1, UserID: alice.ID, Text: "hello"})
	s.requireCode(err, errs.ENOTFOUND)

	comments, err := s.services.Comment.ByPostID(s.ctx, post.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), comments)

	_, err = s.services.Comment.ByPostID(s.ctx, post.ID+1)
	s.requireCode(err, errs.ENOTFOUND)
}
