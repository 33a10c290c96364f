package crud

import (
	"fmt"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestListPostsPagination() {
	bob := s.createUser("bob")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		s.createPostAt(bob, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 1, Size: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), seqTitles(24, 15), titles(first))

	second, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 2, Size: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), seqTitles(14, 5), titles(second))

	last, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 3, Size: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), seqTitles(4, 0), titles(last))

	beyond, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 4, Size: 10})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), beyond)
}

func (s *CrudTestSuite) TestListPostsInvalidPageFallsBack() {
	bob := s.createUser("bob")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		s.createPostAt(bob, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Second))
	}

	posts, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 0, Size: -3})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), seqTitles(11, 2), titles(posts))
}

func (s *CrudTestSuite) TestListPostsSameInstantDoesNotOverlap() {
	bob := s.createUser("bob")
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.createPostAt(bob, fmt.Sprintf("post %02d", i), at)
	}

	first, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 1, Size: 2})
	require.NoError(s.T(), err)
	second, err := s.services.Feed.List(s.ctx, bob.ID, domain.Page{Number: 2, Size: 2})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), seqTitles(3, 0), append(titles(first), titles(second)...))
}

// Alice follows Bob, Bob posts, Alice sees the post as followed, likes it and comments on it.
func (s *CrudTestSuite) TestFeedScenario() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.follow(alice, bob)
	post := s.createPost(bob, "T", "C")

	posts, err := s.services.Feed.List(s.ctx, alice.ID, domain.NewPage(1, 10))
	require.NoError(s.T(), err)
	require.Len(s.T(), posts, 1)
	assert.Equal(s.T(), post.ID, posts[0].ID)
	assert.Equal(s.T(), "bob", posts[0].Username)
	assert.True(s.T(), posts[0].IsFollowing)
	assert.False(s.T(), posts[0].Liked)
	assert.Equal(s.T(), 0, posts[0].LikeCount)
	assert.Equal(s.T(), 0, posts[0].CommentCount)

	result, err := s.services.Like.Toggle(s.ctx, &domain.Like{UserID: alice.ID, PostID: post.ID})
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Liked)
	assert.Equal(s.T(), posts[0].LikeCount+1, result.LikeCount)

	comment := &domain.Comment{PostID: post.ID, UserID: alice.ID, Text: "nice"}
	require.NoError(s.T(), s.services.Comment.Create(s.ctx, comment))

	detail, err := s.services.Post.ByID(s.ctx, post.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), detail.Comments, 1)
	assert.Equal(s.T(), "alice", detail.Comments[0].Username)
	assert.Equal(s.T(), "nice", detail.Comments[0].Text)

	posts, err = s.services.Feed.List(s.ctx, alice.ID, domain.NewPage(1, 10))
	require.NoError(s.T(), err)
	require.Len(s.T(), posts, 1)
	assert.True(s.T(), posts[0].Liked)
	assert.Equal(s.T(), 1, posts[0].LikeCount)
	assert.Equal(s.T(), 1, posts[0].CommentCount)

	// Bob does not follow himself and has not liked his own post.
	posts, err = s.services.Feed.List(s.ctx, bob.ID, domain.NewPage(1, 10))
	require.NoError(s.T(), err)
	assert.False(s.T(), posts[0].IsFollowing)
	assert.False(s.T(), posts[0].Liked)
}

func (s *CrudTestSuite) TestFollowedFeed() {
	alice, bob, carol := s.createUser("alice"), s.createUser("bob"), s.createUser("carol")
	s.createPost(bob, "from bob", "C")
	s.createPost(carol, "from carol", "C")

	_, err := s.services.Feed.Followed(s.ctx, alice.ID, domain.NewPage(1, 10))
	s.requireCode(err, errs.ENOTFOUND)

	s.follow(alice, bob)
	posts, err := s.services.Feed.Followed(s.ctx, alice.ID, domain.NewPage(1, 10))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"from bob"}, titles(posts))
	assert.True(s.T(), posts[0].IsFollowing)
}

func (s *CrudTestSuite) TestSearchPosts() {
	bob := s.createUser("bob")
	s.createPost(bob, "100% Pure Jazz", "late night set")
	s.createPost(bob, "1000 pure beats", "drums only")
	s.createPost(bob, "Ambient", "pads and PURE tones")

	posts, err := s.services.Feed.Search(s.ctx, bob.ID, "pure")
	require.NoError(s.T(), err)
	assert.Len(s.T(), posts, 3)

	// The percent sign matches itself, not any sequence of characters.
	posts, err = s.services.Feed.Search(s.ctx, bob.ID, "0%")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"100% Pure Jazz"}, titles(posts))

	_, err = s.services.Feed.Search(s.ctx, bob.ID, "   ")
	s.requireCode(err, errs.EINVALID)

	_, err = s.services.Feed.Search(s.ctx, bob.ID, "polka")
	s.requireCode(err, errs.ENOTFOUND)
}
