package crud

import (
	"sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestToggleLike() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	post := s.createPost(bob, "T", "C")

	result, err := s.services.Like.Toggle(s.ctx, &domain.Like{UserID: alice.ID, PostID: post.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), &domain.LikeResult{PostID: post.ID, Liked: true, LikeCount: 1}, result)

	result, err = s.services.Like.Toggle(s.ctx, &domain.Like{UserID: bob.ID, PostID: post.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, result.LikeCount)

	result, err = s.services.Like.Toggle(s.ctx, &domain.Like{UserID: alice.ID, PostID: post.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), &domain.LikeResult{PostID: post.ID, Liked: false, LikeCount: 1}, result)

	liked, err := s.services.Like.LikedSet(s.ctx, bob.ID, []int{post.ID})
	require.NoError(s.T(), err)
	assert.True(s.T(), liked[post.ID])
	liked, err = s.services.Like.LikedSet(s.ctx, alice.ID, []int{post.ID})
	require.NoError(s.T(), err)
	assert.False(s.T(), liked[post.ID])
}

func (s *CrudTestSuite) TestToggleLikeReusedObject() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	post := s.createPost(bob, "T", "C")

	like := &domain.Like{UserID: alice.ID, PostID: post.ID}
	for i, want := range []int{1, 0, 1, 0} {
		result, err := s.services.Like.Toggle(s.ctx, like)
		require.NoError(s.T(), err, "toggle %d", i)
		assert.Equal(s.T(), want, result.LikeCount, "toggle %d", i)
		assert.Equal(s.T(), want == 1, result.Liked, "toggle %d", i)
	}
}

func (s *CrudTestSuite) TestToggleLikeMissingPost() {
	alice := s.createUser("alice")

	_, err := s.services.Like.Toggle(s.ctx, &domain.Like{UserID: alice.ID, PostID: 4242})
	s.requireCode(err, errs.ENOTFOUND)

	_, err = s.services.Like.Toggle(s.ctx, &domain.Like{PostID: 4242})
	s.requireCode(err, errs.EUNAUTHORIZED)
}

// Concurrent likes by different users must all be counted.
func (s *CrudTestSuite) TestConcurrentLikesAreCounted() {
	bob := s.createUser("bob")
	post := s.createPost(bob, "T", "C")
	users := []*domain.User{s.createUser("user1"), s.createUser("user2"), s.createUser("user3"), s.createUser("user4")}

	var wg sync.WaitGroup
	errCh := make(chan error, len(users))
	for _, u := range users {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := s.services.Like.Toggle(s.ctx, &domain.Like{UserID: userID, PostID: post.ID})
			errCh <- err
		}(u.ID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(s.T(), err)
	}

	detail, err := s.services.Post.ByID(s.ctx, post.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), len(users), detail.LikeCount)

	var rows int64
	require.NoError(s.T(), s.db.Model(&domain.Like{}).Where("post_id = ?", post.ID).Count(&rows).Error)
	assert.EqualValues(s.T(), detail.LikeCount, rows)
}
