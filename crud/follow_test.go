package crud

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *CrudTestSuite) TestFollowIsSymmetric() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.follow(alice, bob)

	following, err := s.services.Follow.FollowingNames(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	followers, err := s.services.Follow.FollowerNames(s.ctx, bob.ID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"bob"}, following)
	assert.Equal(s.T(), []string{"alice"}, followers)

	isFollowing, err := s.services.Follow.IsFollowing(s.ctx, alice.ID, bob.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), isFollowing)

	isFollowing, err = s.services.Follow.IsFollowing(s.ctx, bob.ID, alice.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), isFollowing)
}

func (s *CrudTestSuite) TestFollowTwiceKeepsOneEdge() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.follow(alice, bob)
	s.follow(alice, bob)

	var count int64
	require.NoError(s.T(), s.db.Model(&domain.Follow{}).Count(&count).Error)
	assert.EqualValues(s.T(), 1, count)

	followers, err := s.services.Follow.FollowerNames(s.ctx, bob.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"alice"}, followers)
}

func (s *CrudTestSuite) TestFollowSelfIsRejected() {
	alice := s.createUser("alice")

	err := s.services.Follow.Create(s.ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: alice.ID})
	s.requireCode(err, errs.EINVALID)

	assert.Equal(s.T(), "You can't follow yourself.", errs.ErrorMessage(err))

	err = s.services.Follow.Delete(s.ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: alice.ID})
	s.requireCode(err, errs.EINVALID)
	assert.Equal(s.T(), "You can't unfollow yourself.", errs.ErrorMessage(err))

	following, err := s.services.Follow.FollowingNames(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), following)
}

func (s *CrudTestSuite) TestFollowMissingUser() {
	alice := s.createUser("alice")

	err := s.services.Follow.Create(s.ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: alice.ID + 100})
	s.requireCode(err, errs.ENOTFOUND)
}

func (s *CrudTestSuite) TestFollowRequiresFollower() {
	bob := s.createUser("bob")

	err := s.services.Follow.Create(s.ctx, &domain.Follow{FollowedID: bob.ID})
	s.requireCode(err, errs.EUNAUTHORIZED)
}

func (s *CrudTestSuite) TestUnfollow() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.follow(alice, bob)

	edge := &domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID}
	require.NoError(s.T(), s.services.Follow.Delete(s.ctx, edge))

	following, err := s.services.Follow.FollowingNames(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	followers, err := s.services.Follow.FollowerNames(s.ctx, bob.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), following)
	assert.Empty(s.T(), followers)

	// Unfollowing again changes nothing and is not an error.
	require.NoError(s.T(), s.services.Follow.Delete(s.ctx, edge))
}

func (s *CrudTestSuite) TestFollowedSet() {
	alice, bob, carol := s.createUser("alice"), s.createUser("bob"), s.createUser("carol")
	s.follow(alice, bob)

	set, err := s.services.Follow.FollowedSet(s.ctx, alice.ID, []int{bob.ID, carol.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), map[int]bool{bob.ID: true}, set)

	set, err = s.services.Follow.FollowedSet(s.ctx, alice.ID, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), set)

	ids, err := s.services.Follow.FollowingIDs(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []int{bob.ID}, ids)
}

func (s *CrudTestSuite) TestRelationsOf() {
	alice, bob, carol := s.createUser("alice"), s.createUser("bob"), s.createUser("carol")
	zed := s.createUser("zed")
	s.follow(alice, bob)
	s.follow(carol, bob)
	s.follow(bob, carol)
	s.follow(zed, alice)

	rels, err := s.services.Follow.RelationsOf(s.ctx, []int{bob.ID, carol.ID, alice.ID + 1000})
	require.NoError(s.T(), err)
	require.Len(s.T(), rels, 3)

	assert.Equal(s.T(), []string{"alice", "carol"}, rels[bob.ID].Followers)
	assert.Equal(s.T(), []string{"carol"}, rels[bob.ID].Following)
	assert.Equal(s.T(), []string{"bob"}, rels[carol.ID].Followers)
	assert.Equal(s.T(), []string{"bob"}, rels[carol.ID].Following)
	assert.Equal(s.T(), []string{}, rels[alice.ID+1000].Followers)
	assert.Equal(s.T(), []string{}, rels[alice.ID+1000].Following)

	rels, err = s.services.Follow.RelationsOf(s.ctx, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), rels)
}
