package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FollowGraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	t.Run("FollowAndCounts", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)

		followers, followingCount, err := repo.FollowCounts(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)
		assert.Equal(t, int64(0), followingCount)
	})

	t.Run("FollowTwiceIsNoop", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		followers, _, err := repo.FollowCounts(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)
	})

	t.Run("Unfollow", func(t *testing.T) {
		require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))

		following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, following)
	})
}

func TestUserRepository_BlockRemovesMutualFollows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))

	require.NoError(t, repo.Block(ctx, alice.ID, bob.ID))

	blocked, err := repo.IsBlocked(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Both follow directions are severed.
	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	following, err = repo.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Block is one-directional.
	blocked, err = repo.IsBlocked(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	t.Run("Unblock", func(t *testing.T) {
		require.NoError(t, repo.Unblock(ctx, alice.ID, bob.ID))
		blocked, err := repo.IsBlocked(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, blocked)
	})
}

func TestUserRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice cooper", "alice@example.com")
	createTestUser(t, db, "bob dylan", "bob@example.com")
	inactive := createTestUser(t, db, "alice hidden", "hidden@example.com")
	inactive.IsActive = false
	require.NoError(t, repo.Update(ctx, inactive))

	results, err := repo.Search(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice cooper", results[0].Name)
}
