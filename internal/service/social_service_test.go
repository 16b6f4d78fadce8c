package service

import (
	"context"
	"testing"

	"commune/internal/models"
	"commune/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialService_ToggleFollow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSocialService(repository.NewUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	t.Run("FollowThenUnfollow", func(t *testing.T) {
		res, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, res.Following)
		assert.Equal(t, 1, res.FollowersCount)

		res, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, res.Following)
		assert.Equal(t, 0, res.FollowersCount)
	})

	t.Run("SelfFollowRejected", func(t *testing.T) {
		_, err := svc.ToggleFollow(ctx, alice.ID, alice.ID)
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("MissingTarget", func(t *testing.T) {
		_, err := svc.ToggleFollow(ctx, alice.ID, 9999)
		assertAppErrorCode(t, err, "NOT_FOUND")
	})
}

func TestSocialService_ToggleBlock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSocialService(repository.NewUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	// Mutual follows first.
	_, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	t.Run("BlockSeversFollows", func(t *testing.T) {
		res, err := svc.ToggleBlock(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, res.Blocked)

		var follows int64
		require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
		assert.Equal(t, int64(0), follows)
	})

	t.Run("BlockedCannotFollow", func(t *testing.T) {
		_, err := svc.ToggleFollow(ctx, bob.ID, alice.ID)
		assertAppErrorCode(t, err, "FORBIDDEN")

		_, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
		assertAppErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("UnblockRestoresNothing", func(t *testing.T) {
		res, err := svc.ToggleBlock(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, res.Blocked)

		// Follows stay severed after unblock.
		var follows int64
		require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
		assert.Equal(t, int64(0), follows)
	})
}
