package repository

import (
	"context"
	"testing"
	"time"

	"commune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListLatestSkipsHidden(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", "alice@example.com")
	createTestPost(t, db, user.ID, "visible")

	hidden := createTestPost(t, db, user.ID, "hidden")
	hidden.Status = models.PostStatusHidden
	require.NoError(t, db.Save(hidden).Error)

	posts, err := repo.ListLatest(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "visible", posts[0].Title)
}

func TestPostRepository_ListSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", "alice@example.com")

	old := createTestPost(t, db, user.ID, "old")
	require.NoError(t, db.Model(old).
		Update("created_at", time.Now().Add(-72*time.Hour)).Error)
	createTestPost(t, db, user.ID, "recent")

	posts, err := repo.ListSince(ctx, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "recent", posts[0].Title)
}

func TestPostRepository_ListStream(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	member := createTestUser(t, db, "member", "member@example.com")
	outsider := createTestUser(t, db, "outsider", "outsider@example.com")

	community := &models.Community{Name: "gophers", CreatedByUserID: member.ID}
	require.NoError(t, db.Create(community).Error)

	inCommunity := createTestPost(t, db, outsider.ID, "community post")
	inCommunity.CommunityID = &community.ID
	require.NoError(t, db.Save(inCommunity).Error)

	createTestPost(t, db, author.ID, "followed author post")
	createTestPost(t, db, outsider.ID, "unrelated post")

	t.Run("UnionOfCommunitiesAndAuthors", func(t *testing.T) {
		posts, err := repo.ListStream(ctx, []uint{community.ID}, []uint{author.ID}, 100)
		require.NoError(t, err)
		require.Len(t, posts, 2)
	})

	t.Run("EmptySourcesYieldEmptyStream", func(t *testing.T) {
		posts, err := repo.ListStream(ctx, nil, nil, 100)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("CapRespected", func(t *testing.T) {
		posts, err := repo.ListStream(ctx, []uint{community.ID}, []uint{author.ID}, 1)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	})
}

func TestPostRepository_EngagementSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	fan := createTestUser(t, db, "fan", "fan@example.com")
	post := createTestPost(t, db, author.ID, "engaging")

	require.NoError(t, db.Create(&models.Reaction{
		UserID: fan.ID, PostID: post.ID, Kind: models.ReactionLike,
	}).Error)
	require.NoError(t, db.Create(&models.Comment{
		PostID: post.ID, UserID: fan.ID, Text: "nice", IsVisible: true,
	}).Error)

	// Dislikes never count toward engagement.
	require.NoError(t, db.Create(&models.Reaction{
		UserID: author.ID, PostID: post.ID, Kind: models.ReactionDislike,
	}).Error)

	// Neither do hidden comments.
	require.NoError(t, db.Create(&models.Comment{
		PostID: post.ID, UserID: author.ID, Text: "spam", IsVisible: false,
	}).Error)

	engagement, err := repo.EngagementSince(ctx, []uint{post.ID}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, engagement[post.ID])

	// A cutoff in the future excludes everything.
	engagement, err = repo.EngagementSince(ctx, []uint{post.ID}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, engagement[post.ID])
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", "alice@example.com")
	post := createTestPost(t, db, user.ID, "doomed")

	require.NoError(t, db.Create(&models.Reaction{
		UserID: user.ID, PostID: post.ID, Kind: models.ReactionLike,
	}).Error)
	require.NoError(t, db.Create(&models.Comment{
		PostID: post.ID, UserID: user.ID, Text: "bye", IsVisible: true,
	}).Error)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var reactions, comments int64
	require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&reactions).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Equal(t, int64(0), reactions)
	assert.Equal(t, int64(0), comments)
}
