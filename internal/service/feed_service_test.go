package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"commune/internal/models"
	"commune/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFeedService(db *gorm.DB) *FeedService {
	return NewFeedService(
		repository.NewPostRepository(db),
		repository.NewCommunityRepository(db),
		repository.NewUserRepository(db),
	)
}

func TestFeedService_Latest(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	first := createTestPost(t, db, author.ID, "first")
	require.NoError(t, db.Model(first).
		Update("created_at", time.Now().Add(-time.Hour)).Error)
	createTestPost(t, db, author.ID, "second")

	posts, err := svc.Latest(ctx, 0, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, "first", posts[1].Title)
}

func TestFeedService_PopularScoring(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")

	// likes 1, dislikes 0, comments 0 -> score 1
	low := createTestPost(t, db, author.ID, "low")
	require.NoError(t, db.Model(low).Update("likes_count", 1).Error)

	// likes 0, comments 2 -> score 4
	high := createTestPost(t, db, author.ID, "high")
	require.NoError(t, db.Model(high).Update("comments_count", 2).Error)

	// likes 3, dislikes 2 -> score 1, but newer than "low"
	mid := createTestPost(t, db, author.ID, "mid")
	require.NoError(t, db.Model(mid).
		Updates(map[string]interface{}{"likes_count": 3, "dislikes_count": 2}).Error)
	require.NoError(t, db.Model(low).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	posts, err := svc.Popular(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "high", posts[0].Title)
	assert.Equal(t, "mid", posts[1].Title, "ties break toward the newer post")
	assert.Equal(t, "low", posts[2].Title)

	// Each result carries its score for client display.
	assert.Equal(t, 4, posts[0].PopularScore)
	assert.Equal(t, 1, posts[1].PopularScore)
	assert.Equal(t, 1, posts[2].PopularScore)
}

func TestFeedService_PopularCommunityBonus(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")

	community := &models.Community{Name: "big", CreatedByUserID: author.ID}
	require.NoError(t, db.Create(community).Error)
	for i := 0; i < 250; i++ {
		u := createTestUser(t, db, "m", "member"+string(rune('a'+i/26))+string(rune('a'+i%26))+"@example.com")
		require.NoError(t, db.Create(&models.CommunityMembership{
			CommunityID: community.ID, UserID: u.ID, Role: models.CommunityRoleMember,
		}).Error)
	}

	// Community post: 0 engagement + 250/100 -> score 2.
	communityPost := createTestPost(t, db, author.ID, "community")
	require.NoError(t, db.Model(communityPost).
		Update("community_id", community.ID).Error)

	// Standalone post with one like -> score 1.
	standalone := createTestPost(t, db, author.ID, "standalone")
	require.NoError(t, db.Model(standalone).Update("likes_count", 1).Error)

	posts, err := svc.Popular(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "community", posts[0].Title)
	assert.Equal(t, 2, posts[0].PopularScore)
	assert.Equal(t, 1, posts[1].PopularScore)
}

type brokenMemberCounts struct {
	repository.CommunityRepository
}

func (brokenMemberCounts) MemberCount(ctx context.Context, communityID uint) (int64, error) {
	return 0, errors.New("member count unavailable")
}

func TestFeedService_PopularDegradesWithoutMemberCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	svc.communityRepo = brokenMemberCounts{svc.communityRepo}
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	community := &models.Community{Name: "quiet", CreatedByUserID: author.ID}
	require.NoError(t, db.Create(community).Error)

	post := createTestPost(t, db, author.ID, "still ranked")
	require.NoError(t, db.Model(post).
		Updates(map[string]interface{}{"community_id": community.ID, "likes_count": 3}).Error)

	// The lookup failure costs the boost, not the feed.
	posts, err := svc.Popular(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 3, posts[0].PopularScore)
}

func TestFeedService_PopularWindowExcludesOldPosts(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	old := createTestPost(t, db, author.ID, "ancient")
	require.NoError(t, db.Model(old).
		Updates(map[string]interface{}{
			"likes_count": 100,
			"created_at":  time.Now().Add(-15 * 24 * time.Hour),
		}).Error)
	createTestPost(t, db, author.ID, "fresh")

	posts, err := svc.Popular(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "fresh", posts[0].Title)
}

func TestFeedService_TrendingVelocity(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	author := createTestUser(t, db, "author", "author@example.com")
	fans := make([]*models.User, 6)
	for i := range fans {
		fans[i] = createTestUser(t, db, "fan", "fan"+string(rune('a'+i))+"@example.com")
	}

	// 6 likes on a 2-hour-old post -> 6 / 2 = 3.0
	hot := createTestPost(t, db, author.ID, "hot")
	require.NoError(t, db.Model(hot).
		Update("created_at", now.Add(-2*time.Hour)).Error)
	for _, fan := range fans {
		require.NoError(t, db.Create(&models.Reaction{
			UserID: fan.ID, PostID: hot.ID, Kind: models.ReactionLike,
		}).Error)
	}

	// 6 likes on a 24-hour-old post -> 0.25
	cooling := createTestPost(t, db, author.ID, "cooling")
	require.NoError(t, db.Model(cooling).
		Update("created_at", now.Add(-24*time.Hour)).Error)
	for _, fan := range fans {
		require.NoError(t, db.Create(&models.Reaction{
			UserID: fan.ID, PostID: cooling.ID, Kind: models.ReactionLike,
		}).Error)
	}

	posts, err := svc.Trending(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "hot", posts[0].Title)
	assert.InDelta(t, 3.0, posts[0].TrendingScore, 0.01)
	assert.Equal(t, 6, posts[0].TrendingEngagement)
	assert.InDelta(t, 2.0, posts[0].HoursSince, 0.01)

	assert.Equal(t, "cooling", posts[1].Title)
	assert.InDelta(t, 0.25, posts[1].TrendingScore, 0.01)
}

func TestFeedService_TrendingFloorsYoungPosts(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	author := createTestUser(t, db, "author", "author@example.com")
	fan := createTestUser(t, db, "fan", "fan@example.com")

	// A 6-minute-old post with one like divides by 1.0, not 0.1.
	young := createTestPost(t, db, author.ID, "young")
	require.NoError(t, db.Model(young).
		Update("created_at", now.Add(-6*time.Minute)).Error)
	require.NoError(t, db.Create(&models.Reaction{
		UserID: fan.ID, PostID: young.ID, Kind: models.ReactionLike,
	}).Error)

	posts, err := svc.Trending(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.InDelta(t, 1.0, posts[0].TrendingScore, 0.01)
}

func TestFeedService_Stream(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	viewer := createTestUser(t, db, "viewer", "viewer@example.com")
	followed := createTestUser(t, db, "followed", "followed@example.com")
	stranger := createTestUser(t, db, "stranger", "stranger@example.com")

	community := &models.Community{Name: "joined", CreatedByUserID: stranger.ID}
	require.NoError(t, db.Create(community).Error)
	require.NoError(t, db.Create(&models.CommunityMembership{
		CommunityID: community.ID, UserID: viewer.ID, Role: models.CommunityRoleMember,
	}).Error)
	require.NoError(t, db.Create(&models.Follow{
		FollowerID: viewer.ID, FolloweeID: followed.ID,
	}).Error)

	inCommunity := createTestPost(t, db, stranger.ID, "from joined community")
	require.NoError(t, db.Model(inCommunity).Update("community_id", community.ID).Error)
	createTestPost(t, db, followed.ID, "from followed author")
	createTestPost(t, db, stranger.ID, "unrelated")

	posts, err := svc.Stream(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.NotEqual(t, "unrelated", p.Title)
	}
}

func TestFeedService_StreamEmptyForLoner(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	loner := createTestUser(t, db, "loner", "loner@example.com")
	other := createTestUser(t, db, "other", "other@example.com")
	createTestPost(t, db, other.ID, "not for you")

	posts, err := svc.Stream(ctx, loner.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFeedService_ViewerReactionsAttached(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", "author@example.com")
	viewer := createTestUser(t, db, "viewer", "viewer@example.com")

	likedPost := createTestPost(t, db, author.ID, "liked one")
	createTestPost(t, db, author.ID, "neutral one")
	require.NoError(t, db.Create(&models.Reaction{
		UserID: viewer.ID, PostID: likedPost.ID, Kind: models.ReactionLike,
	}).Error)

	posts, err := svc.Latest(ctx, viewer.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	byTitle := map[string]*models.Post{}
	for _, p := range posts {
		byTitle[p.Title] = p
	}
	assert.True(t, byTitle["liked one"].Liked)
	assert.False(t, byTitle["neutral one"].Liked)
}
