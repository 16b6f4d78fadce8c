package seed

import (
	"testing"

	"commune/internal/database"
	"commune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedBuildsConsistentMesh(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db, 42)

	err := s.Seed(Options{NumUsers: 10, NumCommunities: 3, NumPosts: 20})
	require.NoError(t, err)

	var userCount, communityCount, postCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Community{}).Count(&communityCount)
	db.Model(&models.Post{}).Count(&postCount)
	assert.EqualValues(t, 10, userCount)
	assert.EqualValues(t, 3, communityCount)
	assert.EqualValues(t, 20, postCount)

	// Exactly one admin account
	var adminCount int64
	db.Model(&models.User{}).Where("is_admin = ?", true).Count(&adminCount)
	assert.EqualValues(t, 1, adminCount)

	// Every community has an admin membership for its creator
	var communities []models.Community
	require.NoError(t, db.Find(&communities).Error)
	for _, c := range communities {
		var m models.CommunityMembership
		err := db.Where("community_id = ? AND user_id = ?", c.ID, c.CreatedByUserID).First(&m).Error
		require.NoError(t, err)
		assert.Equal(t, models.CommunityRoleAdmin, m.Role)
	}

	// Denormalized counters match live rows
	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		var likes, dislikes, comments int64
		db.Model(&models.Reaction{}).Where("post_id = ? AND kind = ?", p.ID, models.ReactionLike).Count(&likes)
		db.Model(&models.Reaction{}).Where("post_id = ? AND kind = ?", p.ID, models.ReactionDislike).Count(&dislikes)
		db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
		assert.EqualValues(t, likes, p.LikesCount)
		assert.EqualValues(t, dislikes, p.DislikesCount)
		assert.EqualValues(t, comments, p.CommentsCount)
	}

	// Replies never nest deeper than one level
	var replies []models.Comment
	require.NoError(t, db.Where("parent_id IS NOT NULL").Find(&replies).Error)
	for _, r := range replies {
		var parent models.Comment
		require.NoError(t, db.First(&parent, *r.ParentID).Error)
		assert.Nil(t, parent.ParentID)
	}

	// Every chat has exactly two participants
	var chats []models.Chat
	require.NoError(t, db.Find(&chats).Error)
	for _, c := range chats {
		var participants int64
		db.Model(&models.ChatParticipant{}).Where("chat_id = ?", c.ID).Count(&participants)
		assert.EqualValues(t, 2, participants)
	}
}

func TestClearAllEmptiesTables(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db, 7)

	require.NoError(t, s.Seed(Options{NumUsers: 5, NumCommunities: 2, NumPosts: 10}))
	require.NoError(t, s.ClearAll())

	var userCount, postCount, messageCount int64
	db.Unscoped().Model(&models.User{}).Count(&userCount)
	db.Unscoped().Model(&models.Post{}).Count(&postCount)
	db.Model(&models.Message{}).Count(&messageCount)
	assert.Zero(t, userCount)
	assert.Zero(t, postCount)
	assert.Zero(t, messageCount)
}
