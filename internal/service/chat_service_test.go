package service

import (
	"context"
	"testing"
	"time"

	"commune/internal/models"
	"commune/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChatService(db *gorm.DB) *ChatService {
	return NewChatService(
		repository.NewChatRepository(db),
		repository.NewUserRepository(db),
		nil,
	)
}

func TestChatService_ResolveChatDedup(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	first, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Resolving again, from either side, lands on the same chat.
	again, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	reversed, err := svc.ResolveChat(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, reversed.ID)

	var chatCount int64
	require.NoError(t, db.Model(&models.Chat{}).Count(&chatCount).Error)
	assert.Equal(t, int64(1), chatCount)
}

func TestChatService_ResolveChatRejections(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	t.Run("SelfChat", func(t *testing.T) {
		_, err := svc.ResolveChat(ctx, alice.ID, alice.ID)
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("MissingUser", func(t *testing.T) {
		_, err := svc.ResolveChat(ctx, alice.ID, 9999)
		assertAppErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("BlockedPair", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Block{BlockerID: bob.ID, BlockedID: alice.ID}).Error)
		_, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
		assertAppErrorCode(t, err, "FORBIDDEN")
	})
}

func TestChatService_Messaging(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	eve := createTestUser(t, db, "eve", "eve@example.com")

	chat, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	t.Run("SendAndList", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: alice.ID, Text: "hi bob",
		})
		require.NoError(t, err)

		messages, err := svc.ListMessages(ctx, chat.ID, bob.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "hi bob", messages[0].Text)
	})

	t.Run("EmptyMessageRejected", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: alice.ID, Text: "   ",
		})
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("NonParticipantRejected", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: eve.ID, Text: "let me in",
		})
		assertAppErrorCode(t, err, "FORBIDDEN")

		_, err = svc.ListMessages(ctx, chat.ID, eve.ID, 50, 0)
		assertAppErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("MarkReadIdempotent", func(t *testing.T) {
		marked, err := svc.MarkRead(ctx, chat.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), marked)

		marked, err = svc.MarkRead(ctx, chat.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), marked)
	})

	t.Run("DeleteMessageOnlyBySender", func(t *testing.T) {
		msg, err := svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: alice.ID, Text: "oops",
		})
		require.NoError(t, err)

		err = svc.DeleteMessage(ctx, msg.ID, bob.ID)
		assertAppErrorCode(t, err, "FORBIDDEN")

		require.NoError(t, svc.DeleteMessage(ctx, msg.ID, alice.ID))

		var after models.Message
		require.NoError(t, db.First(&after, msg.ID).Error)
		assert.True(t, after.Deleted)
		assert.Empty(t, after.Text)
	})
}

func TestChatService_LeaveChatDeletesWhenEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	chat, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: alice.ID, Text: "bye",
	})
	require.NoError(t, err)

	require.NoError(t, svc.LeaveChat(ctx, chat.ID, alice.ID))

	// Bob still sees the chat.
	chats, err := svc.ListChats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	require.NoError(t, svc.LeaveChat(ctx, chat.ID, bob.ID))

	var chatCount, msgCount int64
	require.NoError(t, db.Model(&models.Chat{}).Count(&chatCount).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&msgCount).Error)
	assert.Equal(t, int64(0), chatCount)
	assert.Equal(t, int64(0), msgCount)
}

func TestChatService_Typing(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	chat, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	base := time.Now()

	t.Run("FreshIndicatorVisible", func(t *testing.T) {
		svc.now = func() time.Time { return base }
		require.NoError(t, svc.SetTyping(ctx, chat.ID, alice.ID, true))

		// 4 seconds later the indicator is still fresh.
		svc.now = func() time.Time { return base.Add(4 * time.Second) }
		typers, err := svc.ActiveTypers(ctx, chat.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID}, typers)
	})

	t.Run("IndicatorExpiresAfterFiveSeconds", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(6 * time.Second) }
		typers, err := svc.ActiveTypers(ctx, chat.ID, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, typers)
	})

	t.Run("OwnIndicatorExcluded", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(10 * time.Second) }
		require.NoError(t, svc.SetTyping(ctx, chat.ID, alice.ID, true))

		typers, err := svc.ActiveTypers(ctx, chat.ID, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, typers)
	})

	t.Run("InactiveSignalClearsImmediately", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(20 * time.Second) }
		require.NoError(t, svc.SetTyping(ctx, chat.ID, alice.ID, true))

		// Stopping removes the row well before the freshness window lapses.
		require.NoError(t, svc.SetTyping(ctx, chat.ID, alice.ID, false))
		typers, err := svc.ActiveTypers(ctx, chat.ID, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, typers)

		var rows int64
		require.NoError(t, db.Model(&models.TypingStatus{}).Count(&rows).Error)
		assert.Zero(t, rows)
	})
}

func TestChatService_ListChatsUnreadAndOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := newChatService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	carol := createTestUser(t, db, "carol", "carol@example.com")

	bobChat, err := svc.ResolveChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	carolChat, err := svc.ResolveChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, SendMessageInput{
		ChatID: bobChat.ID, SenderID: bob.ID, Text: "one",
	})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, SendMessageInput{
		ChatID: bobChat.ID, SenderID: bob.ID, Text: "two",
	})
	require.NoError(t, err)

	chats, err := svc.ListChats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	var withBob *models.Chat
	for _, c := range chats {
		if c.ID == bobChat.ID {
			withBob = c
		}
	}
	require.NotNil(t, withBob)
	assert.Equal(t, 2, withBob.UnreadCount)
	assert.NotNil(t, withBob.LastMessageAt)

	for _, c := range chats {
		if c.ID == carolChat.ID {
			assert.Equal(t, 0, c.UnreadCount)
		}
	}
}
