package repository

import (
	"context"
	"time"

	"commune/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat and message data operations.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *models.Chat, participantIDs []uint) error
	GetChat(ctx context.Context, chatID uint) (*models.Chat, error)
	FindChatByParticipants(ctx context.Context, userA, userB uint) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID uint) ([]*models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	RemoveParticipant(ctx context.Context, chatID, userID uint) (remaining int64, err error)
	DeleteChat(ctx context.Context, chatID uint) error

	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, messageID uint) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, chatID, readerID uint) (int64, error)
	SoftDeleteMessage(ctx context.Context, messageID uint) error
	UnreadCount(ctx context.Context, chatID, userID uint) (int64, error)

	UpsertTyping(ctx context.Context, chatID, userID uint, at time.Time) error
	DeleteTyping(ctx context.Context, chatID, userID uint) error
	ActiveTypers(ctx context.Context, chatID uint, now time.Time) ([]uint, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateChat(ctx context.Context, chat *models.Chat, participantIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for _, userID := range participantIDs {
			p := models.ChatParticipant{ChatID: chat.ID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *chatRepository) GetChat(ctx context.Context, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&chat, chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindChatByParticipants returns the first chat where both users are
// participants, or gorm.ErrRecordNotFound.
func (r *chatRepository) FindChatByParticipants(ctx context.Context, userA, userB uint) (*models.Chat, error) {
	var chatID uint
	err := r.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Select("chat_id").
		Where("user_id IN ?", []uint{userA, userB}).
		Group("chat_id").
		Having("COUNT(DISTINCT user_id) = 2").
		Order("chat_id ASC").
		Limit(1).
		Scan(&chatID).Error
	if err != nil {
		return nil, err
	}
	if chatID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetChat(ctx, chatID)
}

func (r *chatRepository) ListChatsForUser(ctx context.Context, userID uint) ([]*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	for _, chat := range chats {
		unread, err := r.UnreadCount(ctx, chat.ID, userID)
		if err != nil {
			return nil, err
		}
		chat.UnreadCount = int(unread)

		var last models.Message
		err = r.db.WithContext(ctx).
			Where("chat_id = ?", chat.ID).
			Order("created_at DESC").
			First(&last).Error
		if err == nil {
			t := last.CreatedAt
			chat.LastMessageAt = &t
		} else if !IsRecordNotFound(err) {
			return nil, err
		}
	}
	return chats, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// RemoveParticipant drops the user from the chat and returns how many
// participants remain.
func (r *chatRepository) RemoveParticipant(ctx context.Context, chatID, userID uint) (int64, error) {
	var remaining int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&models.ChatParticipant{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatParticipant{}).
			Where("chat_id = ?", chatID).
			Count(&remaining).Error
	})
	return remaining, err
}

// DeleteChat removes the chat with its messages, participants and typing rows.
func (r *chatRepository) DeleteChat(ctx context.Context, chatID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.ChatParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.TypingStatus{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Chat{}, chatID).Error
	})
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		// Bump the chat so conversation lists sort by activity.
		return tx.Model(&models.Chat{}).Where("id = ?", message.ChatID).
			Update("updated_at", message.CreatedAt).Error
	})
}

func (r *chatRepository) GetMessage(ctx context.Context, messageID uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, messageID).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// MarkRead marks every unread message not sent by the reader as read and
// returns how many rows changed. Calling it again is a no-op.
func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// SoftDeleteMessage blanks the message content but keeps the row.
func (r *chatRepository) SoftDeleteMessage(ctx context.Context, messageID uint) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"text":      "",
			"media_url": "",
			"deleted":   true,
		}).Error
}

func (r *chatRepository) UnreadCount(ctx context.Context, chatID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ? AND deleted = ?",
			chatID, userID, false, false).
		Count(&count).Error
	return count, err
}

// UpsertTyping writes the typing row for (chat, user), last write wins.
func (r *chatRepository) UpsertTyping(ctx context.Context, chatID, userID uint, at time.Time) error {
	status := models.TypingStatus{ChatID: chatID, UserID: userID, LastSeen: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
		}).
		Create(&status).Error
}

// DeleteTyping drops the typing row for (chat, user) if present.
func (r *chatRepository) DeleteTyping(ctx context.Context, chatID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&models.TypingStatus{}).Error
}

// ActiveTypers returns users whose typing row is still inside the freshness
// window relative to now.
func (r *chatRepository) ActiveTypers(ctx context.Context, chatID uint, now time.Time) ([]uint, error) {
	cutoff := now.Add(-models.TypingFreshness)
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.TypingStatus{}).
		Where("chat_id = ? AND last_seen >= ?", chatID, cutoff).
		Pluck("user_id", &ids).Error
	return ids, err
}
