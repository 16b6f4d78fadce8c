package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"commune/internal/models"
	"commune/internal/notifications"
	"commune/internal/observability"
	"commune/internal/repository"
)

// ChatService manages direct conversations, messages, read receipts and
// typing indicators.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier

	now func() time.Time
}

// SendMessageInput carries a new chat message.
type SendMessageInput struct {
	ChatID   uint
	SenderID uint
	Text     string
	MediaURL string
}

// NewChatService creates a new chat service.
func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// ResolveChat returns the existing chat between the two users, creating one
// when none exists. Repeated calls for the same pair always land on the same
// chat.
func (s *ChatService) ResolveChat(ctx context.Context, userID, otherID uint) (*models.Chat, error) {
	if userID == otherID {
		return nil, models.NewValidationError("Cannot open a chat with yourself")
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", otherID)
		}
		return nil, err
	}
	if !other.IsActive {
		return nil, models.NewNotFoundError("user", otherID)
	}

	// Blocks in either direction close the channel.
	if blocked, err := s.eitherBlocked(ctx, userID, otherID); err != nil {
		return nil, err
	} else if blocked {
		return nil, models.NewForbiddenError("Cannot open a chat with this user")
	}

	chat, err := s.chatRepo.FindChatByParticipants(ctx, userID, otherID)
	if err == nil {
		return chat, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	chat = &models.Chat{}
	if err := s.chatRepo.CreateChat(ctx, chat, []uint{userID, otherID}); err != nil {
		return nil, err
	}
	return s.chatRepo.GetChat(ctx, chat.ID)
}

// ListChats returns the user's chats ordered by last activity, with unread
// counts attached.
func (s *ChatService) ListChats(ctx context.Context, userID uint) ([]*models.Chat, error) {
	return s.chatRepo.ListChatsForUser(ctx, userID)
}

// GetChat returns a chat the user participates in.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("chat", chatID)
		}
		return nil, err
	}
	return chat, nil
}

// ListMessages returns a chat's messages oldest first.
func (s *ChatService) ListMessages(ctx context.Context, chatID, userID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.chatRepo.ListMessages(ctx, chatID, limit, offset)
}

// SendMessage stores the message and fans it out to connected clients.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if strings.TrimSpace(in.Text) == "" && in.MediaURL == "" {
		return nil, models.NewValidationError("Message must have text or media")
	}
	if err := s.requireParticipant(ctx, in.ChatID, in.SenderID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ChatID:   in.ChatID,
		SenderID: in.SenderID,
		Text:     in.Text,
		MediaURL: in.MediaURL,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	observability.MessagesSent.Inc()

	if s.notifier != nil {
		if b, err := json.Marshal(notifications.Event{
			Type:    "message",
			ChatID:  in.ChatID,
			UserID:  in.SenderID,
			Payload: message,
		}); err == nil {
			_ = s.notifier.PublishChatMessage(ctx, in.ChatID, string(b))
		}
	}

	return message, nil
}

// MarkRead marks every message from other participants as read and returns
// how many messages changed state. Calling twice in a row marks zero.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID uint) (int64, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return 0, err
	}

	marked, err := s.chatRepo.MarkRead(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}

	if s.notifier != nil && marked > 0 {
		_ = s.notifier.PublishRead(ctx, chatID, userID, marked)
	}
	return marked, nil
}

// DeleteMessage soft-deletes a message the user sent: content is cleared but
// the row survives so ordering and counts hold.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uint) error {
	message, err := s.chatRepo.GetMessage(ctx, messageID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError("message", messageID)
		}
		return err
	}
	if message.SenderID != userID {
		return models.NewForbiddenError("Only the sender can delete a message")
	}
	return s.chatRepo.SoftDeleteMessage(ctx, messageID)
}

// LeaveChat removes the user from a chat. When the last participant leaves
// the chat and its messages are deleted outright.
func (s *ChatService) LeaveChat(ctx context.Context, chatID, userID uint) error {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return err
	}

	remaining, err := s.chatRepo.RemoveParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return s.chatRepo.DeleteChat(ctx, chatID)
	}
	return nil
}

// SetTyping records whether the user is typing in the chat right now and fans
// the indicator out to connected clients. An active indicator expires on read
// after five seconds without a refresh; an inactive signal removes the row
// immediately.
func (s *ChatService) SetTyping(ctx context.Context, chatID, userID uint, active bool) error {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return err
	}
	if active {
		if err := s.chatRepo.UpsertTyping(ctx, chatID, userID, s.now()); err != nil {
			return err
		}
	} else {
		if err := s.chatRepo.DeleteTyping(ctx, chatID, userID); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		name := ""
		if err == nil {
			name = user.Name
		}
		_ = s.notifier.PublishTyping(ctx, chatID, userID, name, active)
	}
	return nil
}

// ActiveTypers returns the users whose typing indicator is still fresh,
// excluding the asker.
func (s *ChatService) ActiveTypers(ctx context.Context, chatID, userID uint) ([]uint, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	typers, err := s.chatRepo.ActiveTypers(ctx, chatID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]uint, 0, len(typers))
	for _, id := range typers {
		if id != userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *ChatService) requireParticipant(ctx context.Context, chatID, userID uint) error {
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Not a participant of this chat")
	}
	return nil
}

func (s *ChatService) eitherBlocked(ctx context.Context, a, b uint) (bool, error) {
	blocked, err := s.userRepo.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return s.userRepo.IsBlocked(ctx, b, a)
}
