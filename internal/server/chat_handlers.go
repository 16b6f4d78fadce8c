package server

import (
	"commune/internal/models"
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ResolveChat returns the chat with another user, creating it when absent
func (s *Server) ResolveChat(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		UserID uint `json:"user_id"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	chat, err := s.chatService.ResolveChat(ctx, userID, req.UserID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"chat_id": chat.ID,
	})
}

// GetChats lists the user's chats with unread counts, most recent first
func (s *Server) GetChats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chats, err := s.chatService.ListChats(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(chats)
}

// GetChat returns a single chat (participants only)
func (s *Server) GetChat(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.GetChat(ctx, chatID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(chat)
}

// GetMessages returns a chat's messages oldest first (participants only)
func (s *Server) GetMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	p := parsePagination(c, 50)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	messages, err := s.chatService.ListMessages(ctx, chatID, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(messages)
}

// SendMessage posts a message into a chat (participants only)
func (s *Server) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text     string `json:"text"`
		MediaURL string `json:"media_url"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
		ChatID:   chatID,
		SenderID: userID,
		Text:     req.Text,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkChatRead marks all messages from other senders as read
func (s *Server) MarkChatRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	marked, err := s.chatService.MarkRead(ctx, chatID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"marked": marked,
	})
}

// DeleteMessage soft-deletes a message (sender only)
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	messageID, err := s.parseID(c, "messageId")
	if err != nil {
		return nil
	}

	if err := s.chatService.DeleteMessage(ctx, messageID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Message deleted",
	})
}

// LeaveChat removes the user from a chat; the chat is deleted when empty
func (s *Server) LeaveChat(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.LeaveChat(ctx, chatID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Left chat",
	})
}

// SetTyping records a typing heartbeat for the user in a chat. Sending
// {"active": false} clears the indicator right away.
func (s *Server) SetTyping(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	active := true
	var req struct {
		Active *bool `json:"active"`
	}
	if parseErr := c.BodyParser(&req); parseErr == nil && req.Active != nil {
		active = *req.Active
	}

	if err := s.chatService.SetTyping(ctx, chatID, userID, active); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Typing recorded",
	})
}

// GetTyping returns other participants currently typing in a chat
func (s *Server) GetTyping(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	typers, err := s.chatService.ActiveTypers(ctx, chatID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"typing_users": typers,
	})
}
