package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"commune/internal/middleware"
	"commune/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketChatHandler handles WebSocket connections for real-time chat
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		// Get user info for the typing indicator name
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil || user == nil {
			slog.Warn("websocket chat: failed to load user", "user_id", userID)
			_ = conn.Close()
			return
		}

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		slog.Info("websocket chat connected", "user_id", userID)

		client.IncomingHandler = func(cl *notifications.Client, message []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(message, &incoming); err != nil {
				slog.Warn("websocket chat: invalid message format", "user_id", userID)
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok {
				return
			}

			switch msgType {
			case "join":
				if chatIDFloat, ok := incoming["chat_id"].(float64); ok {
					chatID := uint(chatIDFloat)
					// Verify membership before subscribing to the room
					if s.isChatParticipant(ctx, chatID, userID) {
						s.chatHub.JoinRoom(userID, chatID)

						response := notifications.Event{
							Type:    "joined",
							ChatID:  chatID,
							UserID:  userID,
							Payload: map[string]interface{}{"chat_id": chatID},
						}
						responseJSON, _ := json.Marshal(response)
						cl.TrySend(responseJSON)
					}
				}

			case "leave":
				if chatIDFloat, ok := incoming["chat_id"].(float64); ok {
					s.chatHub.LeaveRoom(userID, uint(chatIDFloat))
				}

			case "typing":
				if chatIDFloat, ok := incoming["chat_id"].(float64); ok {
					chatID := uint(chatIDFloat)
					if !s.isChatParticipant(ctx, chatID, userID) {
						return
					}

					// Rate limit typing heartbeats to keep spam off the bus
					id := fmt.Sprintf("user:%d", userID)
					allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
					if !allowed {
						return
					}

					active := true
					if v, ok := incoming["active"].(bool); ok {
						active = v
					}
					if terr := s.chatService.SetTyping(ctx, chatID, userID, active); terr != nil {
						slog.Warn("websocket chat: typing update failed",
							"user_id", userID, "chat_id", chatID, "error", terr)
					}
				}
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) isChatParticipant(ctx context.Context, chatID, userID uint) bool {
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return false
	}
	return ok
}
