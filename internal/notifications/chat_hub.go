package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"commune/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages WebSocket connections keyed by chat room. A user may hold
// several connections at once (multiple tabs or devices).
type ChatHub struct {
	mu sync.RWMutex

	// chatID -> set of userIDs currently viewing that chat
	rooms map[uint]map[uint]struct{}

	// userID -> set of chatIDs they are actively viewing
	userRooms map[uint]map[uint]struct{}

	// userID -> set of active clients
	userConns map[uint]map[*Client]bool
}

// Event is the envelope broadcast to chat WebSocket clients.
type Event struct {
	Type    string      `json:"type"` // "message", "typing", "read", "user_status"
	ChatID  uint        `json:"chat_id,omitempty"`
	UserID  uint        `json:"user_id,omitempty"`
	Payload interface{} `json:"payload"`
}

// NewChatHub creates an empty ChatHub.
func NewChatHub() *ChatHub {
	return &ChatHub{
		rooms:     make(map[uint]map[uint]struct{}),
		userRooms: make(map[uint]map[uint]struct{}),
		userConns: make(map[uint]map[*Client]bool),
	}
}

// Register adds a websocket connection for a user. Returns an error when the
// per-user connection limit is exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	slog.Debug("chat hub registered client", "user_id", userID)
	return client, nil
}

// Unregister removes a connection and, when it is the user's last one, drops
// the user from every room they were viewing.
func (h *ChatHub) Unregister(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	observability.WebSocketConnectionsTotal.Dec()

	if len(clients) > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.userConns, client.UserID)

	if rooms, ok := h.userRooms[client.UserID]; ok {
		for chatID := range rooms {
			if users, ok := h.rooms[chatID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.rooms, chatID)
				}
			}
		}
		delete(h.userRooms, client.UserID)
	}

	h.mu.Unlock()
	slog.Debug("chat hub unregistered user", "user_id", client.UserID)
}

// JoinRoom subscribes a connected user to a chat's events.
func (h *ChatHub) JoinRoom(userID, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		return
	}

	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[uint]struct{})
	}
	h.rooms[chatID][userID] = struct{}{}

	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[uint]struct{})
	}
	h.userRooms[userID][chatID] = struct{}{}
}

// LeaveRoom unsubscribes a user from a chat's events.
func (h *ChatHub) LeaveRoom(userID, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.rooms[chatID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.rooms, chatID)
		}
	}
	if rooms, ok := h.userRooms[userID]; ok {
		delete(rooms, chatID)
	}
}

// BroadcastToRoom sends an event to every user viewing the chat, across all
// of their connections.
func (h *ChatHub) BroadcastToRoom(chatID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[chatID]
	if !ok {
		return
	}

	b, err := json.Marshal(event)
	if err != nil {
		slog.Error("chat hub marshal failed", "error", err)
		return
	}

	for userID := range users {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(b)
			}
		}
	}
}

// IsUserOnline reports whether the user holds at least one open connection.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// ActiveUsers returns the userIDs currently viewing a chat.
func (h *ChatHub) ActiveUsers(chatID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[chatID]
	if !ok {
		return []uint{}
	}
	out := make([]uint, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	return out
}

// StartWiring connects the hub to Redis pub/sub so events published on one
// server instance reach clients connected to another.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		var chatID uint
		var eventType string

		if _, err := fmt.Sscanf(channel, "chat:room:%d", &chatID); err == nil {
			eventType = "message"
		} else if _, err := fmt.Sscanf(channel, "typing:room:%d", &chatID); err == nil {
			eventType = "typing"
		} else if _, err := fmt.Sscanf(channel, "read:room:%d", &chatID); err == nil {
			eventType = "read"
		} else {
			slog.Warn("chat hub: unrecognized channel", "channel", channel)
			return
		}

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			slog.Warn("chat hub: bad payload", "channel", channel, "error", err)
			return
		}
		if event.Type == "" {
			event.Type = eventType
		}
		event.ChatID = chatID

		h.BroadcastToRoom(chatID, event)
	})
}

// Shutdown closes every websocket connection and clears hub state.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown"}`)); err != nil {
				slog.Warn("shutdown write failed", "user_id", userID, "error", err)
			}
			if err := client.Conn.Close(); err != nil {
				slog.Warn("shutdown close failed", "user_id", userID, "error", err)
			}
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)
	return nil
}
