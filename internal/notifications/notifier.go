// Package notifications provides real-time delivery of chat events over
// Redis pub/sub and WebSockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes chat events into Redis channels. All methods are
// best-effort no-ops when Redis is unavailable.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier backed by the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishChatMessage publishes a chat message payload to a chat's channel.
func (n *Notifier) PublishChatMessage(ctx context.Context, chatID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, ChatChannel(chatID), payload).Err()
}

// PublishTyping publishes a typing indicator for a chat. expires_in_ms tells
// clients how long the indicator stays valid without a refresh.
func (n *Notifier) PublishTyping(ctx context.Context, chatID, userID uint, name string, isTyping bool) error {
	if n.rdb == nil {
		return nil
	}
	payload := map[string]interface{}{
		"user_id":       userID,
		"name":          name,
		"is_typing":     isTyping,
		"expires_in_ms": 5000,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, TypingChannel(chatID), string(b)).Err()
}

// PublishRead publishes a read receipt event for a chat.
func (n *Notifier) PublishRead(ctx context.Context, chatID, userID uint, marked int64) error {
	if n.rdb == nil {
		return nil
	}
	payload := map[string]interface{}{
		"user_id": userID,
		"marked":  marked,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, ReadChannel(chatID), string(b)).Err()
}

// StartChatSubscriber subscribes to chat:*, typing:* and read:* patterns and
// calls onMessage for each incoming message. The goroutine exits when ctx is
// cancelled.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:room:*", "typing:room:*", "read:room:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in chat subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// ChatChannel derives the Redis channel name for a chat's messages.
func ChatChannel(chatID uint) string {
	return "chat:room:" + strconv.FormatUint(uint64(chatID), 10)
}

// TypingChannel derives the Redis channel name for a chat's typing events.
func TypingChannel(chatID uint) string {
	return "typing:room:" + strconv.FormatUint(uint64(chatID), 10)
}

// ReadChannel derives the Redis channel name for a chat's read receipts.
func ReadChannel(chatID uint) string {
	return "read:room:" + strconv.FormatUint(uint64(chatID), 10)
}
