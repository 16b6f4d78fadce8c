package models

import "time"

// Chat represents a direct conversation between users. Chats are created
// lazily on first message intent and deleted when the last participant leaves.
type Chat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200" json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Participants []User    `gorm:"many2many:chat_participants;" json:"participants,omitempty"`
	Messages     []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`

	// UnreadCount and LastMessageAt are computed at query time.
	UnreadCount   int        `gorm:"-" json:"unread_count"`
	LastMessageAt *time.Time `gorm:"-" json:"last_message_at,omitempty"`
}

// ChatParticipant is the join table backing Chat.Participants.
type ChatParticipant struct {
	ChatID    uint      `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"joined_at"`
}

// Message represents a chat message. Soft delete clears text and media but
// keeps the row so thread ordering is preserved.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index" json:"chat_id"`
	Chat      *Chat     `gorm:"foreignKey:ChatID" json:"-"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Text      string    `gorm:"type:text" json:"text"`
	MediaURL  string    `gorm:"size:500" json:"media_url"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// TypingFreshness is how long a typing row stays valid after its last update.
const TypingFreshness = 5 * time.Second

// TypingStatus is a last-write-wins typing indicator for a (chat, user) pair.
// Rows are overwritten in place and considered expired once LastSeen falls
// outside TypingFreshness; expiry is checked at read time.
type TypingStatus struct {
	ChatID   uint      `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	LastSeen time.Time `gorm:"not null" json:"last_seen"`
}

// TableName specifies the table name for GORM.
func (TypingStatus) TableName() string {
	return "typing_statuses"
}
