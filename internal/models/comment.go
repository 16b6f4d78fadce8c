package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. ParentID supports one level of
// threading; replies to replies are rejected at the service layer.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	Post      *Post          `gorm:"foreignKey:PostID" json:"post,omitempty"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`
	IsVisible bool           `gorm:"not null;default:true" json:"is_visible"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Replies is populated for top-level listings.
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}
