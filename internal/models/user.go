// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user account in Commune.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Email      string         `gorm:"unique;not null" json:"email"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Password   string         `gorm:"not null" json:"-"`
	Bio        string         `gorm:"type:text" json:"bio"`
	ProfilePic string         `json:"profile_pic"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	IsAdmin    bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// FollowersCount and FollowingCount are computed at query time.
	FollowersCount int `gorm:"-" json:"followers_count,omitempty"`
	FollowingCount int `gorm:"-" json:"following_count,omitempty"`
}

// Follow is a directed follow edge between two users.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false" json:"followee_id"`
	Follower   *User     `gorm:"foreignKey:FollowerID" json:"-"`
	Followee   *User     `gorm:"foreignKey:FolloweeID" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Follow) TableName() string {
	return "follows"
}

// Block is a directed block edge between two users. Creating one removes any
// follow relationship in both directions.
type Block struct {
	BlockerID uint      `gorm:"primaryKey;autoIncrement:false" json:"blocker_id"`
	BlockedID uint      `gorm:"primaryKey;autoIncrement:false" json:"blocked_id"`
	Blocker   *User     `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked   *User     `gorm:"foreignKey:BlockedID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Block) TableName() string {
	return "blocks"
}
