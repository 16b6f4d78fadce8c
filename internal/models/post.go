package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus defines the moderation state of a post.
type PostStatus string

const (
	// PostStatusActive indicates a post is visible in feeds.
	PostStatusActive PostStatus = "active"
	// PostStatusHidden indicates a post is hidden by moderation.
	PostStatusHidden PostStatus = "hidden"
)

// MediaType classifies an attached media reference.
type MediaType string

const (
	// MediaTypeImage marks image attachments.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo marks video attachments.
	MediaTypeVideo MediaType = "video"
	// MediaTypeNone marks posts without media.
	MediaTypeNone MediaType = "none"
)

// Post represents a post in Commune, optionally attached to a community.
//
// LikesCount, DislikesCount and CommentsCount are denormalized and always
// recomputed from live rows inside the mutating transaction, never
// incremented blindly, so concurrent toggles cannot make them drift.
type Post struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:255" json:"title"`
	Caption       string         `gorm:"type:text" json:"caption"`
	MediaURL      string         `json:"media_url"`
	MediaType     MediaType      `gorm:"type:varchar(20);not null;default:'none'" json:"media_type"`
	CommunityID   *uint          `gorm:"index" json:"community_id,omitempty"`
	Community     *Community     `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"user"`
	LikesCount    int            `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int            `gorm:"not null;default:0" json:"dislikes_count"`
	CommentsCount int            `gorm:"not null;default:0" json:"comments_count"`
	Status        PostStatus     `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Per-viewer reaction state, filled in by the service layer.
	Liked    bool `gorm:"-" json:"liked"`
	Disliked bool `gorm:"-" json:"disliked"`

	// Popular ranking score, attached only by the popular feed.
	PopularScore int `gorm:"-" json:"popular_score,omitempty"`

	// Trending metadata, attached only by the trending feed.
	TrendingScore      float64 `gorm:"-" json:"trending_score,omitempty"`
	TrendingEngagement int     `gorm:"-" json:"trending_engagement,omitempty"`
	HoursSince         float64 `gorm:"-" json:"hours_since,omitempty"`
}
