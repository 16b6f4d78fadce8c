package models

import "time"

// ReactionKind is the kind of a reaction, like or dislike.
type ReactionKind string

const (
	// ReactionLike marks a like.
	ReactionLike ReactionKind = "like"
	// ReactionDislike marks a dislike.
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Opposite returns the other reaction kind.
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Reaction links a user to a post with a like or dislike.
// The (user, post, kind) triple is unique; the service layer additionally
// enforces that a user never holds both kinds on the same post.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post_kind" json:"user_id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post_kind;index" json:"post_id"`
	Kind      ReactionKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_reaction_user_post_kind" json:"kind"`
	User      *User        `gorm:"foreignKey:UserID" json:"-"`
	Post      *Post        `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}
