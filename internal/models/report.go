package models

import "time"

// ReportTarget identifies the kind of entity a report points at. The set of
// reportable kinds is closed and known at compile time.
type ReportTarget string

const (
	// ReportTargetPost marks a report against a post.
	ReportTargetPost ReportTarget = "post"
	// ReportTargetComment marks a report against a comment.
	ReportTargetComment ReportTarget = "comment"
	// ReportTargetMessage marks a report against a chat message.
	ReportTargetMessage ReportTarget = "message"
	// ReportTargetChat marks a report against a whole chat.
	ReportTargetChat ReportTarget = "chat"
)

// Valid reports whether t is a known report target kind.
func (t ReportTarget) Valid() bool {
	switch t {
	case ReportTargetPost, ReportTargetComment, ReportTargetMessage, ReportTargetChat:
		return true
	}
	return false
}

// Report is a user-submitted moderation report against a post, comment,
// message or chat. ReportedByName snapshots the reporter's display name so
// moderation views stay meaningful if the account is later removed.
type Report struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	TargetType     ReportTarget `gorm:"type:varchar(20);not null;uniqueIndex:idx_report_reporter_target" json:"target_type"`
	TargetID       uint         `gorm:"not null;uniqueIndex:idx_report_reporter_target" json:"target_id"`
	ReportedByID   *uint        `gorm:"uniqueIndex:idx_report_reporter_target" json:"reported_by_id"`
	ReportedBy     *User        `gorm:"foreignKey:ReportedByID" json:"reported_by,omitempty"`
	ReportedByName string       `gorm:"size:150" json:"reported_by_name"`
	Reason         string       `gorm:"type:text;not null" json:"reason"`
	Resolved       bool         `gorm:"not null;default:false" json:"resolved"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
