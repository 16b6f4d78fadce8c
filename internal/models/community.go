package models

import "time"

// Community represents a named community that users join and post into.
type Community struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Thumbnail       string    `json:"thumbnail"`
	CreatedByUserID uint      `gorm:"not null;index" json:"created_by_user_id"`
	CreatedByUser   *User     `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// MembersCount and Joined are computed at query time.
	MembersCount int  `gorm:"-" json:"members_count,omitempty"`
	Joined       bool `gorm:"-" json:"joined,omitempty"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityMembershipRole defines a member's role in a community.
type CommunityMembershipRole string

const (
	// CommunityRoleAdmin is the community admin role.
	CommunityRoleAdmin CommunityMembershipRole = "admin"
	// CommunityRoleModerator is the community moderator role.
	CommunityRoleModerator CommunityMembershipRole = "moderator"
	// CommunityRoleMember is the default member role.
	CommunityRoleMember CommunityMembershipRole = "member"
)

// CommunityMembership maps users to communities and tracks role. It is the
// single source of truth for membership; member sets are derived by query.
type CommunityMembership struct {
	CommunityID uint                    `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	Community   *Community              `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID      uint                    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        CommunityMembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt   time.Time               `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (CommunityMembership) TableName() string {
	return "community_memberships"
}
