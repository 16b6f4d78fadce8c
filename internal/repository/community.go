package repository

import (
	"context"

	"commune/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines the interface for community data operations.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]*models.Community, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error

	Join(ctx context.Context, communityID, userID uint, role models.CommunityMembershipRole) error
	Leave(ctx context.Context, communityID, userID uint) error
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	MemberRole(ctx context.Context, communityID, userID uint) (models.CommunityMembershipRole, error)
	MemberCount(ctx context.Context, communityID uint) (int64, error)
	Members(ctx context.Context, communityID uint, limit, offset int) ([]*models.User, error)
	JoinedCommunityIDs(ctx context.Context, userID uint) ([]uint, error)
	JoinedCommunities(ctx context.Context, userID uint) ([]*models.Community, error)
	CreatedCommunities(ctx context.Context, userID uint) ([]*models.Community, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

// GetByName matches the community name case-insensitively, so "Gaming" and
// "gaming" resolve to the same community.
func (r *communityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ?", "%"+query+"%", "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Save(community).Error
}

// Delete removes the community along with its memberships.
func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).
			Delete(&models.CommunityMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Community{}, id).Error
	})
}

func (r *communityRepository) Join(ctx context.Context, communityID, userID uint, role models.CommunityMembershipRole) error {
	membership := models.CommunityMembership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error
}

func (r *communityRepository) Leave(ctx context.Context, communityID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMembership{}).Error
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) MemberRole(ctx context.Context, communityID, userID uint) (models.CommunityMembershipRole, error) {
	var membership models.CommunityMembership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		return "", err
	}
	return membership.Role, nil
}

func (r *communityRepository) MemberCount(ctx context.Context, communityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMembership{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

func (r *communityRepository) Members(ctx context.Context, communityID uint, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN community_memberships ON community_memberships.user_id = users.id").
		Where("community_memberships.community_id = ?", communityID).
		Order("users.name ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *communityRepository) JoinedCommunityIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.CommunityMembership{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}

func (r *communityRepository) JoinedCommunities(ctx context.Context, userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Joins("JOIN community_memberships ON community_memberships.community_id = communities.id").
		Where("community_memberships.user_id = ?", userID).
		Order("communities.name ASC").
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) CreatedCommunities(ctx context.Context, userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Where("created_by_user_id = ?", userID).
		Order("created_at DESC").
		Find(&communities).Error
	return communities, err
}
