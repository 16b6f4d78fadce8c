package service

import (
	"context"
	"strings"

	"commune/internal/models"
	"commune/internal/repository"
)

// CommunityService manages communities and their memberships.
type CommunityService struct {
	communityRepo repository.CommunityRepository
}

// CreateCommunityInput carries a new community request.
type CreateCommunityInput struct {
	UserID      uint
	Name        string
	Description string
	Thumbnail   string
}

// UpdateCommunityInput carries edits to an existing community.
type UpdateCommunityInput struct {
	UserID      uint
	CommunityID uint
	Description string
	Thumbnail   string
}

// MembershipResult reports the outcome of a membership toggle.
type MembershipResult struct {
	Joined       bool `json:"joined"`
	MembersCount int  `json:"members_count"`
}

// NewCommunityService creates a new community service.
func NewCommunityService(communityRepo repository.CommunityRepository) *CommunityService {
	return &CommunityService{communityRepo: communityRepo}
}

// CreateCommunity creates a community and enrolls the creator as its admin.
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if len(name) > 150 {
		return nil, models.NewValidationError("Name too long (max 150 characters)")
	}

	if _, err := s.communityRepo.GetByName(ctx, name); err == nil {
		return nil, models.NewAlreadyExistsError("A community with this name already exists")
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	community := &models.Community{
		Name:            name,
		Description:     in.Description,
		Thumbnail:       in.Thumbnail,
		CreatedByUserID: in.UserID,
	}
	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}
	if err := s.communityRepo.Join(ctx, community.ID, in.UserID, models.CommunityRoleAdmin); err != nil {
		return nil, err
	}

	community.MembersCount = 1
	community.Joined = true
	return community, nil
}

// GetCommunity returns a community with its member count and the viewer's
// membership state.
func (s *CommunityService) GetCommunity(ctx context.Context, id, viewerID uint) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("community", id)
		}
		return nil, err
	}
	if err := s.enrich(ctx, viewerID, community); err != nil {
		return nil, err
	}
	return community, nil
}

// ListCommunities returns communities newest first.
func (s *CommunityService) ListCommunities(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Community, error) {
	if limit <= 0 {
		limit = 20
	}
	communities, err := s.communityRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		if err := s.enrich(ctx, viewerID, c); err != nil {
			return nil, err
		}
	}
	return communities, nil
}

// Discover returns communities the viewer has not joined yet, largest first.
func (s *CommunityService) Discover(ctx context.Context, viewerID uint, limit int) ([]*models.Community, error) {
	if limit <= 0 {
		limit = 20
	}
	communities, err := s.communityRepo.List(ctx, 200, 0)
	if err != nil {
		return nil, err
	}

	joined := map[uint]struct{}{}
	if viewerID != 0 {
		ids, err := s.communityRepo.JoinedCommunityIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			joined[id] = struct{}{}
		}
	}

	out := make([]*models.Community, 0, limit)
	for _, c := range communities {
		if _, ok := joined[c.ID]; ok {
			continue
		}
		if err := s.enrich(ctx, viewerID, c); err != nil {
			return nil, err
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// JoinedCommunities lists the communities a user belongs to, with counts and
// the viewer's own membership state attached.
func (s *CommunityService) JoinedCommunities(ctx context.Context, userID, viewerID uint) ([]*models.Community, error) {
	communities, err := s.communityRepo.JoinedCommunities(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		if err := s.enrich(ctx, viewerID, c); err != nil {
			return nil, err
		}
	}
	return communities, nil
}

// CreatedCommunities lists the communities a user created, newest first.
func (s *CommunityService) CreatedCommunities(ctx context.Context, userID, viewerID uint) ([]*models.Community, error) {
	communities, err := s.communityRepo.CreatedCommunities(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		if err := s.enrich(ctx, viewerID, c); err != nil {
			return nil, err
		}
	}
	return communities, nil
}

// SearchCommunities searches by name or description.
func (s *CommunityService) SearchCommunities(ctx context.Context, viewerID uint, query string, limit, offset int) ([]*models.Community, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	communities, err := s.communityRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		if err := s.enrich(ctx, viewerID, c); err != nil {
			return nil, err
		}
	}
	return communities, nil
}

// UpdateCommunity edits a community. Only its admins may edit.
func (s *CommunityService) UpdateCommunity(ctx context.Context, in UpdateCommunityInput) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("community", in.CommunityID)
		}
		return nil, err
	}

	if err := s.requireAdmin(ctx, in.CommunityID, in.UserID); err != nil {
		return nil, err
	}

	if in.Description != "" {
		community.Description = in.Description
	}
	if in.Thumbnail != "" {
		community.Thumbnail = in.Thumbnail
	}
	if err := s.communityRepo.Update(ctx, community); err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, in.UserID, community); err != nil {
		return nil, err
	}
	return community, nil
}

// DeleteCommunity removes a community and its memberships. Only its admins
// may delete.
func (s *CommunityService) DeleteCommunity(ctx context.Context, communityID, userID uint) error {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError("community", communityID)
		}
		return err
	}
	if err := s.requireAdmin(ctx, communityID, userID); err != nil {
		return err
	}
	return s.communityRepo.Delete(ctx, communityID)
}

// ToggleMembership joins the user to the community, or leaves it when
// already a member. The admin who created the community cannot leave while
// holding the admin role.
func (s *CommunityService) ToggleMembership(ctx context.Context, communityID, userID uint) (*MembershipResult, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("community", communityID)
		}
		return nil, err
	}

	member, err := s.communityRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	if member {
		role, err := s.communityRepo.MemberRole(ctx, communityID, userID)
		if err != nil {
			return nil, err
		}
		if role == models.CommunityRoleAdmin {
			return nil, models.NewForbiddenError("Community admins cannot leave their community")
		}
		if err := s.communityRepo.Leave(ctx, communityID, userID); err != nil {
			return nil, err
		}
	} else {
		if err := s.communityRepo.Join(ctx, communityID, userID, models.CommunityRoleMember); err != nil {
			return nil, err
		}
	}

	count, err := s.communityRepo.MemberCount(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return &MembershipResult{Joined: !member, MembersCount: int(count)}, nil
}

// Members lists a community's members.
func (s *CommunityService) Members(ctx context.Context, communityID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("community", communityID)
		}
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.communityRepo.Members(ctx, communityID, limit, offset)
}

func (s *CommunityService) requireAdmin(ctx context.Context, communityID, userID uint) error {
	role, err := s.communityRepo.MemberRole(ctx, communityID, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewForbiddenError("Only community admins can do this")
		}
		return err
	}
	if role != models.CommunityRoleAdmin {
		return models.NewForbiddenError("Only community admins can do this")
	}
	return nil
}

func (s *CommunityService) enrich(ctx context.Context, viewerID uint, community *models.Community) error {
	count, err := s.communityRepo.MemberCount(ctx, community.ID)
	if err != nil {
		return err
	}
	community.MembersCount = int(count)

	if viewerID != 0 {
		joined, err := s.communityRepo.IsMember(ctx, community.ID, viewerID)
		if err != nil {
			return err
		}
		community.Joined = joined
	}
	return nil
}
