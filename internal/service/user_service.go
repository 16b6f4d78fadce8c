package service

import (
	"context"
	"strings"

	"commune/internal/models"
	"commune/internal/repository"
)

// UserService manages user profiles.
type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries profile edits.
type UpdateProfileInput struct {
	UserID     uint
	Name       string
	Bio        string
	ProfilePic string
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUser returns a user with follower and following counts attached.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", id)
		}
		return nil, err
	}

	followers, following, err := s.userRepo.FollowCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FollowersCount = int(followers)
	user.FollowingCount = int(following)
	return user, nil
}

// SearchUsers searches active users by name or email.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// UpdateProfile edits the user's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", in.UserID)
		}
		return nil, err
	}

	const maxNameLen = 150
	const maxBioLen = 500

	if in.Name != "" {
		if len(in.Name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 150 characters)")
		}
		user.Name = in.Name
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.ProfilePic != "" {
		user.ProfilePic = in.ProfilePic
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAdmin grants or revokes site admin.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", targetID)
		}
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsAdmin reports whether the user is a site admin.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}
