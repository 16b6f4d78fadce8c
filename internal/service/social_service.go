package service

import (
	"context"

	"commune/internal/models"
	"commune/internal/repository"
)

// SocialService manages the follow and block graphs between users.
type SocialService struct {
	userRepo repository.UserRepository
}

// FollowResult reports the outcome of a follow toggle.
type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}

// BlockResult reports the outcome of a block toggle.
type BlockResult struct {
	Blocked bool `json:"blocked"`
}

// NewSocialService creates a new social service.
func NewSocialService(userRepo repository.UserRepository) *SocialService {
	return &SocialService{userRepo: userRepo}
}

// ToggleFollow follows the target, or unfollows when already following.
// Blocked pairs cannot follow each other.
func (s *SocialService) ToggleFollow(ctx context.Context, userID, targetID uint) (*FollowResult, error) {
	if userID == targetID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	if err := s.requireActiveUser(ctx, targetID); err != nil {
		return nil, err
	}

	if blocked, err := s.eitherBlocked(ctx, userID, targetID); err != nil {
		return nil, err
	} else if blocked {
		return nil, models.NewForbiddenError("Cannot follow this user")
	}

	following, err := s.userRepo.IsFollowing(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if following {
		err = s.userRepo.Unfollow(ctx, userID, targetID)
	} else {
		err = s.userRepo.Follow(ctx, userID, targetID)
	}
	if err != nil {
		return nil, err
	}

	followers, _, err := s.userRepo.FollowCounts(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Following: !following, FollowersCount: int(followers)}, nil
}

// ToggleBlock blocks the target, or unblocks when already blocked. Blocking
// severs any follow relationship in both directions.
func (s *SocialService) ToggleBlock(ctx context.Context, userID, targetID uint) (*BlockResult, error) {
	if userID == targetID {
		return nil, models.NewValidationError("Cannot block yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", targetID)
		}
		return nil, err
	}

	blocked, err := s.userRepo.IsBlocked(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if blocked {
		err = s.userRepo.Unblock(ctx, userID, targetID)
	} else {
		err = s.userRepo.Block(ctx, userID, targetID)
	}
	if err != nil {
		return nil, err
	}
	return &BlockResult{Blocked: !blocked}, nil
}

// Followers lists the users following the given user.
func (s *SocialService) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.userRepo.Followers(ctx, userID)
}

// Following lists the users the given user follows.
func (s *SocialService) Following(ctx context.Context, userID uint) ([]*models.User, error) {
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.userRepo.Following(ctx, userID)
}

// BlockedUsers lists the users blocked by the given user.
func (s *SocialService) BlockedUsers(ctx context.Context, userID uint) ([]*models.User, error) {
	return s.userRepo.BlockedUsers(ctx, userID)
}

func (s *SocialService) requireActiveUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError("user", userID)
		}
		return err
	}
	if !user.IsActive {
		return models.NewNotFoundError("user", userID)
	}
	return nil
}

func (s *SocialService) eitherBlocked(ctx context.Context, a, b uint) (bool, error) {
	blocked, err := s.userRepo.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return s.userRepo.IsBlocked(ctx, b, a)
}
