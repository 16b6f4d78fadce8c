// Package service contains the application's business logic.
package service

import (
	"context"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/observability"
	"commune/internal/repository"
)

// ReactionService toggles likes and dislikes on posts.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	postRepo     repository.PostRepository
}

// ToggleReactionInput carries a reaction toggle request.
type ToggleReactionInput struct {
	UserID uint
	PostID uint
	Kind   models.ReactionKind
}

// ToggleReactionResult is the post's reaction state after a toggle.
type ToggleReactionResult struct {
	Message       string `json:"message"`
	LikesCount    int    `json:"likes_count"`
	DislikesCount int    `json:"dislikes_count"`
	Liked         bool   `json:"liked"`
	Disliked      bool   `json:"disliked"`
}

// NewReactionService creates a new reaction service.
func NewReactionService(reactionRepo repository.ReactionRepository, postRepo repository.PostRepository) *ReactionService {
	return &ReactionService{reactionRepo: reactionRepo, postRepo: postRepo}
}

// Toggle flips the user's reaction on a post. Toggling a kind the user
// already holds removes it; toggling the other kind switches to it. The two
// kinds are mutually exclusive.
func (s *ReactionService) Toggle(ctx context.Context, in ToggleReactionInput) (*ToggleReactionResult, error) {
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("Invalid reaction kind")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("post", in.PostID)
		}
		return nil, err
	}
	if post.Status != models.PostStatusActive {
		return nil, models.NewNotFoundError("post", in.PostID)
	}

	outcome, err := s.reactionRepo.Toggle(ctx, in.UserID, in.PostID, in.Kind)
	if err != nil {
		return nil, err
	}

	result := &ToggleReactionResult{
		LikesCount:    outcome.LikesCount,
		DislikesCount: outcome.DislikesCount,
		Liked:         outcome.Liked,
		Disliked:      outcome.Disliked,
	}
	switch {
	case in.Kind == models.ReactionLike && outcome.Added:
		result.Message = "Post liked"
	case in.Kind == models.ReactionLike:
		result.Message = "Like removed"
	case outcome.Added:
		result.Message = "Post disliked"
	default:
		result.Message = "Dislike removed"
	}

	outcomeLabel := "removed"
	if outcome.Added {
		outcomeLabel = "added"
	}
	observability.ReactionToggles.WithLabelValues(string(in.Kind), outcomeLabel).Inc()

	cache.Invalidate(ctx, cache.PostKey(in.PostID))
	cache.InvalidateFeeds(ctx)

	return result, nil
}
