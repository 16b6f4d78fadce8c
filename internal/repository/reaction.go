package repository

import (
	"context"
	"errors"

	"commune/internal/models"

	"gorm.io/gorm"
)

// ToggleOutcome describes the post's reaction state after a toggle.
type ToggleOutcome struct {
	Liked         bool
	Disliked      bool
	LikesCount    int
	DislikesCount int
	// Added is true when the toggle created the requested reaction,
	// false when it removed an existing one.
	Added bool
}

// ReactionRepository defines the interface for reaction data operations.
type ReactionRepository interface {
	Toggle(ctx context.Context, userID, postID uint, kind models.ReactionKind) (*ToggleOutcome, error)
	HasReaction(ctx context.Context, userID, postID uint, kind models.ReactionKind) (bool, error)
	Counts(ctx context.Context, postID uint) (likes int64, dislikes int64, err error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Toggle flips the user's reaction of the given kind on the post. The whole
// operation runs in one transaction: any opposite-kind reaction is removed
// first, then the requested kind is created or deleted, and finally both
// counters are recomputed from the surviving rows and persisted on the post.
func (r *reactionRepository) Toggle(ctx context.Context, userID, postID uint, kind models.ReactionKind) (*ToggleOutcome, error) {
	var outcome ToggleOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return err
		}

		// Drop the opposite kind so a user never holds both at once.
		if err := tx.Where("user_id = ? AND post_id = ? AND kind = ?",
			userID, postID, kind.Opposite()).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		var existing models.Reaction
		err := tx.Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			outcome.Added = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction := models.Reaction{UserID: userID, PostID: postID, Kind: kind}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
			outcome.Added = true
		default:
			return err
		}

		var likes, dislikes int64
		if err := tx.Model(&models.Reaction{}).
			Where("post_id = ? AND kind = ?", postID, models.ReactionLike).
			Count(&likes).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Reaction{}).
			Where("post_id = ? AND kind = ?", postID, models.ReactionDislike).
			Count(&dislikes).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Updates(map[string]interface{}{
				"likes_count":    likes,
				"dislikes_count": dislikes,
			}).Error; err != nil {
			return err
		}

		outcome.LikesCount = int(likes)
		outcome.DislikesCount = int(dislikes)
		if kind == models.ReactionLike {
			outcome.Liked = outcome.Added
			outcome.Disliked = false
		} else {
			outcome.Disliked = outcome.Added
			outcome.Liked = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *reactionRepository) HasReaction(ctx context.Context, userID, postID uint, kind models.ReactionKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *reactionRepository) Counts(ctx context.Context, postID uint) (int64, int64, error) {
	var likes, dislikes int64
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionLike).
		Count(&likes).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionDislike).
		Count(&dislikes).Error
	return likes, dislikes, err
}
