package repository

import (
	"context"
	"time"

	"commune/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	GetByCommunityID(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error)
	ListLatest(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.Post, error)
	ListStream(ctx context.Context, communityIDs, authorIDs []uint, limit int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error

	ReactedPostIDs(ctx context.Context, userID uint, postIDs []uint, kind models.ReactionKind) ([]uint, error)
	EngagementSince(ctx context.Context, postIDs []uint, since time.Time) (map[uint]int, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Community").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.activePosts(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) GetByCommunityID(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.activePosts(ctx).
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListLatest returns active posts in reverse chronological order.
func (r *postRepository) ListLatest(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.activePosts(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListSince returns active posts created at or after the cutoff. Used by the
// ranked feeds, which score and sort in the service layer.
func (r *postRepository) ListSince(ctx context.Context, since time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.activePosts(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// ListStream returns active posts from the given communities or authors,
// newest first, capped at limit.
func (r *postRepository) ListStream(ctx context.Context, communityIDs, authorIDs []uint, limit int) ([]*models.Post, error) {
	if len(communityIDs) == 0 && len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}

	q := r.activePosts(ctx)
	switch {
	case len(communityIDs) > 0 && len(authorIDs) > 0:
		q = q.Where("community_id IN ? OR user_id IN ?", communityIDs, authorIDs)
	case len(communityIDs) > 0:
		q = q.Where("community_id IN ?", communityIDs)
	default:
		q = q.Where("user_id IN ?", authorIDs)
	}

	var posts []*models.Post
	err := q.Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes the post and its reactions and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// ReactedPostIDs returns the subset of postIDs the user has reacted to with
// the given kind.
func (r *postRepository) ReactedPostIDs(ctx context.Context, userID uint, postIDs []uint, kind models.ReactionKind) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("user_id = ? AND kind = ? AND post_id IN ?", userID, kind, postIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}

// EngagementSince returns, per post, the number of likes plus comments
// created at or after the cutoff.
func (r *postRepository) EngagementSince(ctx context.Context, postIDs []uint, since time.Time) (map[uint]int, error) {
	engagement := make(map[uint]int, len(postIDs))
	if len(postIDs) == 0 {
		return engagement, nil
	}

	type row struct {
		PostID uint
		N      int
	}

	var likes []row
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("post_id, COUNT(*) as n").
		Where("post_id IN ? AND kind = ? AND created_at >= ?", postIDs, models.ReactionLike, since).
		Group("post_id").
		Scan(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, l := range likes {
		engagement[l.PostID] += l.N
	}

	var comments []row
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as n").
		Where("post_id IN ? AND is_visible = ? AND created_at >= ?", postIDs, true, since).
		Group("post_id").
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		engagement[c.PostID] += c.N
	}

	return engagement, nil
}

func (r *postRepository) activePosts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Community").
		Where("status = ?", models.PostStatusActive)
}
