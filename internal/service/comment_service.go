package service

import (
	"context"
	"strings"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"
)

// CommentService manages comments and their one level of threading.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

// CreateCommentInput carries a new comment.
type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	Text     string
	ParentID *uint
}

// UpdateCommentInput carries edits to an existing comment.
type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Text      string
}

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		isAdmin:     isAdmin,
	}
}

// CreateComment stores a comment and refreshes the post's comment counter
// from live rows. Replies may only target top-level comments.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const maxCommentLen = 5000

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 5000 characters)")
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

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, models.NewNotFoundError("comment", *in.ParentID)
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			return nil, models.NewValidationError("Replies to replies are not allowed")
		}
	}

	comment := &models.Comment{
		PostID:    in.PostID,
		UserID:    in.UserID,
		Text:      text,
		ParentID:  in.ParentID,
		IsVisible: true,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidatePost(ctx, post.ID)
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns a post's visible comments with replies nested.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

// UpdateComment edits a comment. Only the author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("comment", in.CommentID)
		}
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit a comment")
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	comment.Text = text

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment and its replies, then refreshes the post's
// comment counter. The author or a site admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError("comment", commentID)
		}
		return err
	}

	if comment.UserID != userID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, userID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("Only the author or an admin can delete a comment")
		}
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	s.invalidatePost(ctx, comment.PostID)
	return nil
}

func (s *CommentService) invalidatePost(ctx context.Context, postID uint) {
	cache.Invalidate(ctx, cache.PostKey(postID))
	cache.InvalidateFeeds(ctx)
}
