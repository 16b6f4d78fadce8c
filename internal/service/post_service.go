package service

import (
	"context"
	"net/url"
	"path"
	"strings"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"
)

// PostService manages posts.
type PostService struct {
	postRepo      repository.PostRepository
	communityRepo repository.CommunityRepository
	isAdmin       func(ctx context.Context, userID uint) (bool, error)
}

// CreatePostInput carries a new post.
type CreatePostInput struct {
	UserID      uint
	Title       string
	Caption     string
	MediaURL    string
	CommunityID *uint
}

// UpdatePostInput carries edits to an existing post.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Title    string
	Caption  string
	MediaURL string
}

// NewPostService creates a new post service.
func NewPostService(
	postRepo repository.PostRepository,
	communityRepo repository.CommunityRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		communityRepo: communityRepo,
		isAdmin:       isAdmin,
	}
}

// CreatePost validates and stores a post. Community posts require the author
// to be a member of the community.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const maxTitleLen = 255
	const maxCaptionLen = 10000

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 255 characters)")
	}
	if len(in.Caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption too long (max 10000 characters)")
	}
	if in.MediaURL != "" {
		if _, err := url.ParseRequestURI(in.MediaURL); err != nil {
			return nil, models.NewValidationError("media_url must be a valid URL")
		}
	}

	if in.CommunityID != nil {
		if _, err := s.communityRepo.GetByID(ctx, *in.CommunityID); err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, models.NewNotFoundError("community", *in.CommunityID)
			}
			return nil, err
		}
		member, err := s.communityRepo.IsMember(ctx, *in.CommunityID, in.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewForbiddenError("Join the community before posting to it")
		}
	}

	post := &models.Post{
		Title:       title,
		Caption:     in.Caption,
		MediaURL:    in.MediaURL,
		MediaType:   inferMediaType(in.MediaURL),
		CommunityID: in.CommunityID,
		UserID:      in.UserID,
		Status:      models.PostStatusActive,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	cache.InvalidateFeeds(ctx)
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a post with the viewer's reaction state attached.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, err
	}
	if post.Status != models.PostStatusActive {
		if admin, aerr := s.isAdminUser(ctx, viewerID); aerr != nil || !admin {
			if aerr != nil {
				return nil, aerr
			}
			return nil, models.NewNotFoundError("post", postID)
		}
	}

	if viewerID != 0 {
		liked, err := s.postRepo.ReactedPostIDs(ctx, viewerID, []uint{post.ID}, models.ReactionLike)
		if err != nil {
			return nil, err
		}
		disliked, err := s.postRepo.ReactedPostIDs(ctx, viewerID, []uint{post.ID}, models.ReactionDislike)
		if err != nil {
			return nil, err
		}
		post.Liked = len(liked) > 0
		post.Disliked = len(disliked) > 0
	}
	return post, nil
}

// ListByUser returns a user's active posts newest first.
func (s *PostService) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}
	return s.postRepo.GetByUserID(ctx, userID, limit, offset)
}

// ListByCommunity returns a community's active posts newest first.
func (s *PostService) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("community", communityID)
		}
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}
	return s.postRepo.GetByCommunityID(ctx, communityID, limit, offset)
}

// UpdatePost edits a post. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("post", in.PostID)
		}
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit a post")
	}

	if in.Title != "" {
		post.Title = strings.TrimSpace(in.Title)
	}
	if in.Caption != "" {
		post.Caption = in.Caption
	}
	if in.MediaURL != "" {
		if _, err := url.ParseRequestURI(in.MediaURL); err != nil {
			return nil, models.NewValidationError("media_url must be a valid URL")
		}
		post.MediaURL = in.MediaURL
		post.MediaType = inferMediaType(in.MediaURL)
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.PostKey(post.ID))
	cache.InvalidateFeeds(ctx)
	return post, nil
}

// DeletePost removes a post with its reactions and comments. The author or a
// site admin may delete.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError("post", postID)
		}
		return err
	}

	if post.UserID != userID {
		admin, err := s.isAdminUser(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("Only the author or an admin can delete a post")
		}
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.PostKey(postID))
	cache.InvalidateFeeds(ctx)
	return nil
}

func (s *PostService) isAdminUser(ctx context.Context, userID uint) (bool, error) {
	if s.isAdmin == nil || userID == 0 {
		return false, nil
	}
	return s.isAdmin(ctx, userID)
}

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".webm": {}, ".mov": {}, ".avi": {},
	}
)

// inferMediaType classifies a media URL by file extension.
func inferMediaType(mediaURL string) models.MediaType {
	if mediaURL == "" {
		return models.MediaTypeNone
	}
	ext := strings.ToLower(path.Ext(mediaURL))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	if _, ok := imageExtensions[ext]; ok {
		return models.MediaTypeImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return models.MediaTypeVideo
	}
	return models.MediaTypeNone
}
