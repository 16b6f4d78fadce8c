package server

import (
	"commune/internal/models"
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost creates a post, optionally inside a community (protected)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		Title       string `json:"title"`
		Caption     string `json:"caption"`
		MediaURL    string `json:"media_url"`
		CommunityID *uint  `json:"community_id"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID:      userID,
		Title:       req.Title,
		Caption:     req.Caption,
		MediaURL:    req.MediaURL,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns a single post with the viewer's reaction state
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(ctx, postID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post)
}

// UpdatePost updates a post (only owner)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string `json:"title"`
		Caption  string `json:"caption"`
		MediaURL string `json:"media_url"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:   userID,
		PostID:   postID,
		Title:    req.Title,
		Caption:  req.Caption,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post)
}

// DeletePost deletes a post (owner or admin)
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(ctx, postID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}

// LikePost toggles a like reaction on a post
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.toggleReaction(c, models.ReactionLike)
}

// DislikePost toggles a dislike reaction on a post
func (s *Server) DislikePost(c *fiber.Ctx) error {
	return s.toggleReaction(c, models.ReactionDislike)
}

func (s *Server) toggleReaction(c *fiber.Ctx, kind models.ReactionKind) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.reactionService.Toggle(ctx, service.ToggleReactionInput{
		UserID: userID,
		PostID: postID,
		Kind:   kind,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(result)
}
