package server

import (
	"commune/internal/models"
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the authenticated user's profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	user, err := s.userService.GetUser(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile updates the authenticated user's profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		Name       string `json:"name"`
		Bio        string `json:"bio"`
		ProfilePic string `json:"profile_pic"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:     userID,
		Name:       req.Name,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}

// GetUserProfile returns another user's profile with follow counts
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}

// SearchUsers searches active users by name or email fragment
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	users, err := s.userService.SearchUsers(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(users)
}

// GetUserPosts returns a user's posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListByUser(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}

// ToggleFollow follows or unfollows the target user
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.socialService.ToggleFollow(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(result)
}

// ToggleBlock blocks or unblocks the target user
func (s *Server) ToggleBlock(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.socialService.ToggleBlock(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(result)
}

// GetFollowers returns the users following the given user
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.socialService.Followers(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(users)
}

// GetFollowing returns the users the given user follows
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.socialService.Following(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(users)
}

// GetBlockedUsers returns the authenticated user's block list
func (s *Server) GetBlockedUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	users, err := s.socialService.BlockedUsers(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(users)
}

// PromoteToAdmin grants admin privileges to a user (admin only)
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(ctx, targetID, true)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}

// DemoteFromAdmin revokes admin privileges from a user (admin only)
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(ctx, targetID, false)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}
