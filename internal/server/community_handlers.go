package server

import (
	"commune/internal/models"
	"commune/internal/service"
	"commune/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity creates a community; the creator is auto-joined as admin
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Thumbnail   string `json:"thumbnail"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateCommunityName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	community, err := s.communityService.CreateCommunity(ctx, service.CreateCommunityInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunities lists communities with member counts (public)
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	// Viewer may be anonymous on this public route
	viewerID := uint(0)
	if v, ok := c.Locals("userID").(uint); ok {
		viewerID = v
	}

	communities, err := s.communityService.ListCommunities(ctx, viewerID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// SearchCommunities searches communities by name fragment (public)
func (s *Server) SearchCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	viewerID := uint(0)
	if v, ok := c.Locals("userID").(uint); ok {
		viewerID = v
	}

	communities, err := s.communityService.SearchCommunities(ctx, viewerID, query, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// DiscoverCommunities lists communities the viewer has not joined
func (s *Server) DiscoverCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	p := parsePagination(c, 20)

	communities, err := s.communityService.Discover(ctx, userID, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// GetJoinedCommunities lists the communities the viewer belongs to
func (s *Server) GetJoinedCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communities, err := s.communityService.JoinedCommunities(ctx, userID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// GetCreatedCommunities lists the communities the viewer created
func (s *Server) GetCreatedCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communities, err := s.communityService.CreatedCommunities(ctx, userID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// GetUserCommunities lists the communities another user belongs to
func (s *Server) GetUserCommunities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewerID := currentUserID(c)

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	communities, err := s.communityService.JoinedCommunities(ctx, targetID, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(communities)
}

// GetCommunity returns a community with joined flag and member count
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	community, err := s.communityService.GetCommunity(ctx, communityID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(community)
}

// UpdateCommunity updates a community (community admin only)
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Description string `json:"description"`
		Thumbnail   string `json:"thumbnail"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.UpdateCommunity(ctx, service.UpdateCommunityInput{
		UserID:      userID,
		CommunityID: communityID,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(community)
}

// DeleteCommunity deletes a community and its memberships (community admin only)
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.DeleteCommunity(ctx, communityID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Community deleted",
	})
}

// ToggleMembership joins or leaves a community
func (s *Server) ToggleMembership(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.communityService.ToggleMembership(ctx, communityID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(result)
}

// GetCommunityMembers lists a community's members
func (s *Server) GetCommunityMembers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.communityService.Members(ctx, communityID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(members)
}

// GetCommunityPosts returns a community's active posts
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListByCommunity(ctx, communityID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}
