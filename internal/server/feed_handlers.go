package server

import (
	"commune/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetLatestFeed returns active posts newest first
func (s *Server) GetLatestFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	p := parsePagination(c, 20)

	posts, err := s.feedService.Latest(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}

// GetPopularFeed returns posts ranked by engagement score over two weeks
func (s *Server) GetPopularFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	p := parsePagination(c, 20)

	posts, err := s.feedService.Popular(ctx, userID, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}

// GetTrendingFeed returns posts ranked by engagement velocity over 48 hours
func (s *Server) GetTrendingFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	p := parsePagination(c, 20)

	posts, err := s.feedService.Trending(ctx, userID, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}

// GetStreamFeed returns posts from joined communities and followed authors
func (s *Server) GetStreamFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	posts, err := s.feedService.Stream(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(posts)
}
