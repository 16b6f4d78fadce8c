package server

import (
	"commune/internal/models"
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitReport files a moderation report against a post, comment, message or chat
func (s *Server) SubmitReport(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		TargetType string `json:"target_type"`
		TargetID   uint   `json:"target_id"`
		Reason     string `json:"reason"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.SubmitReport(ctx, service.SubmitReportInput{
		ReporterID: userID,
		TargetType: models.ReportTarget(req.TargetType),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports lists reports, optionally filtered by resolution state (admin only)
func (s *Server) GetReports(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	var resolved *bool
	switch c.Query("resolved") {
	case "true":
		v := true
		resolved = &v
	case "false":
		v := false
		resolved = &v
	}

	reports, err := s.moderationService.ListReports(ctx, resolved, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(reports)
}

// ResolveReport applies a resolution action to a report (admin only)
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.ResolveReport(ctx, service.ResolveReportInput{
		ReportID:    reportID,
		ModeratorID: userID,
		Action:      req.Action,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(report)
}
