package service

import (
	"context"
	"strings"

	"commune/internal/models"
	"commune/internal/observability"
	"commune/internal/repository"
)

// Moderation resolution actions.
const (
	ResolutionDeleteContent = "delete_content"
	ResolutionBlockUser     = "block_user"
	ResolutionUnblockUser   = "unblock_user"
	ResolutionDismiss       = "dismiss"
)

// ModerationService handles user reports and their resolution.
type ModerationService struct {
	reportRepo  repository.ReportRepository
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	chatRepo    repository.ChatRepository
}

// SubmitReportInput carries a new moderation report.
type SubmitReportInput struct {
	ReporterID uint
	TargetType models.ReportTarget
	TargetID   uint
	Reason     string
}

// ResolveReportInput carries a moderator's resolution decision.
type ResolveReportInput struct {
	ReportID    uint
	ModeratorID uint
	Action      string
}

// NewModerationService creates a new moderation service.
func NewModerationService(
	reportRepo repository.ReportRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	chatRepo repository.ChatRepository,
) *ModerationService {
	return &ModerationService{
		reportRepo:  reportRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		chatRepo:    chatRepo,
	}
}

// SubmitReport files a report against a post, comment, message or chat. A
// reporter can hold at most one report per target; duplicates are rejected.
func (s *ModerationService) SubmitReport(ctx context.Context, in SubmitReportInput) (*models.Report, error) {
	if !in.TargetType.Valid() {
		return nil, models.NewValidationError("Invalid report target type")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, models.NewValidationError("Reason is required")
	}

	if err := s.ensureTargetExists(ctx, in.TargetType, in.TargetID); err != nil {
		return nil, err
	}

	exists, err := s.reportRepo.Exists(ctx, in.TargetType, in.TargetID, in.ReporterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewAlreadyExistsError("You have already reported this")
	}

	reporter, err := s.userRepo.GetByID(ctx, in.ReporterID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("user", in.ReporterID)
		}
		return nil, err
	}

	report := &models.Report{
		TargetType:     in.TargetType,
		TargetID:       in.TargetID,
		ReportedByID:   &reporter.ID,
		ReportedByName: reporter.Name,
		Reason:         in.Reason,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	observability.ReportsSubmitted.WithLabelValues(string(in.TargetType)).Inc()
	return report, nil
}

// ListReports returns reports for the moderation queue, optionally filtered
// by resolution state.
func (s *ModerationService) ListReports(ctx context.Context, resolved *bool, limit, offset int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.reportRepo.List(ctx, resolved, limit, offset)
}

// ResolveReport applies a moderation action to a report's target and marks
// the report resolved. Resolving an already resolved report fails.
func (s *ModerationService) ResolveReport(ctx context.Context, in ResolveReportInput) (*models.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, in.ReportID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, models.NewNotFoundError("report", in.ReportID)
		}
		return nil, err
	}
	if report.Resolved {
		return nil, models.NewValidationError("Report is already resolved")
	}

	switch in.Action {
	case ResolutionDeleteContent:
		if err := s.deleteTarget(ctx, report.TargetType, report.TargetID); err != nil {
			return nil, err
		}
		// The content is gone, so the report goes with it.
		if err := s.reportRepo.Delete(ctx, report.ID); err != nil {
			return nil, err
		}
		report.Resolved = true
		return report, nil
	case ResolutionBlockUser:
		if err := s.setAuthorActive(ctx, report.TargetType, report.TargetID, false); err != nil {
			return nil, err
		}
	case ResolutionUnblockUser:
		if err := s.setAuthorActive(ctx, report.TargetType, report.TargetID, true); err != nil {
			return nil, err
		}
	case ResolutionDismiss:
		// No side effect, just close the report.
	default:
		return nil, models.NewValidationError("Invalid resolution action")
	}

	report.Resolved = true
	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ModerationService) ensureTargetExists(ctx context.Context, targetType models.ReportTarget, targetID uint) error {
	var err error
	switch targetType {
	case models.ReportTargetPost:
		_, err = s.postRepo.GetByID(ctx, targetID)
	case models.ReportTargetComment:
		_, err = s.commentRepo.GetByID(ctx, targetID)
	case models.ReportTargetMessage:
		_, err = s.chatRepo.GetMessage(ctx, targetID)
	case models.ReportTargetChat:
		_, err = s.chatRepo.GetChat(ctx, targetID)
	}
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return models.NewNotFoundError(string(targetType), targetID)
		}
		return err
	}
	return nil
}

// deleteTarget removes the reported content. Posts and comments are deleted
// outright with their dependents; messages keep their tombstone semantics.
// A target already gone is treated as done.
func (s *ModerationService) deleteTarget(ctx context.Context, targetType models.ReportTarget, targetID uint) error {
	var err error
	switch targetType {
	case models.ReportTargetPost:
		err = s.postRepo.Delete(ctx, targetID)
	case models.ReportTargetComment:
		err = s.commentRepo.Delete(ctx, targetID)
	case models.ReportTargetMessage:
		err = s.chatRepo.SoftDeleteMessage(ctx, targetID)
	case models.ReportTargetChat:
		err = s.chatRepo.DeleteChat(ctx, targetID)
	}
	if err != nil && repository.IsRecordNotFound(err) {
		return nil
	}
	return err
}

func (s *ModerationService) setAuthorActive(ctx context.Context, targetType models.ReportTarget, targetID uint, active bool) error {
	authorID, err := s.targetAuthor(ctx, targetType, targetID)
	if err != nil || authorID == 0 {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return err
	}
	user.IsActive = active
	return s.userRepo.Update(ctx, user)
}

func (s *ModerationService) targetAuthor(ctx context.Context, targetType models.ReportTarget, targetID uint) (uint, error) {
	switch targetType {
	case models.ReportTargetPost:
		post, err := s.postRepo.GetByID(ctx, targetID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		return post.UserID, nil
	case models.ReportTargetComment:
		comment, err := s.commentRepo.GetByID(ctx, targetID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		return comment.UserID, nil
	case models.ReportTargetMessage:
		message, err := s.chatRepo.GetMessage(ctx, targetID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		return message.SenderID, nil
	}
	// Chats have no single author to act on.
	return 0, nil
}
