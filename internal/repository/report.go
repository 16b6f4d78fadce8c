package repository

import (
	"context"

	"commune/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines the interface for moderation report data operations.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, resolved *bool, limit, offset int) ([]*models.Report, error)
	Exists(ctx context.Context, targetType models.ReportTarget, targetID, reporterID uint) (bool, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id uint) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports newest first, optionally filtered by resolution state.
func (r *reportRepository) List(ctx context.Context, resolved *bool, limit, offset int) ([]*models.Report, error) {
	q := r.db.WithContext(ctx).Model(&models.Report{})
	if resolved != nil {
		q = q.Where("resolved = ?", *resolved)
	}
	var reports []*models.Report
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) Exists(ctx context.Context, targetType models.ReportTarget, targetID, reporterID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("target_type = ? AND target_id = ? AND reported_by_id = ?",
			targetType, targetID, reporterID).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) Update(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *reportRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Report{}, id).Error
}
