package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type ProblemReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.ProblemReport) (*types.ProblemReport, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProblemReport, error)
	Save(ctx context.Context, tx *gorm.DB, report *types.ProblemReport) error
	ListOpen(ctx context.Context, tx *gorm.DB) ([]*types.ProblemReport, error)
}

type problemReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemReportRepo(db *gorm.DB, baseLog *logger.Logger) ProblemReportRepo {
	return &problemReportRepo{db: db, log: baseLog.With("repo", "ProblemReportRepo")}
}

func (r *problemReportRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *problemReportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.ProblemReport) (*types.ProblemReport, error) {
	if err := r.handle(tx).WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (r *problemReportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProblemReport, error) {
	var report types.ProblemReport
	if err := r.handle(tx).WithContext(ctx).
		Preload("Reporter").
		Preload("Lesson").
		First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *problemReportRepo) Save(ctx context.Context, tx *gorm.DB, report *types.ProblemReport) error {
	return r.handle(tx).WithContext(ctx).Save(report).Error
}

func (r *problemReportRepo) ListOpen(ctx context.Context, tx *gorm.DB) ([]*types.ProblemReport, error) {
	var reports []*types.ProblemReport
	if err := r.handle(tx).WithContext(ctx).
		Preload("Reporter").
		Preload("Lesson").
		Where("is_resolved = ?", false).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
