package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type SubmissionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, submission *types.AssignmentSubmission) (*types.AssignmentSubmission, error)
	MaxVersion(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (int, error)
	// ClearFinal flips every currently-final submission of the assignment to
	// non-final; called in the same transaction as the insert of the new one.
	ClearFinal(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) error
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.AssignmentSubmission, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *submissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *types.AssignmentSubmission) (*types.AssignmentSubmission, error) {
	if err := r.handle(tx).WithContext(ctx).Create(submission).Error; err != nil {
		return nil, err
	}
	return submission, nil
}

func (r *submissionRepo) MaxVersion(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (int, error) {
	var max *int
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.AssignmentSubmission{}).
		Where("assignment_id = ?", assignmentID).
		Select("MAX(version)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *submissionRepo) ClearFinal(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) error {
	return r.handle(tx).WithContext(ctx).
		Model(&types.AssignmentSubmission{}).
		Where("assignment_id = ? AND is_final = ?", assignmentID, true).
		Update("is_final", false).Error
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.AssignmentSubmission, error) {
	var rows []*types.AssignmentSubmission
	if err := r.handle(tx).WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("version").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
