package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type AssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error)
	Save(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) error
	ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Assignment, error)
	ListForCreator(ctx context.Context, tx *gorm.DB, createdByID uuid.UUID) ([]*types.Assignment, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Assignment, error)
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error) {
	if err := r.handle(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error) {
	var assignment types.Assignment
	if err := r.handle(tx).WithContext(ctx).
		Preload("Student").
		Preload("Lesson").
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		}).
		First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Save(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) error {
	return r.handle(tx).WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepo) ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Assignment, error) {
	var assignments []*types.Assignment
	if err := r.handle(tx).WithContext(ctx).
		Preload("Lesson").
		Where("student_id = ?", studentID).
		Order("due_date DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListForCreator(ctx context.Context, tx *gorm.DB, createdByID uuid.UUID) ([]*types.Assignment, error) {
	var assignments []*types.Assignment
	if err := r.handle(tx).WithContext(ctx).
		Preload("Student").
		Preload("Lesson").
		Where("created_by_id = ?", createdByID).
		Order("due_date DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Assignment, error) {
	var assignments []*types.Assignment
	if err := r.handle(tx).WithContext(ctx).
		Preload("Student").
		Preload("Lesson").
		Order("due_date DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
