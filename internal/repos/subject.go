package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type SubjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, subject *types.Subject) (*types.Subject, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Subject, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Subject, error)
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *subjectRepo) Create(ctx context.Context, tx *gorm.DB, subject *types.Subject) (*types.Subject, error) {
	if err := r.handle(tx).WithContext(ctx).Create(subject).Error; err != nil {
		return nil, err
	}
	return subject, nil
}

func (r *subjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Subject, error) {
	var subject types.Subject
	if err := r.handle(tx).WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Subject, error) {
	var subjects []*types.Subject
	if err := r.handle(tx).WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}
