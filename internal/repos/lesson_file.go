package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type LessonFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.LessonFile) (*types.LessonFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonFile, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonFile, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type lessonFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonFileRepo(db *gorm.DB, baseLog *logger.Logger) LessonFileRepo {
	return &lessonFileRepo{db: db, log: baseLog.With("repo", "LessonFileRepo")}
}

func (r *lessonFileRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *lessonFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.LessonFile) (*types.LessonFile, error) {
	if err := r.handle(tx).WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *lessonFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonFile, error) {
	var file types.LessonFile
	if err := r.handle(tx).WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *lessonFileRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonFile, error) {
	var files []*types.LessonFile
	if err := r.handle(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("uploaded_at DESC").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *lessonFileRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.handle(tx).WithContext(ctx).Delete(&types.LessonFile{}, "id = ?", id).Error
}
