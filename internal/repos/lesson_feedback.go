package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type LessonFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *types.LessonFeedback) (*types.LessonFeedback, error)
	Exists(ctx context.Context, tx *gorm.DB, lessonID, userID uuid.UUID) (bool, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonFeedback, error)
}

type lessonFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) LessonFeedbackRepo {
	return &lessonFeedbackRepo{db: db, log: baseLog.With("repo", "LessonFeedbackRepo")}
}

func (r *lessonFeedbackRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *lessonFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *types.LessonFeedback) (*types.LessonFeedback, error) {
	if err := r.handle(tx).WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *lessonFeedbackRepo) Exists(ctx context.Context, tx *gorm.DB, lessonID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.LessonFeedback{}).
		Where("lesson_id = ? AND user_id = ?", lessonID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *lessonFeedbackRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonFeedback, error) {
	var rows []*types.LessonFeedback
	if err := r.handle(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
