package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	// GetByIDForUpdate reads the lesson under a row lock so two concurrent
	// confirmations serialize instead of overwriting each other's flag.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	Save(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error

	// LockParticipants serializes check-then-act scheduling for one teacher
	// and one student. Advisory xact locks on Postgres; a no-op elsewhere
	// (the sqlite test driver serializes writes on its own).
	LockParticipants(ctx context.Context, tx *gorm.DB, teacherID, studentID uuid.UUID) error

	GetActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, exclude uuid.UUID) ([]*types.Lesson, error)
	GetActiveByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, exclude uuid.UUID) ([]*types.Lesson, error)

	ListForTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, from, to time.Time) ([]*types.Lesson, error)
	ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*types.Lesson, error)
	ListAll(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.Lesson, error)

	// CompleteElapsed is the auto-completion sweep: one conditional bulk
	// update with no read-then-write gap, safe to run concurrently.
	CompleteElapsed(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)

	ListCompletedWithoutFeedback(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, endAfter time.Time) ([]*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	if err := r.handle(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	var lesson types.Lesson
	if err := r.handle(tx).WithContext(ctx).
		Preload("Subject").
		Preload("Teacher").
		Preload("Student").
		Preload("Files").
		First(&lesson, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	q := r.handle(tx).WithContext(ctx)
	// FOR UPDATE is not sqlite syntax; the test driver serializes writes
	// on its single connection anyway.
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var lesson types.Lesson
	if err := q.
		Preload("Subject").
		Preload("Teacher").
		Preload("Student").
		First(&lesson, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) Save(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error {
	return r.handle(tx).WithContext(ctx).Save(lesson).Error
}

func (r *lessonRepo) LockParticipants(ctx context.Context, tx *gorm.DB, teacherID, studentID uuid.UUID) error {
	h := r.handle(tx)
	if h.Dialector.Name() != "postgres" {
		return nil
	}
	// Two locks, always in (teacher, student) order so concurrent creates
	// for the same pair cannot deadlock.
	for _, id := range []uuid.UUID{teacherID, studentID} {
		if err := h.WithContext(ctx).Exec(
			`SELECT pg_advisory_xact_lock(hashtextextended(?::text, 0))`, id.String(),
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *lessonRepo) activeQuery(ctx context.Context, tx *gorm.DB, exclude uuid.UUID) *gorm.DB {
	q := r.handle(tx).WithContext(ctx).
		Where("status IN ?", []types.LessonStatus{types.LessonScheduled, types.LessonRescheduled, types.LessonCompleted})
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	return q
}

func (r *lessonRepo) GetActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, exclude uuid.UUID) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := r.activeQuery(ctx, tx, exclude).
		Where("teacher_id = ?", teacherID).
		Order("start_time").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetActiveByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, exclude uuid.UUID) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := r.activeQuery(ctx, tx, exclude).
		Where("student_id = ?", studentID).
		Order("start_time").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) rangeQuery(ctx context.Context, tx *gorm.DB, from, to time.Time) *gorm.DB {
	q := r.handle(tx).WithContext(ctx).
		Preload("Subject").
		Preload("Teacher").
		Preload("Student")
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to)
	}
	return q.Order("start_time")
}

func (r *lessonRepo) ListForTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, from, to time.Time) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := r.rangeQuery(ctx, tx, from, to).Where("teacher_id = ?", teacherID).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := r.rangeQuery(ctx, tx, from, to).Where("student_id = ?", studentID).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) ListAll(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := r.rangeQuery(ctx, tx, from, to).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) CompleteElapsed(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	res := r.handle(tx).WithContext(ctx).
		Model(&types.Lesson{}).
		Where("status IN ?", []types.LessonStatus{types.LessonScheduled, types.LessonRescheduled}).
		Where("end_time < ?", now).
		Updates(map[string]interface{}{
			"status":     types.LessonCompleted,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *lessonRepo) ListCompletedWithoutFeedback(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, endAfter time.Time) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	sub := r.handle(tx).Model(&types.LessonFeedback{}).
		Select("lesson_id").
		Where("user_id = ?", studentID)
	if err := r.handle(tx).WithContext(ctx).
		Preload("Subject").
		Preload("Teacher").
		Where("student_id = ?", studentID).
		Where("status = ?", types.LessonCompleted).
		Where("end_time >= ?", endAfter).
		Where("id NOT IN (?)", sub).
		Order("end_time DESC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}
