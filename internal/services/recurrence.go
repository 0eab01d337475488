package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/types"
)

const (
	minRepeatWeeks = 1
	maxRepeatWeeks = 26
)

// SkippedInstance records one weekly instance that failed validation.
type SkippedInstance struct {
	Week   int       `json:"week"`
	Start  time.Time `json:"start"`
	Reason string    `json:"reason"`
}

// RecurrenceReport is the partial-success result of a weekly expansion.
type RecurrenceReport struct {
	Requested int               `json:"requested"`
	Created   int               `json:"created"`
	Lessons   []*types.Lesson   `json:"lessons"`
	Skipped   []SkippedInstance `json:"skipped"`
}

type RecurrenceExpander interface {
	// ExpandWeekly creates up to `weeks` copies of the base lesson, each
	// shifted by i*7 days, validating every instance independently. A
	// conflict in the middle of the series skips that instance only; it
	// never aborts the batch or rolls back earlier instances.
	ExpandWeekly(ctx context.Context, baseLessonID uuid.UUID, weeks int) (*RecurrenceReport, error)
}

type recurrenceExpander struct {
	db         *gorm.DB
	log        *logger.Logger
	clock      Clock
	checker    *ConflictChecker
	lessonRepo repos.LessonRepo
	userRepo   repos.UserRepo
	notifier   NotificationService
}

func NewRecurrenceExpander(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	checker *ConflictChecker,
	lessonRepo repos.LessonRepo,
	userRepo repos.UserRepo,
	notifier NotificationService,
) RecurrenceExpander {
	return &recurrenceExpander{
		db:         db,
		log:        log.With("service", "RecurrenceExpander"),
		clock:      clock,
		checker:    checker,
		lessonRepo: lessonRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

func (s *recurrenceExpander) ExpandWeekly(ctx context.Context, baseLessonID uuid.UUID, weeks int) (*RecurrenceReport, error) {
	if _, err := requireMethodist(ctx, "create lesson series"); err != nil {
		return nil, err
	}
	if weeks < minRepeatWeeks {
		weeks = minRepeatWeeks
	}
	if weeks > maxRepeatWeeks {
		weeks = maxRepeatWeeks
	}

	base, err := s.lessonRepo.GetByID(ctx, nil, baseLessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if base.Status != types.LessonScheduled && base.Status != types.LessonRescheduled {
		return nil, fmt.Errorf("%w: cannot create a series from a %s lesson", ErrValidation, base.Status)
	}

	report := &RecurrenceReport{Requested: weeks}
	for i := 1; i <= weeks; i++ {
		shift := time.Duration(i) * 7 * 24 * time.Hour
		instance := &types.Lesson{
			Title:       base.Title,
			Description: base.Description,
			SubjectID:   base.SubjectID,
			TeacherID:   base.TeacherID,
			StudentID:   base.StudentID,
			StartTime:   base.StartTime.Add(shift),
			EndTime:     base.EndTime.Add(shift),
			MeetingLink: base.MeetingLink,
			Status:      types.LessonScheduled,
			CreatedByID: base.CreatedByID,
		}
		if err := s.placeInstance(ctx, instance); err != nil {
			reason := err.Error()
			s.log.Info("recurrence instance skipped", "base_lesson_id", base.ID, "week", i, "reason", reason)
			report.Skipped = append(report.Skipped, SkippedInstance{
				Week:   i,
				Start:  instance.StartTime,
				Reason: reason,
			})
			continue
		}
		report.Created++
		report.Lessons = append(report.Lessons, instance)
		s.notifyCreated(ctx, instance, base)
	}
	return report, nil
}

// placeInstance mirrors the scheduler's create transaction: each weekly
// instance is its own atomic unit.
func (s *recurrenceExpander) placeInstance(ctx context.Context, lesson *types.Lesson) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lessonRepo.LockParticipants(ctx, tx, lesson.TeacherID, lesson.StudentID); err != nil {
			return err
		}
		teacherLessons, err := s.lessonRepo.GetActiveByTeacher(ctx, tx, lesson.TeacherID, uuid.Nil)
		if err != nil {
			return err
		}
		studentLessons, err := s.lessonRepo.GetActiveByStudent(ctx, tx, lesson.StudentID, uuid.Nil)
		if err != nil {
			return err
		}
		if err := s.checker.CheckWindow(s.clock.Now(), lesson.StartTime, lesson.EndTime, teacherLessons, studentLessons, uuid.Nil); err != nil {
			return err
		}
		_, err = s.lessonRepo.Create(ctx, tx, lesson)
		return err
	})
}

func (s *recurrenceExpander) notifyCreated(ctx context.Context, lesson, base *types.Lesson) {
	when := lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")
	teacherName, studentName := "", ""
	if base.Teacher != nil {
		teacherName = base.Teacher.FullName()
	}
	if base.Student != nil {
		studentName = base.Student.FullName()
	}
	s.notifier.Notify(ctx, &types.Notification{
		UserID:   lesson.TeacherID,
		Type:     types.NotifyLessonCreated,
		Title:    fmt.Sprintf("New lesson assigned: %s", lesson.Title),
		Message:  fmt.Sprintf("You have been assigned a lesson with %s on %s", studentName, when),
		LessonID: &lesson.ID,
	})
	s.notifier.Notify(ctx, &types.Notification{
		UserID:   lesson.StudentID,
		Type:     types.NotifyLessonCreated,
		Title:    fmt.Sprintf("New lesson scheduled: %s", lesson.Title),
		Message:  fmt.Sprintf("A lesson with %s has been scheduled on %s", teacherName, when),
		LessonID: &lesson.ID,
	})
}
