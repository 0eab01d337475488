package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

// ConfirmRequest is one participant's acknowledgement that the lesson took
// place, with an optional rating and comment.
type ConfirmRequest struct {
	Rating  *int
	Comment string
}

type CompletionService interface {
	// Confirm records the calling participant's confirmation. The lesson
	// flips to completed the moment both sides have confirmed.
	Confirm(ctx context.Context, lessonID uuid.UUID, req ConfirmRequest) (*types.Lesson, error)
	// SweepElapsed force-completes every lesson still scheduled or
	// rescheduled whose end has passed. Idempotent; safe concurrently.
	SweepElapsed(ctx context.Context) (int64, error)
}

type completionService struct {
	db         *gorm.DB
	log        *logger.Logger
	clock      Clock
	lessonRepo repos.LessonRepo
	notifier   NotificationService
}

func NewCompletionService(db *gorm.DB, log *logger.Logger, clock Clock, lessonRepo repos.LessonRepo, notifier NotificationService) CompletionService {
	return &completionService{
		db:         db,
		log:        log.With("service", "CompletionService"),
		clock:      clock,
		lessonRepo: lessonRepo,
		notifier:   notifier,
	}
}

func (s *completionService) Confirm(ctx context.Context, lessonID uuid.UUID, req ConfirmRequest) (*types.Lesson, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 10) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 10", ErrValidation)
	}

	var confirmed *types.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Status may have changed since the client loaded the page (a
		// concurrent sweep, the other participant confirming), so the
		// decision is made on the row as it is now, held under a row lock
		// until the save commits.
		lesson, err := s.lessonRepo.GetByIDForUpdate(ctx, tx, lessonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := s.clock.Now()
		switch rd.UserID {
		case lesson.TeacherID:
			if !lesson.CanBeConfirmed(now) {
				return fmt.Errorf("%w: lesson cannot be confirmed yet", ErrValidation)
			}
			lesson.TeacherConfirmedCompletion = true
			if req.Rating != nil {
				lesson.TeacherRating = req.Rating
			}
			if req.Comment != "" {
				lesson.TeacherComments = req.Comment
			}
		case lesson.StudentID:
			if !lesson.CanBeConfirmed(now) {
				return fmt.Errorf("%w: lesson cannot be confirmed yet", ErrValidation)
			}
			lesson.StudentConfirmedCompletion = true
			if req.Rating != nil {
				lesson.StudentRating = req.Rating
			}
			if req.Comment != "" {
				lesson.StudentComments = req.Comment
			}
		default:
			return fmt.Errorf("%w: only the lesson's teacher or student can confirm it", ErrPermission)
		}

		if lesson.IsConfirmedByBoth() {
			lesson.Status = types.LessonCompleted
			if lesson.CompletionConfirmedAt == nil {
				stamp := now
				lesson.CompletionConfirmedAt = &stamp
			}
		}
		confirmed = lesson
		return s.lessonRepo.Save(ctx, tx, lesson)
	})
	if err != nil {
		return nil, err
	}

	if confirmed.Status == types.LessonCompleted {
		s.notifyCompleted(ctx, confirmed)
	}
	return confirmed, nil
}

func (s *completionService) SweepElapsed(ctx context.Context) (int64, error) {
	swept, err := s.lessonRepo.CompleteElapsed(ctx, nil, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.log.Info("auto-completed elapsed lessons", "count", swept)
	}
	return swept, nil
}

func (s *completionService) notifyCompleted(ctx context.Context, lesson *types.Lesson) {
	for _, userID := range []uuid.UUID{lesson.TeacherID, lesson.StudentID} {
		s.notifier.Notify(ctx, &types.Notification{
			UserID:   userID,
			Type:     types.NotifyLessonCompleted,
			Title:    fmt.Sprintf("Lesson completed: %s", lesson.Title),
			Message:  "Both participants confirmed the lesson took place",
			LessonID: &lesson.ID,
		})
	}
}
