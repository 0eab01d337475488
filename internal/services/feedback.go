package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type FeedbackService interface {
	// Submit accepts one rating+comment from the lesson's student, any
	// time after completion. A second attempt for the same lesson is a
	// conflict, not an overwrite.
	Submit(ctx context.Context, lessonID uuid.UUID, rating int, comment string) (*types.LessonFeedback, error)
	// PendingForMe lists completed lessons of the calling student that
	// have no feedback yet and ended inside the prompt window. This only
	// drives the client prompt; Submit itself has no such cutoff.
	PendingForMe(ctx context.Context) ([]*types.Lesson, error)
}

type feedbackService struct {
	db           *gorm.DB
	log          *logger.Logger
	clock        Clock
	promptWindow time.Duration
	lessonRepo   repos.LessonRepo
	feedbackRepo repos.LessonFeedbackRepo
}

func NewFeedbackService(db *gorm.DB, log *logger.Logger, clock Clock, promptWindow time.Duration, lessonRepo repos.LessonRepo, feedbackRepo repos.LessonFeedbackRepo) FeedbackService {
	if promptWindow <= 0 {
		promptWindow = time.Hour
	}
	return &feedbackService{
		db:           db,
		log:          log.With("service", "FeedbackService"),
		clock:        clock,
		promptWindow: promptWindow,
		lessonRepo:   lessonRepo,
		feedbackRepo: feedbackRepo,
	}
}

func (s *feedbackService) Submit(ctx context.Context, lessonID uuid.UUID, rating int, comment string) (*types.LessonFeedback, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	if rating < 1 || rating > 10 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 10", ErrValidation)
	}

	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lesson.StudentID != rd.UserID {
		return nil, fmt.Errorf("%w: only the lesson's student can leave feedback", ErrPermission)
	}
	if !lesson.CanBeRated(s.clock.Now()) {
		return nil, fmt.Errorf("%w: lesson is not completed yet", ErrValidation)
	}

	feedback := &types.LessonFeedback{
		LessonID:  lesson.ID,
		UserID:    rd.UserID,
		IsTeacher: false,
		Rating:    rating,
		Comment:   comment,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.feedbackRepo.Exists(ctx, tx, lesson.ID, rd.UserID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: feedback for this lesson was already submitted", ErrConflict)
		}
		_, err = s.feedbackRepo.Create(ctx, tx, feedback)
		if err != nil && isUniqueViolation(err) {
			// Lost a race with a concurrent submit; the unique index is
			// the backstop.
			return fmt.Errorf("%w: feedback for this lesson was already submitted", ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *feedbackService) PendingForMe(ctx context.Context) ([]*types.Lesson, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleStudent:
	case types.RoleTeacher, types.RoleMethodist:
		return []*types.Lesson{}, nil
	}
	cutoff := s.clock.Now().Add(-s.promptWindow)
	return s.lessonRepo.ListCompletedWithoutFeedback(ctx, nil, rd.UserID, cutoff)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return containsAny(msg, "duplicate key", "UNIQUE constraint failed")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
