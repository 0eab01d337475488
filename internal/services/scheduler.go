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

// ScheduleRequest carries everything needed to place one lesson.
type ScheduleRequest struct {
	Title       string
	Description string
	SubjectID   uuid.UUID
	TeacherID   uuid.UUID
	StudentID   uuid.UUID
	MeetingLink string
	Window      WindowInput
}

type LessonScheduler interface {
	Create(ctx context.Context, req ScheduleRequest) (*types.Lesson, error)
	Reschedule(ctx context.Context, lessonID uuid.UUID, window WindowInput) (*types.Lesson, error)
	Cancel(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
	Edit(ctx context.Context, lessonID uuid.UUID, req ScheduleRequest) (*types.Lesson, error)
}

type lessonScheduler struct {
	db          *gorm.DB
	log         *logger.Logger
	clock       Clock
	checker     *ConflictChecker
	defaultZone string

	lessonRepo  repos.LessonRepo
	userRepo    repos.UserRepo
	subjectRepo repos.SubjectRepo
	notifier    NotificationService
}

func NewLessonScheduler(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	checker *ConflictChecker,
	defaultZone string,
	lessonRepo repos.LessonRepo,
	userRepo repos.UserRepo,
	subjectRepo repos.SubjectRepo,
	notifier NotificationService,
) LessonScheduler {
	return &lessonScheduler{
		db:          db,
		log:         log.With("service", "LessonScheduler"),
		clock:       clock,
		checker:     checker,
		defaultZone: defaultZone,
		lessonRepo:  lessonRepo,
		userRepo:    userRepo,
		subjectRepo: subjectRepo,
		notifier:    notifier,
	}
}

func requireMethodist(ctx context.Context, action string) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleMethodist:
		return rd, nil
	case types.RoleTeacher, types.RoleStudent:
		return nil, fmt.Errorf("%w: only a methodist can %s", ErrPermission, action)
	}
	return nil, ErrPermission
}

func (s *lessonScheduler) resolveWindow(rd *requestdata.RequestData, in WindowInput) (TimeWindow, error) {
	fallback := s.defaultZone
	if rd != nil && rd.Timezone != "" {
		fallback = rd.Timezone
	}
	return ResolveWindow(in, fallback)
}

func (s *lessonScheduler) Create(ctx context.Context, req ScheduleRequest) (*types.Lesson, error) {
	rd, err := requireMethodist(ctx, "create lessons")
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: a lesson title is required", ErrValidation)
	}
	window, err := s.resolveWindow(rd, req.Window)
	if err != nil {
		return nil, err
	}

	teacher, err := s.participant(ctx, req.TeacherID, types.RoleTeacher)
	if err != nil {
		return nil, err
	}
	student, err := s.participant(ctx, req.StudentID, types.RoleStudent)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjectRepo.GetByID(ctx, nil, req.SubjectID)
	if err != nil || !subject.IsActive {
		return nil, fmt.Errorf("%w: unknown or inactive subject", ErrValidation)
	}

	lesson := &types.Lesson{
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   subject.ID,
		TeacherID:   teacher.ID,
		StudentID:   student.ID,
		StartTime:   window.Start,
		EndTime:     window.End,
		MeetingLink: req.MeetingLink,
		Status:      types.LessonScheduled,
		CreatedByID: &rd.UserID,
	}
	if err := s.placeLesson(ctx, lesson, uuid.Nil); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, &types.Notification{
		UserID:   teacher.ID,
		Type:     types.NotifyLessonCreated,
		Title:    fmt.Sprintf("New lesson assigned: %s", lesson.Title),
		Message:  fmt.Sprintf("You have been assigned a lesson with %s on %s", student.FullName(), lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")),
		LessonID: &lesson.ID,
	})
	s.notifier.Notify(ctx, &types.Notification{
		UserID:   student.ID,
		Type:     types.NotifyLessonCreated,
		Title:    fmt.Sprintf("New lesson scheduled: %s", lesson.Title),
		Message:  fmt.Sprintf("A lesson with %s has been scheduled on %s", teacher.FullName(), lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")),
		LessonID: &lesson.ID,
	})
	return lesson, nil
}

// placeLesson runs the conflict check and the write as one atomic unit.
// The advisory locks make concurrent check-then-act for the same teacher
// or student impossible; state is always re-read inside the transaction.
func (s *lessonScheduler) placeLesson(ctx context.Context, lesson *types.Lesson, exclude uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lessonRepo.LockParticipants(ctx, tx, lesson.TeacherID, lesson.StudentID); err != nil {
			return err
		}
		teacherLessons, err := s.lessonRepo.GetActiveByTeacher(ctx, tx, lesson.TeacherID, exclude)
		if err != nil {
			return err
		}
		studentLessons, err := s.lessonRepo.GetActiveByStudent(ctx, tx, lesson.StudentID, exclude)
		if err != nil {
			return err
		}
		if err := s.checker.CheckWindow(s.clock.Now(), lesson.StartTime, lesson.EndTime, teacherLessons, studentLessons, exclude); err != nil {
			return err
		}
		if exclude == uuid.Nil {
			_, err = s.lessonRepo.Create(ctx, tx, lesson)
			return err
		}
		return s.lessonRepo.Save(ctx, tx, lesson)
	})
}

func (s *lessonScheduler) participant(ctx context.Context, id uuid.UUID, want types.Role) (*types.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown %s", ErrValidation, want)
	}
	if user.Role != want {
		return nil, fmt.Errorf("%w: user %s is not a %s", ErrValidation, user.FullName(), want)
	}
	return user, nil
}

func (s *lessonScheduler) Reschedule(ctx context.Context, lessonID uuid.UUID, window WindowInput) (*types.Lesson, error) {
	rd, err := requireMethodist(ctx, "reschedule lessons")
	if err != nil {
		return nil, err
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch lesson.Status {
	case types.LessonScheduled, types.LessonRescheduled:
	case types.LessonCompleted, types.LessonCancelled:
		return nil, fmt.Errorf("%w: a %s lesson cannot be rescheduled", ErrValidation, lesson.Status)
	}

	resolved, err := s.resolveWindow(rd, window)
	if err != nil {
		return nil, err
	}

	// The original slot is recorded once, before the first move, and never
	// overwritten afterwards.
	if lesson.OriginalStartTime == nil {
		origStart, origEnd := lesson.StartTime, lesson.EndTime
		lesson.OriginalStartTime = &origStart
		lesson.OriginalEndTime = &origEnd
	}
	lesson.StartTime = resolved.Start
	lesson.EndTime = resolved.End
	lesson.Status = types.LessonRescheduled

	if err := s.placeLesson(ctx, lesson, lesson.ID); err != nil {
		return nil, err
	}
	s.notifyBoth(ctx, lesson, types.NotifyLessonUpdated,
		fmt.Sprintf("Lesson rescheduled: %s", lesson.Title),
		fmt.Sprintf("The lesson was moved to %s", lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")))
	return lesson, nil
}

func (s *lessonScheduler) Cancel(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	if _, err := requireMethodist(ctx, "cancel lessons"); err != nil {
		return nil, err
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch lesson.Status {
	case types.LessonCancelled:
		return nil, fmt.Errorf("%w: lesson is already cancelled", ErrValidation)
	case types.LessonCompleted:
		return nil, fmt.Errorf("%w: a completed lesson cannot be cancelled", ErrValidation)
	}
	lesson.Status = types.LessonCancelled
	if err := s.lessonRepo.Save(ctx, nil, lesson); err != nil {
		return nil, err
	}
	s.notifyBoth(ctx, lesson, types.NotifyLessonCancelled,
		fmt.Sprintf("Lesson cancelled: %s", lesson.Title),
		fmt.Sprintf("The lesson on %s was cancelled", lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")))
	return lesson, nil
}

func (s *lessonScheduler) Edit(ctx context.Context, lessonID uuid.UUID, req ScheduleRequest) (*types.Lesson, error) {
	rd, err := requireMethodist(ctx, "edit lessons")
	if err != nil {
		return nil, err
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lesson.Status == types.LessonCancelled {
		return nil, fmt.Errorf("%w: a cancelled lesson cannot be edited", ErrValidation)
	}

	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Description != "" {
		lesson.Description = req.Description
	}
	if req.MeetingLink != "" {
		lesson.MeetingLink = req.MeetingLink
	}
	if req.SubjectID != uuid.Nil && req.SubjectID != lesson.SubjectID {
		subject, err := s.subjectRepo.GetByID(ctx, nil, req.SubjectID)
		if err != nil || !subject.IsActive {
			return nil, fmt.Errorf("%w: unknown or inactive subject", ErrValidation)
		}
		lesson.SubjectID = subject.ID
	}

	// A partial window (multi-stage form) leaves the slot untouched; a
	// complete one goes through the full create-path validation.
	if req.Window.Complete() {
		resolved, err := s.resolveWindow(rd, req.Window)
		if err != nil {
			return nil, err
		}
		lesson.StartTime = resolved.Start
		lesson.EndTime = resolved.End
		if err := s.placeLesson(ctx, lesson, lesson.ID); err != nil {
			return nil, err
		}
	} else if err := s.lessonRepo.Save(ctx, nil, lesson); err != nil {
		return nil, err
	}
	s.notifyBoth(ctx, lesson, types.NotifyLessonUpdated,
		fmt.Sprintf("Lesson updated: %s", lesson.Title),
		fmt.Sprintf("Details of the lesson on %s changed", lesson.StartTime.UTC().Format("January 2, 2006 at 15:04")))
	return lesson, nil
}

func (s *lessonScheduler) notifyBoth(ctx context.Context, lesson *types.Lesson, typ types.NotificationType, title, message string) {
	for _, userID := range []uuid.UUID{lesson.TeacherID, lesson.StudentID} {
		s.notifier.Notify(ctx, &types.Notification{
			UserID:   userID,
			Type:     typ,
			Title:    title,
			Message:  message,
			LessonID: &lesson.ID,
		})
	}
}
