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

type ReportProblemRequest struct {
	LessonID    uuid.UUID
	ProblemType string
	Description string
}

type ProblemService interface {
	// Report files a problem against a lesson the requester participates
	// in. Every methodist gets notified.
	Report(ctx context.Context, req ReportProblemRequest) (*types.ProblemReport, error)
	ListOpen(ctx context.Context) ([]*types.ProblemReport, error)
	Resolve(ctx context.Context, id uuid.UUID) (*types.ProblemReport, error)
}

type problemService struct {
	db         *gorm.DB
	log        *logger.Logger
	clock      Clock
	reportRepo repos.ProblemReportRepo
	lessonRepo repos.LessonRepo
	userRepo   repos.UserRepo
	notifier   NotificationService
}

func NewProblemService(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	reportRepo repos.ProblemReportRepo,
	lessonRepo repos.LessonRepo,
	userRepo repos.UserRepo,
	notifier NotificationService,
) ProblemService {
	return &problemService{
		db:         db,
		log:        log.With("service", "ProblemService"),
		clock:      clock,
		reportRepo: reportRepo,
		lessonRepo: lessonRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

func (s *problemService) Report(ctx context.Context, req ReportProblemRequest) (*types.ProblemReport, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	problemType, ok := types.ParseProblemType(req.ProblemType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown problem type %q", ErrValidation, req.ProblemType)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("%w: a description is required", ErrValidation)
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, req.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rd.UserID != lesson.TeacherID && rd.UserID != lesson.StudentID {
		return nil, fmt.Errorf("%w: only a lesson participant can report a problem", ErrPermission)
	}

	report := &types.ProblemReport{
		LessonID:    lesson.ID,
		ReporterID:  rd.UserID,
		ProblemType: problemType,
		Description: req.Description,
	}
	if _, err := s.reportRepo.Create(ctx, nil, report); err != nil {
		return nil, err
	}

	methodists, err := s.userRepo.ListByRole(ctx, nil, types.RoleMethodist)
	if err != nil {
		s.log.Warn("could not load methodists for problem notification", "error", err)
		return report, nil
	}
	for _, m := range methodists {
		s.notifier.Notify(ctx, &types.Notification{
			UserID:   m.ID,
			Type:     types.NotifyProblemReported,
			Title:    fmt.Sprintf("Problem reported: %s", lesson.Title),
			Message:  req.Description,
			LessonID: &lesson.ID,
		})
	}
	return report, nil
}

func (s *problemService) ListOpen(ctx context.Context) ([]*types.ProblemReport, error) {
	if _, err := requireMethodist(ctx, "view problem reports"); err != nil {
		return nil, err
	}
	return s.reportRepo.ListOpen(ctx, nil)
}

func (s *problemService) Resolve(ctx context.Context, id uuid.UUID) (*types.ProblemReport, error) {
	rd, err := requireMethodist(ctx, "resolve problem reports")
	if err != nil {
		return nil, err
	}
	report, err := s.reportRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if report.IsResolved {
		return report, nil
	}
	now := s.clock.Now()
	report.IsResolved = true
	report.ResolvedAt = &now
	report.ResolvedByID = &rd.UserID
	if err := s.reportRepo.Save(ctx, nil, report); err != nil {
		return nil, err
	}
	return report, nil
}
