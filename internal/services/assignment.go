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
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type CreateAssignmentRequest struct {
	Title       string
	Description string
	StudentID   uuid.UUID
	LessonID    *uuid.UUID
	DueDate     time.Time
}

// SubmissionInput carries the already-stored file handle plus the
// student's comments; byte validation and bucket upload happen before
// this point (FileService).
type SubmissionInput struct {
	BucketKey    string
	OriginalName string
	ContentType  string
	FileSize     int64
	Comments     string
}

type ReviewRequest struct {
	Grade    int
	Comments string
}

type AssignmentService interface {
	Create(ctx context.Context, req CreateAssignmentRequest) (*types.Assignment, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Assignment, error)
	ListMine(ctx context.Context) ([]*types.Assignment, error)
	// Start marks an assigned assignment as in progress (direct status
	// edit by the owning student; no other transition reaches it).
	Start(ctx context.Context, id uuid.UUID) (*types.Assignment, error)
	// Submit records a new versioned submission and moves the assignment
	// to submitted. Exactly one final submission exists at any time.
	Submit(ctx context.Context, id uuid.UUID, input SubmissionInput) (*types.AssignmentSubmission, error)
	// Review grades the assignment (1-10, checked before persistence).
	Review(ctx context.Context, id uuid.UUID, req ReviewRequest) (*types.Assignment, error)
	RequestRevision(ctx context.Context, id uuid.UUID, comments string) (*types.Assignment, error)
	Complete(ctx context.Context, id uuid.UUID) (*types.Assignment, error)
}

type assignmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	clock          Clock
	assignmentRepo repos.AssignmentRepo
	submissionRepo repos.SubmissionRepo
	userRepo       repos.UserRepo
	notifier       NotificationService
}

func NewAssignmentService(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	assignmentRepo repos.AssignmentRepo,
	submissionRepo repos.SubmissionRepo,
	userRepo repos.UserRepo,
	notifier NotificationService,
) AssignmentService {
	return &assignmentService{
		db:             db,
		log:            log.With("service", "AssignmentService"),
		clock:          clock,
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		notifier:       notifier,
	}
}

func requireStaff(ctx context.Context, action string) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleTeacher, types.RoleMethodist:
		return rd, nil
	case types.RoleStudent:
		return nil, fmt.Errorf("%w: only a teacher or methodist can %s", ErrPermission, action)
	}
	return nil, ErrPermission
}

func (s *assignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*types.Assignment, error) {
	rd, err := requireStaff(ctx, "create assignments")
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: an assignment title is required", ErrValidation)
	}
	if req.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: a due date is required", ErrValidation)
	}
	student, err := s.userRepo.GetByID(ctx, nil, req.StudentID)
	if err != nil || student.Role != types.RoleStudent {
		return nil, fmt.Errorf("%w: unknown student", ErrValidation)
	}

	assignment := &types.Assignment{
		Title:       req.Title,
		Description: req.Description,
		StudentID:   student.ID,
		LessonID:    req.LessonID,
		DueDate:     req.DueDate.UTC(),
		Status:      types.AssignmentAssigned,
		CreatedByID: &rd.UserID,
	}
	if _, err := s.assignmentRepo.Create(ctx, nil, assignment); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, &types.Notification{
		UserID:       student.ID,
		Type:         types.NotifyAssignmentAssigned,
		Title:        fmt.Sprintf("New assignment: %s", assignment.Title),
		Message:      fmt.Sprintf("Due %s", assignment.DueDate.UTC().Format("January 2, 2006 at 15:04")),
		AssignmentID: &assignment.ID,
	})
	return assignment, nil
}

func (s *assignmentService) Get(ctx context.Context, id uuid.UUID) (*types.Assignment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch rd.Role {
	case types.RoleStudent:
		if assignment.StudentID != rd.UserID {
			return nil, ErrPermission
		}
	case types.RoleTeacher, types.RoleMethodist:
	}
	return assignment, nil
}

func (s *assignmentService) ListMine(ctx context.Context) ([]*types.Assignment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleStudent:
		return s.assignmentRepo.ListForStudent(ctx, nil, rd.UserID)
	case types.RoleTeacher:
		return s.assignmentRepo.ListForCreator(ctx, nil, rd.UserID)
	case types.RoleMethodist:
		return s.assignmentRepo.ListAll(ctx, nil)
	}
	return nil, ErrPermission
}

func (s *assignmentService) Start(ctx context.Context, id uuid.UUID) (*types.Assignment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assignment.StudentID != rd.UserID {
		return nil, fmt.Errorf("%w: only the assigned student can start the assignment", ErrPermission)
	}
	if assignment.Status != types.AssignmentAssigned {
		return nil, fmt.Errorf("%w: only an assigned assignment can be started", ErrValidation)
	}
	assignment.Status = types.AssignmentInProgress
	if err := s.assignmentRepo.Save(ctx, nil, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) Submit(ctx context.Context, id uuid.UUID, input SubmissionInput) (*types.AssignmentSubmission, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	if input.BucketKey == "" || input.OriginalName == "" {
		return nil, fmt.Errorf("%w: a submission file is required", ErrValidation)
	}

	var submission *types.AssignmentSubmission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if assignment.StudentID != rd.UserID {
			return fmt.Errorf("%w: only the assigned student can submit", ErrPermission)
		}
		switch assignment.Status {
		case types.AssignmentCompleted:
			return fmt.Errorf("%w: assignment is already completed", ErrValidation)
		case types.AssignmentAssigned, types.AssignmentInProgress, types.AssignmentSubmitted,
			types.AssignmentReviewed, types.AssignmentNeedsRevision:
		}

		maxVersion, err := s.submissionRepo.MaxVersion(ctx, tx, assignment.ID)
		if err != nil {
			return err
		}
		if err := s.submissionRepo.ClearFinal(ctx, tx, assignment.ID); err != nil {
			return err
		}
		submission = &types.AssignmentSubmission{
			AssignmentID: assignment.ID,
			Version:      maxVersion + 1,
			BucketKey:    input.BucketKey,
			OriginalName: input.OriginalName,
			ContentType:  input.ContentType,
			FileSize:     input.FileSize,
			Comments:     input.Comments,
			IsFinal:      true,
		}
		if _, err := s.submissionRepo.Create(ctx, tx, submission); err != nil {
			return err
		}

		now := s.clock.Now()
		assignment.Status = types.AssignmentSubmitted
		assignment.SubmittedAt = &now
		return s.assignmentRepo.Save(ctx, tx, assignment)
	})
	if err != nil {
		return nil, err
	}

	if assignment, err := s.assignmentRepo.GetByID(ctx, nil, id); err == nil && assignment.CreatedByID != nil {
		s.notifier.Notify(ctx, &types.Notification{
			UserID:       *assignment.CreatedByID,
			Type:         types.NotifyAssignmentSubmitted,
			Title:        fmt.Sprintf("Assignment submitted: %s", assignment.Title),
			Message:      fmt.Sprintf("Submission v%d received", submission.Version),
			AssignmentID: &assignment.ID,
		})
	}
	return submission, nil
}

func (s *assignmentService) Review(ctx context.Context, id uuid.UUID, req ReviewRequest) (*types.Assignment, error) {
	if _, err := requireStaff(ctx, "review assignments"); err != nil {
		return nil, err
	}
	if req.Grade < 1 || req.Grade > 10 {
		return nil, fmt.Errorf("%w: grade must be between 1 and 10", ErrValidation)
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assignment.Status != types.AssignmentSubmitted {
		return nil, fmt.Errorf("%w: only a submitted assignment can be reviewed", ErrValidation)
	}

	now := s.clock.Now()
	grade := req.Grade
	assignment.Status = types.AssignmentReviewed
	assignment.Grade = &grade
	assignment.TeacherComments = req.Comments
	assignment.ReviewedAt = &now
	if err := s.assignmentRepo.Save(ctx, nil, assignment); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, &types.Notification{
		UserID:       assignment.StudentID,
		Type:         types.NotifyAssignmentReviewed,
		Title:        fmt.Sprintf("Assignment reviewed: %s", assignment.Title),
		Message:      fmt.Sprintf("Grade: %d/10", grade),
		AssignmentID: &assignment.ID,
	})
	return assignment, nil
}

func (s *assignmentService) RequestRevision(ctx context.Context, id uuid.UUID, comments string) (*types.Assignment, error) {
	if _, err := requireStaff(ctx, "send assignments back"); err != nil {
		return nil, err
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch assignment.Status {
	case types.AssignmentSubmitted, types.AssignmentReviewed:
	default:
		return nil, fmt.Errorf("%w: only a submitted or reviewed assignment can be sent back", ErrValidation)
	}

	assignment.Status = types.AssignmentNeedsRevision
	if comments != "" {
		assignment.TeacherComments = comments
	}
	if err := s.assignmentRepo.Save(ctx, nil, assignment); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, &types.Notification{
		UserID:       assignment.StudentID,
		Type:         types.NotifyAssignmentRevision,
		Title:        fmt.Sprintf("Revision requested: %s", assignment.Title),
		Message:      comments,
		AssignmentID: &assignment.ID,
	})
	return assignment, nil
}

func (s *assignmentService) Complete(ctx context.Context, id uuid.UUID) (*types.Assignment, error) {
	if _, err := requireStaff(ctx, "complete assignments"); err != nil {
		return nil, err
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assignment.Status != types.AssignmentReviewed {
		return nil, fmt.Errorf("%w: only a reviewed assignment can be completed", ErrValidation)
	}
	assignment.Status = types.AssignmentCompleted
	if err := s.assignmentRepo.Save(ctx, nil, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}
