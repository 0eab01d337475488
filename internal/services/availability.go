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

type SlotRequest struct {
	DayOfWeek   int
	StartMinute int
	EndMinute   int
	IsAvailable bool
}

// AvailabilityService manages a teacher's weekly availability grid.
// Slots are advisory for planning; the conflict checker remains the
// authority on whether a lesson can actually be placed.
type AvailabilityService interface {
	AddSlot(ctx context.Context, req SlotRequest) (*types.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, id uuid.UUID, req SlotRequest) (*types.AvailabilitySlot, error)
	RemoveSlot(ctx context.Context, id uuid.UUID) error
	ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]*types.AvailabilitySlot, error)
}

type availabilityService struct {
	db       *gorm.DB
	log      *logger.Logger
	slotRepo repos.AvailabilityRepo
	userRepo repos.UserRepo
}

func NewAvailabilityService(
	db *gorm.DB,
	log *logger.Logger,
	slotRepo repos.AvailabilityRepo,
	userRepo repos.UserRepo,
) AvailabilityService {
	return &availabilityService{
		db:       db,
		log:      log.With("service", "AvailabilityService"),
		slotRepo: slotRepo,
		userRepo: userRepo,
	}
}

func validateSlot(req SlotRequest) error {
	if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
		return fmt.Errorf("%w: day of week must be 1 (Monday) through 7 (Sunday)", ErrValidation)
	}
	if req.StartMinute < 0 || req.StartMinute >= 24*60 {
		return fmt.Errorf("%w: start minute out of range", ErrValidation)
	}
	if req.EndMinute <= req.StartMinute || req.EndMinute > 24*60 {
		return fmt.Errorf("%w: a slot must end after it starts", ErrValidation)
	}
	return nil
}

func requireTeacher(ctx context.Context, action string) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleTeacher:
		return rd, nil
	case types.RoleStudent, types.RoleMethodist:
		return nil, fmt.Errorf("%w: only a teacher can %s", ErrPermission, action)
	}
	return nil, ErrPermission
}

func (s *availabilityService) AddSlot(ctx context.Context, req SlotRequest) (*types.AvailabilitySlot, error) {
	rd, err := requireTeacher(ctx, "edit availability")
	if err != nil {
		return nil, err
	}
	if err := validateSlot(req); err != nil {
		return nil, err
	}
	existing, err := s.slotRepo.ListByTeacher(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.DayOfWeek == req.DayOfWeek &&
			req.StartMinute < other.EndMinute && other.StartMinute < req.EndMinute {
			return nil, fmt.Errorf("%w: overlaps an existing slot on that day", ErrConflict)
		}
	}
	slot := &types.AvailabilitySlot{
		TeacherID:   rd.UserID,
		DayOfWeek:   req.DayOfWeek,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		IsAvailable: req.IsAvailable,
	}
	if _, err := s.slotRepo.Create(ctx, nil, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *availabilityService) UpdateSlot(ctx context.Context, id uuid.UUID, req SlotRequest) (*types.AvailabilitySlot, error) {
	rd, err := requireTeacher(ctx, "edit availability")
	if err != nil {
		return nil, err
	}
	if err := validateSlot(req); err != nil {
		return nil, err
	}
	slot, err := s.slotRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if slot.TeacherID != rd.UserID {
		return nil, ErrPermission
	}
	slot.DayOfWeek = req.DayOfWeek
	slot.StartMinute = req.StartMinute
	slot.EndMinute = req.EndMinute
	slot.IsAvailable = req.IsAvailable
	if err := s.slotRepo.Save(ctx, nil, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *availabilityService) RemoveSlot(ctx context.Context, id uuid.UUID) error {
	rd, err := requireTeacher(ctx, "edit availability")
	if err != nil {
		return err
	}
	slot, err := s.slotRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if slot.TeacherID != rd.UserID {
		return ErrPermission
	}
	return s.slotRepo.Delete(ctx, nil, id)
}

func (s *availabilityService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]*types.AvailabilitySlot, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	switch rd.Role {
	case types.RoleTeacher:
		if teacherID != rd.UserID {
			return nil, ErrPermission
		}
	case types.RoleMethodist:
	case types.RoleStudent:
		return nil, ErrPermission
	}
	return s.slotRepo.ListByTeacher(ctx, nil, teacherID)
}
