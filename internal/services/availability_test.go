package services

import (
	"errors"
	"testing"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func (e *env) availabilitySvc() AvailabilityService {
	return NewAvailabilityService(e.db, e.log, e.slots, e.users)
}

func TestAddSlotValidatesAndRejectsOverlap(t *testing.T) {
	e := newEnv(t)
	svc := e.availabilitySvc()
	teacher := e.user(t, types.RoleTeacher)

	if _, err := svc.AddSlot(asUser(teacher), SlotRequest{DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 12 * 60, IsAvailable: true}); err != nil {
		t.Fatalf("add slot: %v", err)
	}

	tests := []struct {
		name string
		req  SlotRequest
		want error
	}{
		{"day_too_low", SlotRequest{DayOfWeek: 0, StartMinute: 60, EndMinute: 120}, ErrValidation},
		{"day_too_high", SlotRequest{DayOfWeek: 8, StartMinute: 60, EndMinute: 120}, ErrValidation},
		{"end_before_start", SlotRequest{DayOfWeek: 2, StartMinute: 120, EndMinute: 60}, ErrValidation},
		{"end_past_midnight", SlotRequest{DayOfWeek: 2, StartMinute: 23 * 60, EndMinute: 25 * 60}, ErrValidation},
		{"overlaps_same_day", SlotRequest{DayOfWeek: 1, StartMinute: 11 * 60, EndMinute: 13 * 60}, ErrConflict},
		{"touching_is_fine", SlotRequest{DayOfWeek: 1, StartMinute: 12 * 60, EndMinute: 14 * 60}, nil},
		{"same_window_other_day", SlotRequest{DayOfWeek: 2, StartMinute: 9 * 60, EndMinute: 12 * 60}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddSlot(asUser(teacher), tt.req)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSlotMutationIsTeacherOwnerOnly(t *testing.T) {
	e := newEnv(t)
	svc := e.availabilitySvc()
	teacher := e.user(t, types.RoleTeacher)
	other := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	methodist := e.user(t, types.RoleMethodist)

	slot, err := svc.AddSlot(asUser(teacher), SlotRequest{DayOfWeek: 3, StartMinute: 10 * 60, EndMinute: 11 * 60, IsAvailable: true})
	if err != nil {
		t.Fatalf("add slot: %v", err)
	}

	if _, err := svc.AddSlot(asUser(student), SlotRequest{DayOfWeek: 1, StartMinute: 60, EndMinute: 120}); !errors.Is(err, ErrPermission) {
		t.Fatalf("student add: want ErrPermission, got %v", err)
	}
	if _, err := svc.AddSlot(asUser(methodist), SlotRequest{DayOfWeek: 1, StartMinute: 60, EndMinute: 120}); !errors.Is(err, ErrPermission) {
		t.Fatalf("methodist add: want ErrPermission, got %v", err)
	}

	if _, err := svc.UpdateSlot(asUser(other), slot.ID, SlotRequest{DayOfWeek: 3, StartMinute: 10 * 60, EndMinute: 12 * 60}); !errors.Is(err, ErrPermission) {
		t.Fatalf("foreign update: want ErrPermission, got %v", err)
	}
	if err := svc.RemoveSlot(asUser(other), slot.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("foreign remove: want ErrPermission, got %v", err)
	}

	updated, err := svc.UpdateSlot(asUser(teacher), slot.ID, SlotRequest{DayOfWeek: 3, StartMinute: 10 * 60, EndMinute: 12 * 60, IsAvailable: false})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.EndMinute != 12*60 || updated.IsAvailable {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.RemoveSlot(asUser(teacher), slot.ID); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
	if _, err := svc.UpdateSlot(asUser(teacher), slot.ID, SlotRequest{DayOfWeek: 3, StartMinute: 60, EndMinute: 120}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update removed slot: want ErrNotFound, got %v", err)
	}
}

func TestListForTeacherVisibility(t *testing.T) {
	e := newEnv(t)
	svc := e.availabilitySvc()
	teacher := e.user(t, types.RoleTeacher)
	other := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	methodist := e.user(t, types.RoleMethodist)

	if _, err := svc.AddSlot(asUser(teacher), SlotRequest{DayOfWeek: 5, StartMinute: 8 * 60, EndMinute: 10 * 60, IsAvailable: true}); err != nil {
		t.Fatalf("add slot: %v", err)
	}

	slots, err := svc.ListForTeacher(asUser(teacher), teacher.ID)
	if err != nil {
		t.Fatalf("own list: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("own list: want 1 slot, got %d", len(slots))
	}

	if _, err := svc.ListForTeacher(asUser(other), teacher.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("other teacher list: want ErrPermission, got %v", err)
	}
	if _, err := svc.ListForTeacher(asUser(student), teacher.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("student list: want ErrPermission, got %v", err)
	}

	slots, err = svc.ListForTeacher(asUser(methodist), teacher.ID)
	if err != nil {
		t.Fatalf("methodist list: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("methodist list: want 1 slot, got %d", len(slots))
	}
}
