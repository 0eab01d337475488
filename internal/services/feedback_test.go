package services

import (
	"errors"
	"testing"
	"time"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func TestFeedbackSubmit(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	other := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.feedback()

	completed := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-2*time.Hour), 60, types.LessonCompleted)
	pending := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-4*time.Hour), 60, types.LessonScheduled)

	if _, err := svc.Submit(asUser(student), pending.ID, 8, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("submit on non-completed lesson: want ErrValidation, got %v", err)
	}
	if _, err := svc.Submit(asUser(other), completed.ID, 8, ""); !errors.Is(err, ErrPermission) {
		t.Fatalf("submit by other student: want ErrPermission, got %v", err)
	}
	if _, err := svc.Submit(asUser(student), completed.ID, 0, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("rating 0: want ErrValidation, got %v", err)
	}
	if _, err := svc.Submit(asUser(student), completed.ID, 11, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("rating 11: want ErrValidation, got %v", err)
	}

	fb, err := svc.Submit(asUser(student), completed.ID, 9, "clear instructions")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fb.Rating != 9 || fb.Comment != "clear instructions" {
		t.Fatalf("feedback row: got rating=%d comment=%q", fb.Rating, fb.Comment)
	}

	// Once per lesson per student.
	if _, err := svc.Submit(asUser(student), completed.ID, 5, "changed my mind"); !errors.Is(err, ErrConflict) {
		t.Fatalf("double submit: want ErrConflict, got %v", err)
	}
}

func TestFeedbackSubmitHasNoTimeCutoff(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.feedback()

	// Ended three weeks ago, far outside the prompt window.
	old := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-21*24*time.Hour), 60, types.LessonCompleted)
	if _, err := svc.Submit(asUser(student), old.ID, 7, "late but valid"); err != nil {
		t.Fatalf("late submit: %v", err)
	}
}

func TestFeedbackPendingForMe(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.feedback()

	now := e.clock.Now()
	recent := e.lesson(t, teacher, student, subject, now.Add(-90*time.Minute), 60, types.LessonCompleted) // ended 30m ago
	e.lesson(t, teacher, student, subject, now.Add(-5*time.Hour), 60, types.LessonCompleted)              // outside window
	e.lesson(t, teacher, student, subject, now.Add(2*time.Hour), 60, types.LessonScheduled)               // not completed

	got, err := svc.PendingForMe(asUser(student))
	if err != nil {
		t.Fatalf("PendingForMe: %v", err)
	}
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Fatalf("pending: want just the recent lesson, got %d rows", len(got))
	}

	// Submitting clears the prompt.
	if _, err := svc.Submit(asUser(student), recent.ID, 8, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err = svc.PendingForMe(asUser(student))
	if err != nil {
		t.Fatalf("PendingForMe after submit: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("pending after submit: want=0 got=%d", len(got))
	}

	// Teachers never get the prompt.
	got, err = svc.PendingForMe(asUser(teacher))
	if err != nil {
		t.Fatalf("PendingForMe as teacher: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("teacher pending: want=0 got=%d", len(got))
	}
}
