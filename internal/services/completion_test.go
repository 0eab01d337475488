package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func intptr(v int) *int { return &v }

func TestConfirmDualConfirmationCompletesLesson(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.completion()

	lesson := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-2*time.Hour), 60, types.LessonScheduled)

	after, err := svc.Confirm(asUser(teacher), lesson.ID, ConfirmRequest{Rating: intptr(9), Comment: "good focus"})
	if err != nil {
		t.Fatalf("teacher confirm: %v", err)
	}
	if after.Status == types.LessonCompleted {
		t.Fatal("one confirmation must not complete the lesson")
	}
	if !after.TeacherConfirmedCompletion || after.StudentConfirmedCompletion {
		t.Fatalf("flags after teacher confirm: teacher=%v student=%v",
			after.TeacherConfirmedCompletion, after.StudentConfirmedCompletion)
	}

	after, err = svc.Confirm(asUser(student), lesson.ID, ConfirmRequest{Rating: intptr(10)})
	if err != nil {
		t.Fatalf("student confirm: %v", err)
	}
	if after.Status != types.LessonCompleted {
		t.Fatalf("status after both confirm: want=%s got=%s", types.LessonCompleted, after.Status)
	}
	if after.CompletionConfirmedAt == nil {
		t.Fatal("completion timestamp missing")
	}
	if after.TeacherRating == nil || *after.TeacherRating != 9 {
		t.Fatalf("teacher rating: want=9 got=%v", after.TeacherRating)
	}
	if after.StudentRating == nil || *after.StudentRating != 10 {
		t.Fatalf("student rating: want=10 got=%v", after.StudentRating)
	}
}

func TestConfirmGates(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	outsider := e.user(t, types.RoleTeacher)
	subject := e.subject(t)
	svc := e.completion()

	// Still running: end is in the future.
	running := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-30*time.Minute), 60, types.LessonScheduled)
	if _, err := svc.Confirm(asUser(teacher), running.ID, ConfirmRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("confirm before end: want ErrValidation, got %v", err)
	}

	elapsed := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-3*time.Hour), 60, types.LessonScheduled)
	if _, err := svc.Confirm(asUser(outsider), elapsed.ID, ConfirmRequest{}); !errors.Is(err, ErrPermission) {
		t.Fatalf("confirm by outsider: want ErrPermission, got %v", err)
	}
	if _, err := svc.Confirm(asUser(teacher), elapsed.ID, ConfirmRequest{Rating: intptr(11)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("rating out of bounds: want ErrValidation, got %v", err)
	}

	cancelled := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-5*time.Hour), 60, types.LessonCancelled)
	if _, err := svc.Confirm(asUser(teacher), cancelled.ID, ConfirmRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("confirm cancelled: want ErrValidation, got %v", err)
	}
}

func TestConfirmWorksOnRescheduledLesson(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.completion()

	lesson := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-2*time.Hour), 60, types.LessonRescheduled)
	if _, err := svc.Confirm(asUser(teacher), lesson.ID, ConfirmRequest{}); err != nil {
		t.Fatalf("confirm rescheduled: %v", err)
	}
}

func TestSweepElapsedIsIdempotent(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.completion()

	now := e.clock.Now()
	past1 := e.lesson(t, teacher, student, subject, now.Add(-4*time.Hour), 60, types.LessonScheduled)
	past2 := e.lesson(t, teacher, student, subject, now.Add(-2*time.Hour), 60, types.LessonRescheduled)
	future := e.lesson(t, teacher, student, subject, now.Add(2*time.Hour), 60, types.LessonScheduled)
	cancelled := e.lesson(t, teacher, student, subject, now.Add(-6*time.Hour), 60, types.LessonCancelled)

	swept, err := svc.SweepElapsed(context.Background())
	if err != nil {
		t.Fatalf("SweepElapsed: %v", err)
	}
	if swept != 2 {
		t.Fatalf("swept: want=2 got=%d", swept)
	}

	for _, id := range []struct {
		name string
		l    *types.Lesson
		want types.LessonStatus
	}{
		{"past scheduled", past1, types.LessonCompleted},
		{"past rescheduled", past2, types.LessonCompleted},
		{"future", future, types.LessonScheduled},
		{"cancelled", cancelled, types.LessonCancelled},
	} {
		got, err := e.lessons.GetByID(context.Background(), nil, id.l.ID)
		if err != nil {
			t.Fatalf("reload %s: %v", id.name, err)
		}
		if got.Status != id.want {
			t.Fatalf("%s status: want=%s got=%s", id.name, id.want, got.Status)
		}
	}

	// A second run finds nothing left to do.
	swept, err = svc.SweepElapsed(context.Background())
	if err != nil {
		t.Fatalf("second SweepElapsed: %v", err)
	}
	if swept != 0 {
		t.Fatalf("second sweep: want=0 got=%d", swept)
	}
}

func TestSweepDoesNotEraseConfirmations(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.completion()

	lesson := e.lesson(t, teacher, student, subject,
		e.clock.Now().Add(-2*time.Hour), 60, types.LessonScheduled)
	if _, err := svc.Confirm(asUser(teacher), lesson.ID, ConfirmRequest{Rating: intptr(8)}); err != nil {
		t.Fatalf("teacher confirm: %v", err)
	}
	if _, err := svc.SweepElapsed(context.Background()); err != nil {
		t.Fatalf("SweepElapsed: %v", err)
	}

	got, err := e.lessons.GetByID(context.Background(), nil, lesson.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.LessonCompleted {
		t.Fatalf("status: want=%s got=%s", types.LessonCompleted, got.Status)
	}
	if !got.TeacherConfirmedCompletion || got.TeacherRating == nil || *got.TeacherRating != 8 {
		t.Fatalf("teacher confirmation lost: confirmed=%v rating=%v",
			got.TeacherConfirmedCompletion, got.TeacherRating)
	}
}
