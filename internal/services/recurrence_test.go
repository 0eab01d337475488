package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func TestExpandWeeklyCreatesShiftedCopies(t *testing.T) {
	e := newEnv(t)
	methodist := e.user(t, types.RoleMethodist)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.expander()

	baseStart := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	base := e.lesson(t, teacher, student, subject, baseStart, 60, types.LessonScheduled)

	report, err := svc.ExpandWeekly(asUser(methodist), base.ID, 4)
	if err != nil {
		t.Fatalf("ExpandWeekly: %v", err)
	}
	if report.Requested != 4 || report.Created != 4 {
		t.Fatalf("report: want requested=4 created=4, got requested=%d created=%d", report.Requested, report.Created)
	}
	if len(report.Skipped) != 0 {
		t.Fatalf("skipped: want=0 got=%d", len(report.Skipped))
	}
	for i, l := range report.Lessons {
		want := baseStart.AddDate(0, 0, 7*(i+1))
		if !l.StartTime.Equal(want) {
			t.Fatalf("instance %d start: want=%s got=%s", i+1, want, l.StartTime)
		}
		if l.Status != types.LessonScheduled {
			t.Fatalf("instance %d status: want=%s got=%s", i+1, types.LessonScheduled, l.Status)
		}
	}
}

func TestExpandWeeklySkipsConflictingInstanceOnly(t *testing.T) {
	e := newEnv(t)
	methodist := e.user(t, types.RoleMethodist)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	otherStudent := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.expander()

	baseStart := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	base := e.lesson(t, teacher, student, subject, baseStart, 60, types.LessonScheduled)

	// Week 2's slot is already taken by the teacher.
	e.lesson(t, teacher, otherStudent, subject, baseStart.AddDate(0, 0, 14), 60, types.LessonScheduled)

	report, err := svc.ExpandWeekly(asUser(methodist), base.ID, 3)
	if err != nil {
		t.Fatalf("ExpandWeekly: %v", err)
	}
	if report.Created != 2 {
		t.Fatalf("created: want=2 got=%d", report.Created)
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped: want=1 got=%d", len(report.Skipped))
	}
	if report.Skipped[0].Week != 2 {
		t.Fatalf("skipped week: want=2 got=%d", report.Skipped[0].Week)
	}
	if report.Skipped[0].Reason == "" {
		t.Fatal("skipped instance must carry a reason")
	}

	// Weeks 1 and 3 landed despite the hole in the middle.
	weeks := map[int]bool{}
	for _, l := range report.Lessons {
		delta := int(l.StartTime.Sub(baseStart).Hours()) / (7 * 24)
		weeks[delta] = true
	}
	if !weeks[1] || !weeks[3] {
		t.Fatalf("want weeks 1 and 3 created, got %v", weeks)
	}
}

func TestExpandWeeklyClampsRange(t *testing.T) {
	e := newEnv(t)
	methodist := e.user(t, types.RoleMethodist)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.expander()

	base := e.lesson(t, teacher, student, subject,
		time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), 60, types.LessonScheduled)

	report, err := svc.ExpandWeekly(asUser(methodist), base.ID, 0)
	if err != nil {
		t.Fatalf("ExpandWeekly(0): %v", err)
	}
	if report.Requested != 1 {
		t.Fatalf("clamp low: want requested=1 got=%d", report.Requested)
	}

	report, err = svc.ExpandWeekly(asUser(methodist), base.ID, 500)
	if err != nil {
		t.Fatalf("ExpandWeekly(500): %v", err)
	}
	if report.Requested != maxRepeatWeeks {
		t.Fatalf("clamp high: want requested=%d got=%d", maxRepeatWeeks, report.Requested)
	}
}

func TestExpandWeeklyAuthorizationAndMissingBase(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	methodist := e.user(t, types.RoleMethodist)
	svc := e.expander()

	if _, err := svc.ExpandWeekly(asUser(teacher), uuid.New(), 2); !errors.Is(err, ErrPermission) {
		t.Fatalf("want ErrPermission, got %v", err)
	}
	if _, err := svc.ExpandWeekly(asUser(methodist), uuid.New(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestExpandWeeklyRejectsInactiveBase(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	methodist := e.user(t, types.RoleMethodist)
	subject := e.subject(t)
	svc := e.expander()

	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	for _, status := range []types.LessonStatus{types.LessonCancelled, types.LessonCompleted} {
		base := e.lesson(t, teacher, student, subject, start, 60, status)
		if _, err := svc.ExpandWeekly(asUser(methodist), base.ID, 3); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s base: want ErrValidation, got %v", status, err)
		}
		start = start.Add(2 * time.Hour)
	}
}
