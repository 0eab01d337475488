package services

import (
	"errors"
	"testing"
	"time"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func (e *env) problemSvc() ProblemService {
	return NewProblemService(e.db, e.log, e.clock, e.problems, e.lessons, e.users, e.notifier)
}

func TestReportProblemParticipantOnly(t *testing.T) {
	e := newEnv(t)
	svc := e.problemSvc()
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	outsider := e.user(t, types.RoleStudent)
	methodistA := e.user(t, types.RoleMethodist)
	methodistB := e.user(t, types.RoleMethodist)
	subject := e.subject(t)

	lesson := e.lesson(t, teacher, student, subject, e.clock.Now().Add(-30*time.Minute), 60, types.LessonScheduled)

	if _, err := svc.Report(asUser(outsider), ReportProblemRequest{
		LessonID:    lesson.ID,
		ProblemType: "audio",
		Description: "no sound",
	}); !errors.Is(err, ErrPermission) {
		t.Fatalf("outsider report: want ErrPermission, got %v", err)
	}

	if _, err := svc.Report(asUser(student), ReportProblemRequest{
		LessonID:    lesson.ID,
		ProblemType: "teleportation",
		Description: "weird",
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown type: want ErrValidation, got %v", err)
	}
	if _, err := svc.Report(asUser(student), ReportProblemRequest{
		LessonID:    lesson.ID,
		ProblemType: "audio",
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty description: want ErrValidation, got %v", err)
	}

	report, err := svc.Report(asUser(student), ReportProblemRequest{
		LessonID:    lesson.ID,
		ProblemType: "audio",
		Description: "teacher could not hear me",
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.ProblemType != types.ProblemAudio || report.ReporterID != student.ID {
		t.Fatalf("unexpected report: %+v", report)
	}

	// Both methodists get a notification, nobody else.
	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	if len(e.bus.events) != 2 {
		t.Fatalf("want 2 notifications, got %d", len(e.bus.events))
	}
	notified := map[string]bool{}
	for _, ev := range e.bus.events {
		notified[ev.UserID.String()] = true
	}
	if !notified[methodistA.ID.String()] || !notified[methodistB.ID.String()] {
		t.Fatalf("methodists not notified: %v", notified)
	}
}

func TestResolveProblemIsMethodistOnlyAndIdempotent(t *testing.T) {
	e := newEnv(t)
	svc := e.problemSvc()
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	methodist := e.user(t, types.RoleMethodist)
	subject := e.subject(t)

	lesson := e.lesson(t, teacher, student, subject, e.clock.Now().Add(-time.Hour), 60, types.LessonScheduled)
	report, err := svc.Report(asUser(teacher), ReportProblemRequest{
		LessonID:    lesson.ID,
		ProblemType: "connection",
		Description: "student dropped twice",
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if _, err := svc.ListOpen(asUser(teacher)); !errors.Is(err, ErrPermission) {
		t.Fatalf("teacher list: want ErrPermission, got %v", err)
	}
	if _, err := svc.Resolve(asUser(student), report.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("student resolve: want ErrPermission, got %v", err)
	}

	open, err := svc.ListOpen(asUser(methodist))
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("want 1 open report, got %d", len(open))
	}

	resolved, err := svc.Resolve(asUser(methodist), report.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolvedAt == nil || resolved.ResolvedByID == nil || *resolved.ResolvedByID != methodist.ID {
		t.Fatalf("resolution not recorded: %+v", resolved)
	}
	firstResolvedAt := *resolved.ResolvedAt

	e.clock.Advance(time.Hour)
	again, err := svc.Resolve(asUser(methodist), report.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !again.ResolvedAt.Equal(firstResolvedAt) {
		t.Fatalf("second resolve moved timestamp: %v -> %v", firstResolvedAt, again.ResolvedAt)
	}

	open, err = svc.ListOpen(asUser(methodist))
	if err != nil {
		t.Fatalf("list open after resolve: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("want 0 open reports, got %d", len(open))
	}
}
