package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func (e *env) calendar() CalendarService {
	return NewCalendarService(e.db, e.log, e.clock, e.lessons, e.feedbacks)
}

func TestCalendarRangeFiltersByRole(t *testing.T) {
	e := newEnv(t)
	methodist := e.user(t, types.RoleMethodist)
	teacherA := e.user(t, types.RoleTeacher)
	teacherB := e.user(t, types.RoleTeacher)
	studentA := e.user(t, types.RoleStudent)
	studentB := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.calendar()

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	e.lesson(t, teacherA, studentA, subject, day.Add(10*time.Hour), 60, types.LessonScheduled)
	e.lesson(t, teacherA, studentB, subject, day.Add(12*time.Hour), 60, types.LessonScheduled)
	e.lesson(t, teacherB, studentA, subject, day.Add(14*time.Hour), 60, types.LessonScheduled)

	cases := []struct {
		name string
		user *types.User
		want int
	}{
		{"teacher_sees_own", teacherA, 2},
		{"student_sees_own", studentA, 2},
		{"methodist_sees_all", methodist, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Range(asUser(tc.user), day, day.AddDate(0, 0, 1))
			if err != nil {
				t.Fatalf("Range: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("entries: want=%d got=%d", tc.want, len(got))
			}
		})
	}

	// The range bounds are honored.
	got, err := svc.Range(asUser(methodist), day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Range next day: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("next-day entries: want=0 got=%d", len(got))
	}
}

func TestCalendarEntryLocalTimes(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	student.Timezone = "Europe/Moscow"
	subject := e.subject(t)
	svc := e.calendar()

	// 11:00 UTC is 14:00 in Moscow.
	start := time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC)
	e.lesson(t, teacher, student, subject, start, 60, types.LessonScheduled)

	got, err := svc.Range(asUser(student), start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(got))
	}
	entry := got[0]
	if entry.LocalStart != "14:00" || entry.LocalEnd != "15:00" {
		t.Fatalf("local times: got start=%s end=%s", entry.LocalStart, entry.LocalEnd)
	}
	if !entry.Start.Equal(start) {
		t.Fatalf("UTC instant: want=%s got=%s", start, entry.Start)
	}
}

func TestCalendarEntryCarriesLessonBody(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	subject := e.subject(t)
	svc := e.calendar()

	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	l := &types.Lesson{
		Title:       "Parallel parking",
		Description: "Bay and parallel manoeuvres",
		MeetingLink: "https://meet.example.com/abc",
		SubjectID:   subject.ID,
		TeacherID:   teacher.ID,
		StudentID:   student.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      types.LessonScheduled,
	}
	if _, err := e.lessons.Create(context.Background(), nil, l); err != nil {
		t.Fatalf("create lesson: %v", err)
	}

	got, err := svc.Range(asUser(student), start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(got))
	}
	entry := got[0]
	if entry.Description != l.Description || entry.MeetingLink != l.MeetingLink {
		t.Fatalf("entry body: got description=%q link=%q", entry.Description, entry.MeetingLink)
	}
	if entry.TeacherName == "" || entry.StudentName != "" {
		t.Fatalf("counterpart naming: teacher=%q student=%q", entry.TeacherName, entry.StudentName)
	}
}

func TestCalendarDetailHidesTeacherMaterialsFromStudent(t *testing.T) {
	e := newEnv(t)
	teacher := e.user(t, types.RoleTeacher)
	student := e.user(t, types.RoleStudent)
	otherTeacher := e.user(t, types.RoleTeacher)
	methodist := e.user(t, types.RoleMethodist)
	subject := e.subject(t)
	svc := e.calendar()

	lesson := e.lesson(t, teacher, student, subject,
		time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), 60, types.LessonScheduled)
	for _, f := range []*types.LessonFile{
		{LessonID: lesson.ID, BucketKey: "k1", OriginalName: "handout.pdf", FileSize: 10},
		{LessonID: lesson.ID, BucketKey: "k2", OriginalName: "answer-key.pdf", FileSize: 10, IsTeacherMaterial: true},
	} {
		if _, err := e.files.Create(context.Background(), nil, f); err != nil {
			t.Fatalf("create file: %v", err)
		}
	}

	detail, err := svc.Detail(asUser(student), lesson.ID)
	if err != nil {
		t.Fatalf("Detail as student: %v", err)
	}
	if detail.CanSeeTeacherMaterials {
		t.Fatal("student must not see teacher materials")
	}
	if len(detail.Files) != 1 || detail.Files[0].OriginalName != "handout.pdf" {
		t.Fatalf("student files: want just the handout, got %d files", len(detail.Files))
	}

	for _, u := range []*types.User{teacher, methodist} {
		detail, err = svc.Detail(asUser(u), lesson.ID)
		if err != nil {
			t.Fatalf("Detail as %s: %v", u.Role, err)
		}
		if !detail.CanSeeTeacherMaterials || len(detail.Files) != 2 {
			t.Fatalf("%s: want both files visible, got %d", u.Role, len(detail.Files))
		}
	}

	if _, err := svc.Detail(asUser(otherTeacher), lesson.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("detail by unrelated teacher: want ErrPermission, got %v", err)
	}
}
