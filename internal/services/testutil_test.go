package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

// fakeClock pins Now for deterministic temporal decisions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeBus captures published notification events.
type fakeBus struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (b *fakeBus) Publish(_ context.Context, event NotificationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// One connection: every new connection to :memory: would get its own
	// empty database, and it serializes access the way the advisory locks
	// do on Postgres.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Subject{},
		&types.Lesson{},
		&types.LessonFile{},
		&types.LessonFeedback{},
		&types.ProblemReport{},
		&types.AvailabilitySlot{},
		&types.Assignment{},
		&types.AssignmentSubmission{},
		&types.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// env bundles everything a service test needs.
type env struct {
	db    *gorm.DB
	log   *logger.Logger
	clock *fakeClock
	bus   *fakeBus

	users         repos.UserRepo
	tokens        repos.UserTokenRepo
	subjects      repos.SubjectRepo
	lessons       repos.LessonRepo
	files         repos.LessonFileRepo
	feedbacks     repos.LessonFeedbackRepo
	problems      repos.ProblemReportRepo
	slots         repos.AvailabilityRepo
	assignments   repos.AssignmentRepo
	submissions   repos.SubmissionRepo
	notifications repos.NotificationRepo

	notifier NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	bus := &fakeBus{}

	e := &env{
		db:            db,
		log:           log,
		clock:         clock,
		bus:           bus,
		users:         repos.NewUserRepo(db, log),
		tokens:        repos.NewUserTokenRepo(db, log),
		subjects:      repos.NewSubjectRepo(db, log),
		lessons:       repos.NewLessonRepo(db, log),
		files:         repos.NewLessonFileRepo(db, log),
		feedbacks:     repos.NewLessonFeedbackRepo(db, log),
		problems:      repos.NewProblemReportRepo(db, log),
		slots:         repos.NewAvailabilityRepo(db, log),
		assignments:   repos.NewAssignmentRepo(db, log),
		submissions:   repos.NewSubmissionRepo(db, log),
		notifications: repos.NewNotificationRepo(db, log),
	}
	e.notifier = NewNotificationService(db, log, clock, e.notifications, bus)
	return e
}

var emailSeq int

func (e *env) user(t *testing.T, role types.Role) *types.User {
	t.Helper()
	emailSeq++
	u := &types.User{
		Email:     fmt.Sprintf("user%d@example.com", emailSeq),
		Password:  "x",
		FirstName: "Test",
		LastName:  fmt.Sprintf("%s%d", role, emailSeq),
		Role:      role,
		Timezone:  "UTC",
	}
	if _, err := e.users.Create(context.Background(), nil, u); err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return u
}

func (e *env) subject(t *testing.T) *types.Subject {
	t.Helper()
	s := &types.Subject{Name: fmt.Sprintf("Subject %s", uuid.New().String()[:8]), IsActive: true}
	if _, err := e.subjects.Create(context.Background(), nil, s); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return s
}

func (e *env) lesson(t *testing.T, teacher, student *types.User, subject *types.Subject, start time.Time, minutes int, status types.LessonStatus) *types.Lesson {
	t.Helper()
	l := &types.Lesson{
		Title:     "Driving practice",
		SubjectID: subject.ID,
		TeacherID: teacher.ID,
		StudentID: student.ID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		Status:    status,
	}
	if _, err := e.lessons.Create(context.Background(), nil, l); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return l
}

func (e *env) scheduler() LessonScheduler {
	return NewLessonScheduler(e.db, e.log, e.clock, NewConflictChecker(DefaultSchedulingPolicy()), "UTC",
		e.lessons, e.users, e.subjects, e.notifier)
}

func (e *env) expander() RecurrenceExpander {
	return NewRecurrenceExpander(e.db, e.log, e.clock, NewConflictChecker(DefaultSchedulingPolicy()),
		e.lessons, e.users, e.notifier)
}

func (e *env) completion() CompletionService {
	return NewCompletionService(e.db, e.log, e.clock, e.lessons, e.notifier)
}

func (e *env) feedback() FeedbackService {
	return NewFeedbackService(e.db, e.log, e.clock, time.Hour, e.lessons, e.feedbacks)
}

func (e *env) assignmentSvc() AssignmentService {
	return NewAssignmentService(e.db, e.log, e.clock, e.assignments, e.submissions, e.users, e.notifier)
}

func asUser(u *types.User) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:   u.ID,
		Role:     u.Role,
		Timezone: u.Timezone,
	})
}
