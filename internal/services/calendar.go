package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

// CalendarEntry is one lesson rendered for the requester: instants stay
// UTC in Start/End, LocalDate/LocalStart/LocalEnd carry the wall-clock
// projection into the viewer's timezone.
type CalendarEntry struct {
	ID            uuid.UUID          `json:"id"`
	Title         string             `json:"title"`
	Subject       string             `json:"subject"`
	TeacherName   string             `json:"teacher_name"`
	StudentName   string             `json:"student_name"`
	Description   string             `json:"description"`
	MeetingLink   string             `json:"meeting_link"`
	Status        types.LessonStatus `json:"status"`
	StatusDisplay string             `json:"status_display"`
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	LocalDate     string             `json:"local_date"`
	LocalStart    string             `json:"local_start"`
	LocalEnd      string             `json:"local_end"`
	Rescheduled   bool               `json:"rescheduled"`
}

// LessonDetail wraps a lesson with the viewer-dependent bits: teacher
// materials are stripped for students, and the flag tells the client
// whether the materials panel should render at all.
type LessonDetail struct {
	Lesson                 *types.Lesson       `json:"lesson"`
	Files                  []*types.LessonFile `json:"files"`
	CanSeeTeacherMaterials bool                `json:"can_see_teacher_materials"`
	CanConfirm             bool                `json:"can_confirm"`
	CanRate                bool                `json:"can_rate"`
}

type CalendarService interface {
	// Range lists the requester's lessons between from and to (either may
	// be zero for an open end). Students and teachers see their own;
	// methodists see everything.
	Range(ctx context.Context, from, to time.Time) ([]*CalendarEntry, error)
	Detail(ctx context.Context, lessonID uuid.UUID) (*LessonDetail, error)
}

type calendarService struct {
	db           *gorm.DB
	log          *logger.Logger
	clock        Clock
	lessonRepo   repos.LessonRepo
	feedbackRepo repos.LessonFeedbackRepo
}

func NewCalendarService(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	lessonRepo repos.LessonRepo,
	feedbackRepo repos.LessonFeedbackRepo,
) CalendarService {
	return &calendarService{
		db:           db,
		log:          log.With("service", "CalendarService"),
		clock:        clock,
		lessonRepo:   lessonRepo,
		feedbackRepo: feedbackRepo,
	}
}

func (s *calendarService) Range(ctx context.Context, from, to time.Time) ([]*CalendarEntry, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}

	var (
		lessons []*types.Lesson
		err     error
	)
	switch rd.Role {
	case types.RoleTeacher:
		lessons, err = s.lessonRepo.ListForTeacher(ctx, nil, rd.UserID, from, to)
	case types.RoleStudent:
		lessons, err = s.lessonRepo.ListForStudent(ctx, nil, rd.UserID, from, to)
	case types.RoleMethodist:
		lessons, err = s.lessonRepo.ListAll(ctx, nil, from, to)
	default:
		return nil, ErrPermission
	}
	if err != nil {
		return nil, err
	}

	loc := resolveLocation(rd.Timezone, "")
	entries := make([]*CalendarEntry, 0, len(lessons))
	for _, lesson := range lessons {
		entry := renderEntry(lesson, loc)
		// Each side sees the counterpart, not their own name echoed back.
		switch rd.Role {
		case types.RoleStudent:
			entry.StudentName = ""
		case types.RoleTeacher:
			entry.TeacherName = ""
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func renderEntry(lesson *types.Lesson, loc *time.Location) *CalendarEntry {
	localStart := lesson.StartTime.In(loc)
	localEnd := lesson.EndTime.In(loc)
	entry := &CalendarEntry{
		ID:            lesson.ID,
		Title:         lesson.Title,
		Description:   lesson.Description,
		MeetingLink:   lesson.MeetingLink,
		Status:        lesson.Status,
		StatusDisplay: lesson.Status.Display(),
		Start:         lesson.StartTime,
		End:           lesson.EndTime,
		LocalDate:     localStart.Format("2006-01-02"),
		LocalStart:    localStart.Format("15:04"),
		LocalEnd:      localEnd.Format("15:04"),
		Rescheduled:   lesson.OriginalStartTime != nil,
	}
	if lesson.Subject != nil {
		entry.Subject = lesson.Subject.Name
	}
	if lesson.Teacher != nil {
		entry.TeacherName = lesson.Teacher.FullName()
	}
	if lesson.Student != nil {
		entry.StudentName = lesson.Student.FullName()
	}
	return entry
}

func (s *calendarService) Detail(ctx context.Context, lessonID uuid.UUID) (*LessonDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	canSeeMaterials := false
	switch rd.Role {
	case types.RoleMethodist:
		canSeeMaterials = true
	case types.RoleTeacher:
		if lesson.TeacherID != rd.UserID {
			return nil, ErrPermission
		}
		canSeeMaterials = true
	case types.RoleStudent:
		if lesson.StudentID != rd.UserID {
			return nil, ErrPermission
		}
	default:
		return nil, ErrPermission
	}

	files := make([]*types.LessonFile, 0, len(lesson.Files))
	for _, f := range lesson.Files {
		if f.IsTeacherMaterial && !canSeeMaterials {
			continue
		}
		files = append(files, f)
	}
	lesson.Files = nil

	now := s.clock.Now()
	participant := rd.UserID == lesson.TeacherID || rd.UserID == lesson.StudentID
	return &LessonDetail{
		Lesson:                 lesson,
		Files:                  files,
		CanSeeTeacherMaterials: canSeeMaterials,
		CanConfirm:             participant && lesson.CanBeConfirmed(now),
		CanRate:                rd.Role == types.RoleStudent && lesson.CanBeRated(now),
	}, nil
}
