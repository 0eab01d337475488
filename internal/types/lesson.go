package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonStatus string

const (
	LessonScheduled   LessonStatus = "scheduled"
	LessonRescheduled LessonStatus = "rescheduled"
	LessonCompleted   LessonStatus = "completed"
	LessonCancelled   LessonStatus = "cancelled"
)

// ActiveLessonStatuses are the statuses that count toward conflict checks.
// Cancelled lessons free their slot.
func ActiveLessonStatuses() []LessonStatus {
	return []LessonStatus{LessonScheduled, LessonRescheduled, LessonCompleted}
}

func (s LessonStatus) Display() string {
	switch s {
	case LessonScheduled:
		return "Scheduled"
	case LessonRescheduled:
		return "Rescheduled"
	case LessonCompleted:
		return "Completed"
	case LessonCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Lesson is one scheduled teaching session between a teacher and a student.
// Start/end are always stored as UTC instants; rows are never hard-deleted.
type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null;column:title" json:"title"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher   *User     `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Student   *User     `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`

	StartTime time.Time `gorm:"not null;index;column:start_time" json:"start_time"`
	EndTime   time.Time `gorm:"not null;column:end_time" json:"end_time"`

	// Set exactly once, on the first reschedule, so the original slot
	// survives for audit.
	OriginalStartTime *time.Time `gorm:"column:original_start_time" json:"original_start_time,omitempty"`
	OriginalEndTime   *time.Time `gorm:"column:original_end_time" json:"original_end_time,omitempty"`

	Description string       `gorm:"column:description" json:"description"`
	MeetingLink string       `gorm:"column:meeting_link" json:"meeting_link"`
	Status      LessonStatus `gorm:"not null;default:'scheduled';index;column:status" json:"status"`

	TeacherRating   *int   `gorm:"column:teacher_rating" json:"teacher_rating,omitempty"`
	StudentRating   *int   `gorm:"column:student_rating" json:"student_rating,omitempty"`
	TeacherComments string `gorm:"column:teacher_comments" json:"teacher_comments"`
	StudentComments string `gorm:"column:student_comments" json:"student_comments"`

	TeacherConfirmedCompletion bool       `gorm:"not null;default:false;column:teacher_confirmed_completion" json:"teacher_confirmed_completion"`
	StudentConfirmedCompletion bool       `gorm:"not null;default:false;column:student_confirmed_completion" json:"student_confirmed_completion"`
	CompletionConfirmedAt      *time.Time `gorm:"column:completion_confirmed_at" json:"completion_confirmed_at,omitempty"`

	CreatedByID *uuid.UUID `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID;references:ID" json:"-"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Files []*LessonFile `gorm:"foreignKey:LessonID;references:ID" json:"files,omitempty"`
}

func (Lesson) TableName() string { return "lessons" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l *Lesson) DurationMinutes() int {
	return int(l.EndTime.Sub(l.StartTime).Minutes())
}

func (l *Lesson) IsActive() bool {
	switch l.Status {
	case LessonScheduled, LessonRescheduled, LessonCompleted:
		return true
	case LessonCancelled:
		return false
	}
	return false
}

// CanBeConfirmed reports whether a participant may still confirm the lesson
// took place: the scheduled end has passed and neither the sweep nor a dual
// confirmation has completed it yet.
func (l *Lesson) CanBeConfirmed(now time.Time) bool {
	switch l.Status {
	case LessonScheduled, LessonRescheduled:
		return now.After(l.EndTime)
	default:
		return false
	}
}

func (l *Lesson) IsConfirmedByBoth() bool {
	return l.TeacherConfirmedCompletion && l.StudentConfirmedCompletion
}

// CanBeRated gates post-lesson feedback: completed, and the slot is over.
func (l *Lesson) CanBeRated(now time.Time) bool {
	return l.Status == LessonCompleted && now.After(l.EndTime)
}
