package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentAssigned      AssignmentStatus = "assigned"
	AssignmentInProgress    AssignmentStatus = "in_progress"
	AssignmentSubmitted     AssignmentStatus = "submitted"
	AssignmentReviewed      AssignmentStatus = "reviewed"
	AssignmentNeedsRevision AssignmentStatus = "needs_revision"
	AssignmentCompleted     AssignmentStatus = "completed"
)

func (s AssignmentStatus) Display() string {
	switch s {
	case AssignmentAssigned:
		return "Assigned"
	case AssignmentInProgress:
		return "In Progress"
	case AssignmentSubmitted:
		return "Submitted"
	case AssignmentReviewed:
		return "Reviewed"
	case AssignmentNeedsRevision:
		return "Needs Revision"
	case AssignmentCompleted:
		return "Completed"
	}
	return string(s)
}

// Assignment is homework for one student, optionally tied to a lesson.
type Assignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`

	LessonID *uuid.UUID `gorm:"type:uuid;index;column:lesson_id" json:"lesson_id,omitempty"`
	Lesson   *Lesson    `gorm:"foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Student   *User     `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`

	DueDate time.Time        `gorm:"not null;index;column:due_date" json:"due_date"`
	Status  AssignmentStatus `gorm:"not null;default:'assigned';index;column:status" json:"status"`

	Grade           *int   `gorm:"column:grade" json:"grade,omitempty"`
	TeacherComments string `gorm:"column:teacher_comments" json:"teacher_comments"`

	CreatedByID *uuid.UUID `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID;references:ID" json:"-"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Submissions []*AssignmentSubmission `gorm:"foreignKey:AssignmentID;references:ID" json:"submissions,omitempty"`
}

func (Assignment) TableName() string { return "assignments" }

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsOverdue is derived, never stored.
func (a *Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.DueDate) && a.Status != AssignmentCompleted
}
