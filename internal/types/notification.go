package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyLessonCreated       NotificationType = "lesson_created"
	NotifyLessonUpdated       NotificationType = "lesson_updated"
	NotifyLessonCancelled     NotificationType = "lesson_cancelled"
	NotifyLessonCompleted     NotificationType = "lesson_completed"
	NotifyAssignmentAssigned  NotificationType = "assignment_assigned"
	NotifyAssignmentSubmitted NotificationType = "assignment_submitted"
	NotifyAssignmentReviewed  NotificationType = "assignment_reviewed"
	NotifyAssignmentRevision  NotificationType = "assignment_revision"
	NotifyProblemReported     NotificationType = "problem_reported"
)

// Notification is a one-way message to a user. The core only creates rows
// and applies the mark-read mutation; delivery failure never propagates
// back into the operation that produced the event.
type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	Type    NotificationType `gorm:"not null;column:type" json:"type"`
	Title   string           `gorm:"not null;column:title" json:"title"`
	Message string           `gorm:"not null;column:message" json:"message"`

	LessonID     *uuid.UUID     `gorm:"type:uuid;index;column:lesson_id" json:"lesson_id,omitempty"`
	AssignmentID *uuid.UUID     `gorm:"type:uuid;index;column:assignment_id" json:"assignment_id,omitempty"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`

	IsRead bool       `gorm:"not null;default:false;index;column:is_read" json:"is_read"`
	ReadAt *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	SentAt time.Time  `gorm:"not null;autoCreateTime;column:sent_at" json:"sent_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
