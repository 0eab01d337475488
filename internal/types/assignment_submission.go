package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentSubmission is one versioned submission. Version is monotonic
// per assignment and exactly one row per assignment carries is_final=true
// (the most recent); older versions stay as history.
type AssignmentSubmission struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assignment_id"`
	Assignment   *Assignment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssignmentID;references:ID" json:"-"`

	Version int `gorm:"not null;default:1;column:version" json:"version"`

	BucketKey    string `gorm:"not null;column:bucket_key" json:"bucket_key"`
	OriginalName string `gorm:"not null;column:original_name" json:"original_name"`
	ContentType  string `gorm:"column:content_type" json:"content_type"`
	FileSize     int64  `gorm:"not null;column:file_size" json:"file_size"`

	Comments string `gorm:"column:comments" json:"comments"`
	IsFinal  bool   `gorm:"not null;default:true;column:is_final" json:"is_final"`

	SubmittedAt time.Time `gorm:"not null;autoCreateTime;column:submitted_at" json:"submitted_at"`
}

func (AssignmentSubmission) TableName() string { return "assignment_submissions" }

func (s *AssignmentSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
