package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProblemType string

const (
	ProblemConnection ProblemType = "connection"
	ProblemAudio      ProblemType = "audio"
	ProblemVideo      ProblemType = "video"
	ProblemTechnical  ProblemType = "technical"
	ProblemOther      ProblemType = "other"
)

func ParseProblemType(s string) (ProblemType, bool) {
	switch ProblemType(s) {
	case ProblemConnection, ProblemAudio, ProblemVideo, ProblemTechnical, ProblemOther:
		return ProblemType(s), true
	}
	return "", false
}

// ProblemReport is filed by a lesson participant during or after a lesson
// and resolved by a methodist.
type ProblemReport struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID   uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson     *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter   *User     `gorm:"foreignKey:ReporterID;references:ID" json:"reporter,omitempty"`

	ProblemType ProblemType `gorm:"not null;default:'other';column:problem_type" json:"problem_type"`
	Description string      `gorm:"not null;column:description" json:"description"`

	IsResolved   bool       `gorm:"not null;default:false;column:is_resolved" json:"is_resolved"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedByID *uuid.UUID `gorm:"type:uuid;column:resolved_by_id" json:"resolved_by_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ProblemReport) TableName() string { return "problem_reports" }

func (p *ProblemReport) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
