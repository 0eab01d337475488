package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LessonFeedback is one rating+comment from one participant about one
// completed lesson. The unique index is the backstop against concurrent
// double submission; rows are immutable once created.
type LessonFeedback struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_user,unique" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_user,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	IsTeacher bool   `gorm:"not null;default:false;column:is_teacher" json:"is_teacher"`
	Rating    int    `gorm:"not null;column:rating" json:"rating"`
	Comment   string `gorm:"column:comment" json:"comment"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (LessonFeedback) TableName() string { return "lesson_feedback" }

func (f *LessonFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
