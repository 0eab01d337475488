package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LessonFile is the stored handle of one uploaded lesson material. The
// bytes live in the bucket; only derived metadata is kept here.
type LessonFile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`

	BucketKey    string `gorm:"not null;column:bucket_key" json:"bucket_key"`
	OriginalName string `gorm:"not null;column:original_name" json:"original_name"`
	ContentType  string `gorm:"column:content_type" json:"content_type"`
	FileSize     int64  `gorm:"not null;column:file_size" json:"file_size"`

	// Visible to the lesson's teacher and methodists only.
	IsTeacherMaterial bool `gorm:"not null;default:false;column:is_teacher_material" json:"is_teacher_material"`

	UploadedAt time.Time `gorm:"not null;autoCreateTime;column:uploaded_at" json:"uploaded_at"`
}

func (LessonFile) TableName() string { return "lesson_files" }

func (f *LessonFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
