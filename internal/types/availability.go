package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilitySlot is one weekly availability window of a teacher, used by
// methodists when planning lessons. DayOfWeek is ISO: 1=Monday .. 7=Sunday;
// start/end are minutes-of-day in the teacher's own timezone.
type AvailabilitySlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index:idx_slot,unique" json:"teacher_id"`
	Teacher   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TeacherID;references:ID" json:"-"`

	DayOfWeek    int  `gorm:"not null;index:idx_slot,unique;column:day_of_week" json:"day_of_week"`
	StartMinute  int  `gorm:"not null;index:idx_slot,unique;column:start_minute" json:"start_minute"`
	EndMinute    int  `gorm:"not null;index:idx_slot,unique;column:end_minute" json:"end_minute"`
	IsAvailable  bool `gorm:"not null;default:true;column:is_available" json:"is_available"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AvailabilitySlot) TableName() string { return "availability_slots" }

func (s *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
