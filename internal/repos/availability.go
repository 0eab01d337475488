package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type AvailabilityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, slot *types.AvailabilitySlot) (*types.AvailabilitySlot, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AvailabilitySlot, error)
	Save(ctx context.Context, tx *gorm.DB, slot *types.AvailabilitySlot) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.AvailabilitySlot, error)
}

type availabilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAvailabilityRepo(db *gorm.DB, baseLog *logger.Logger) AvailabilityRepo {
	return &availabilityRepo{db: db, log: baseLog.With("repo", "AvailabilityRepo")}
}

func (r *availabilityRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *availabilityRepo) Create(ctx context.Context, tx *gorm.DB, slot *types.AvailabilitySlot) (*types.AvailabilitySlot, error) {
	if err := r.handle(tx).WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *availabilityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AvailabilitySlot, error) {
	var slot types.AvailabilitySlot
	if err := r.handle(tx).WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *availabilityRepo) Save(ctx context.Context, tx *gorm.DB, slot *types.AvailabilitySlot) error {
	return r.handle(tx).WithContext(ctx).Save(slot).Error
}

func (r *availabilityRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.handle(tx).WithContext(ctx).Delete(&types.AvailabilitySlot{}, "id = ?", id).Error
}

func (r *availabilityRepo) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.AvailabilitySlot, error) {
	var slots []*types.AvailabilitySlot
	if err := r.handle(tx).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("day_of_week, start_minute").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}
