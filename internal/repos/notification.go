package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notification *types.Notification) (*types.Notification, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Notification, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID, readAt time.Time) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, notification *types.Notification) (*types.Notification, error) {
	if err := r.handle(tx).WithContext(ctx).Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

func (r *notificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Notification, error) {
	var notification types.Notification
	if err := r.handle(tx).WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*types.Notification
	if err := r.handle(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *notificationRepo) UnreadCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID, readAt time.Time) error {
	return r.handle(tx).WithContext(ctx).
		Model(&types.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
}
