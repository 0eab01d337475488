package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

// NotificationEvent is the wire form pushed onto the realtime bus after
// the row is stored.
type NotificationEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Type           types.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	LessonID       *uuid.UUID             `json:"lesson_id,omitempty"`
	AssignmentID   *uuid.UUID             `json:"assignment_id,omitempty"`
}

// NotificationBus fans a stored notification out for live delivery.
// Implementations must be safe for concurrent use.
type NotificationBus interface {
	Publish(ctx context.Context, event NotificationEvent) error
}

type NotificationService interface {
	// Notify stores and publishes, best-effort: any failure is logged and
	// swallowed so the operation that produced the event never rolls back
	// over a notification.
	Notify(ctx context.Context, n *types.Notification)
	ListMine(ctx context.Context, limit int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type notificationService struct {
	db    *gorm.DB
	log   *logger.Logger
	clock Clock
	repo  repos.NotificationRepo
	bus   NotificationBus // nil when realtime delivery is disabled
}

func NewNotificationService(db *gorm.DB, log *logger.Logger, clock Clock, repo repos.NotificationRepo, bus NotificationBus) NotificationService {
	return &notificationService{
		db:    db,
		log:   log.With("service", "NotificationService"),
		clock: clock,
		repo:  repo,
		bus:   bus,
	}
}

func (s *notificationService) Notify(ctx context.Context, n *types.Notification) {
	if n == nil || n.UserID == uuid.Nil {
		return
	}
	if len(n.Payload) == 0 {
		// The payload snapshots the event body, so a client that missed the
		// live push can re-render it from the row alone.
		if raw, err := json.Marshal(NotificationEvent{
			UserID:       n.UserID,
			Type:         n.Type,
			Title:        n.Title,
			Message:      n.Message,
			LessonID:     n.LessonID,
			AssignmentID: n.AssignmentID,
		}); err == nil {
			n.Payload = datatypes.JSON(raw)
		}
	}
	stored, err := s.repo.Create(ctx, nil, n)
	if err != nil {
		s.log.Warn("failed to store notification", "user_id", n.UserID, "type", n.Type, "error", err)
		return
	}
	if s.bus == nil {
		return
	}
	event := NotificationEvent{
		NotificationID: stored.ID,
		UserID:         stored.UserID,
		Type:           stored.Type,
		Title:          stored.Title,
		Message:        stored.Message,
		LessonID:       stored.LessonID,
		AssignmentID:   stored.AssignmentID,
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish notification event", "notification_id", stored.ID, "error", err)
	}
}

func (s *notificationService) ListMine(ctx context.Context, limit int) ([]*types.Notification, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	return s.repo.ListByUser(ctx, nil, rd.UserID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return 0, ErrPermission
	}
	return s.repo.UnreadCount(ctx, nil, rd.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrPermission
	}
	notification, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return ErrNotFound
	}
	if notification.UserID != rd.UserID {
		return ErrPermission
	}
	return s.repo.MarkRead(ctx, nil, id, s.clock.Now())
}
