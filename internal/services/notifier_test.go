package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func TestNotifyStoresRowAndPublishes(t *testing.T) {
	e := newEnv(t)
	user := e.user(t, types.RoleStudent)
	svc := e.notifier

	svc.Notify(asUser(user), &types.Notification{
		UserID:  user.ID,
		Type:    types.NotifyLessonCreated,
		Title:   "New lesson",
		Message: "tomorrow at 10:00",
	})

	rows, err := svc.ListMine(asUser(user), 50)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(rows))
	}
	if rows[0].IsRead {
		t.Fatal("fresh notification must be unread")
	}
	if len(e.bus.events) != 1 || e.bus.events[0].Title != "New lesson" {
		t.Fatalf("bus events: got %+v", e.bus.events)
	}

	// The stored row carries the event body as its payload.
	var snap NotificationEvent
	if err := json.Unmarshal(rows[0].Payload, &snap); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if snap.Type != types.NotifyLessonCreated || snap.Title != "New lesson" || snap.UserID != user.ID {
		t.Fatalf("payload snapshot: got %+v", snap)
	}

	count, err := svc.UnreadCount(asUser(user))
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("unread: want=1 got=%d", count)
	}
}

func TestMarkReadIsOwnerOnly(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, types.RoleStudent)
	other := e.user(t, types.RoleStudent)
	svc := e.notifier

	svc.Notify(asUser(owner), &types.Notification{
		UserID: owner.ID, Type: types.NotifyLessonCreated, Title: "t", Message: "m",
	})
	rows, err := svc.ListMine(asUser(owner), 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListMine: rows=%d err=%v", len(rows), err)
	}
	id := rows[0].ID

	if err := svc.MarkRead(asUser(other), id); !errors.Is(err, ErrPermission) {
		t.Fatalf("mark by non-owner: want ErrPermission, got %v", err)
	}
	if err := svc.MarkRead(asUser(owner), id); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, err := svc.UnreadCount(asUser(owner))
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("unread after mark: want=0 got=%d", count)
	}
}
