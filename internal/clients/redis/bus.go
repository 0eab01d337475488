package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/services"
	"github.com/drivewise/drivewise-backend/internal/sse"
)

// NotificationBus relays stored notifications over a Redis channel so
// every API instance can deliver them to its own SSE clients. Implements
// services.NotificationBus.
type NotificationBus interface {
	Publish(ctx context.Context, event services.NotificationEvent) error
	StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error
	Close() error
}

type notificationBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewNotificationBus(log *logger.Logger) (NotificationBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &notificationBus{
		log:     log.With("service", "RedisNotificationBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *notificationBus) Publish(ctx context.Context, event services.NotificationEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis notification bus not initialized")
	}
	msg := sse.Message{
		Channel: sse.UserChannel(event.UserID),
		Event:   string(event.Type),
		Data:    event,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *notificationBus) StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis notification bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg sse.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis notification payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *notificationBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
