package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
)

// Message is one event on a user's stream. Channel is "user:<uuid>";
// Event names the notification type, Data carries the stored payload.
type Message struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// UserChannel builds the per-user channel name notifications publish to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message
	done     chan struct{}
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// NewClient registers a client subscribed to its own user channel.
func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, 10),
		done:     make(chan struct{}),
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	channel := UserChannel(userID)
	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*Client]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.log.Debug("SSE client connected", "clientID", client.ID, "channel", channel)
	return client
}

func (hub *Hub) RemoveClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel := UserChannel(client.UserID)
	if clients, ok := hub.subscriptions[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
	hub.log.Debug("SSE client disconnected", "clientID", client.ID)
}

func (hub *Hub) Broadcast(msg Message) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if msg.Channel == "" {
		return
	}
	clients, ok := hub.subscriptions[msg.Channel]
	if !ok {
		return
	}
	for c := range clients {
		select {
		case c.Outbound <- msg:
		default:
			hub.log.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID)
		}
	}
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.log.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			jsonBytes, err := json.Marshal(msg)
			if err != nil {
				hub.log.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: message\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}

func (hub *Hub) CloseClient(client *Client) {
	close(client.done)
	hub.RemoveClient(client)
	close(client.Outbound)
}
