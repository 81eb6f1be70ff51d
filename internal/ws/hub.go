package ws

import (
	"log/slog"
	"sync"

	"github.com/sweeparena/sweeparena/internal/model"
)

// Hub fans broadcast events out to every connection in a room. Sends
// are non-blocking: a connection whose buffer is full misses the
// message rather than stalling delivery to the rest of the room.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[model.RoomCode]map[*Client]struct{}
	logger  *slog.Logger
	onDrop  func()
	onEvent func()
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[model.RoomCode]map[*Client]struct{}),
		logger: logger.With(slog.String("component", "ws-hub")),
	}
}

// SetCounters attaches optional metric hooks for delivered and dropped
// messages.
func (h *Hub) SetCounters(onEvent, onDrop func()) {
	h.onEvent = onEvent
	h.onDrop = onDrop
}

// Join adds a connection to a room's broadcast set.
func (h *Hub) Join(code model.RoomCode, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[code] = members
	}
	members[c] = struct{}{}
}

// Leave removes a connection from a room's broadcast set.
func (h *Hub) Leave(code model.RoomCode, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// Broadcast queues data for every connection in the room.
func (h *Hub) Broadcast(code model.RoomCode, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		if !c.enqueue(data) {
			if h.onDrop != nil {
				h.onDrop()
			}
			h.logger.Warn("dropping message for slow connection",
				slog.String("room", string(code)),
			)
			continue
		}
		if h.onEvent != nil {
			h.onEvent()
		}
	}
}

// BroadcastEvents encodes and delivers a batch of events to their
// rooms.
func (h *Hub) BroadcastEvents(events []model.Event) {
	for _, ev := range events {
		data, err := encodeEvent(ev)
		if err != nil {
			h.logger.Error("event encoding failed",
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()),
			)
			continue
		}
		h.Broadcast(ev.RoomCode, data)
	}
}

// RoomSize returns the number of live connections in a room.
func (h *Hub) RoomSize(code model.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
