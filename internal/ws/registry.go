package ws

import (
	"sync"
	"time"

	"github.com/sweeparena/sweeparena/internal/model"
)

// DefaultGracePeriod is how long a disconnected player's slot is held
// open for reconnection before removal.
const DefaultGracePeriod = 60 * time.Second

// Binding ties a connection to the player it acts as.
type Binding struct {
	Code     model.RoomCode
	PlayerID model.PlayerID
}

// Registry maps live connections to their bindings and owns the
// disconnect grace timers. A player who reconnects within the grace
// window resumes their slot with scores and elimination state intact.
type Registry struct {
	mu       sync.Mutex
	grace    time.Duration
	bindings map[*Client]Binding
	timers   map[model.PlayerID]*time.Timer
}

// NewRegistry creates a Registry with the given grace period.
func NewRegistry(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Registry{
		grace:    grace,
		bindings: make(map[*Client]Binding),
		timers:   make(map[model.PlayerID]*time.Timer),
	}
}

// Bind records a connection's identity. Any pending removal for the
// player is cancelled: this is the reconnection path.
func (r *Registry) Bind(c *Client, code model.RoomCode, playerID model.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[c] = Binding{Code: code, PlayerID: playerID}
	r.cancelLocked(playerID)
}

// Lookup resolves a connection to its binding.
func (r *Registry) Lookup(c *Client) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[c]
	return b, ok
}

// Unbind removes a connection and returns the binding it held.
func (r *Registry) Unbind(c *Client) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[c]
	if ok {
		delete(r.bindings, c)
	}
	return b, ok
}

// ScheduleRemoval arms the grace timer for a disconnected player. When
// it fires without a reconnect, fn runs with the player's binding.
func (r *Registry) ScheduleRemoval(b Binding, fn func(Binding)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked(b.PlayerID)
	r.timers[b.PlayerID] = time.AfterFunc(r.grace, func() {
		r.mu.Lock()
		delete(r.timers, b.PlayerID)
		r.mu.Unlock()
		fn(b)
	})
}

// CancelRemoval disarms a pending grace timer. Reports whether one was
// armed.
func (r *Registry) CancelRemoval(playerID model.PlayerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked(playerID)
}

// PendingRemovals returns the number of armed grace timers.
func (r *Registry) PendingRemovals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop disarms every grace timer. Used on shutdown.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

func (r *Registry) cancelLocked(playerID model.PlayerID) bool {
	t, ok := r.timers[playerID]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, playerID)
	return true
}
