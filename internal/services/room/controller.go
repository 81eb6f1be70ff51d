package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sweeparena/sweeparena/internal/dependencies/clock"
	"github.com/sweeparena/sweeparena/internal/dependencies/random"
	"github.com/sweeparena/sweeparena/internal/model"
	"github.com/sweeparena/sweeparena/internal/services/reveal"
	"github.com/sweeparena/sweeparena/internal/services/turn"
	"github.com/sweeparena/sweeparena/internal/storage"
)

const (
	// RoomCodeLength is the length of generated numeric room codes
	RoomCodeLength = 6

	// codeRetryLimit bounds code generation attempts. Hitting the
	// limit triggers an inactive-room cleanup pass and one more round
	// of attempts before giving up.
	codeRetryLimit = 100

	// InactivityTimeout is how long a room may sit idle before the
	// cleanup sweep removes it.
	InactivityTimeout = 30 * time.Minute
)

// Controller manages the room lifecycle and orchestrates game flow.
// All mutating operations take the room's lock, so check-then-act
// sequences on a single room are atomic while distinct rooms proceed
// in parallel.
type Controller struct {
	storage storage.Storage
	engine  *reveal.Engine
	arbiter *turn.Arbiter
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	locks   *keyedMutex

	// results receives final standings when games end. Optional.
	results ResultSink
}

// NewController creates a new room Controller
func NewController(
	store storage.Storage,
	engine *reveal.Engine,
	arbiter *turn.Arbiter,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: store,
		engine:  engine,
		arbiter: arbiter,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "room-controller")),
		locks:   newKeyedMutex(),
	}
}

// CreateRoom creates a new room with the given player as host and
// returns the room together with the host's minted identity and the
// initial roster snapshot.
func (c *Controller) CreateRoom(
	ctx context.Context,
	displayName string,
	mode model.GameMode,
	difficulty model.Difficulty,
	maxPlayers int,
) (*model.Room, *model.Player, []model.PlayerSnapshot, error) {
	if !model.ValidMode(mode) {
		return nil, nil, nil, model.ErrInvalidMode
	}
	if _, ok := model.PresetFor(difficulty); !ok {
		return nil, nil, nil, model.ErrInvalidDifficulty
	}
	if maxPlayers == 0 {
		maxPlayers = model.DefaultPlayersPerRoom
	}
	if maxPlayers < model.MinPlayersPerRoom || maxPlayers > model.MaxPlayersPerRoom {
		return nil, nil, nil, model.ErrInvalidMaxPlayers
	}

	code, err := c.generateCode(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	now := c.clock.Now()
	host := model.Player{
		ID:          model.PlayerID(uuid.NewString()),
		DisplayName: displayName,
		IsHost:      true,
		Connected:   true,
		JoinedAt:    now,
	}
	room := &model.Room{
		Code:         code,
		Status:       model.RoomStatusWaiting,
		Mode:         mode,
		Difficulty:   difficulty,
		MaxPlayers:   maxPlayers,
		Players:      []model.Player{host},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}

	// Snapshot before SaveRoom publishes the code: once saved, other
	// joins can lock and mutate the shared room.
	roster := model.SnapshotPlayers(room)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, nil, err
	}

	c.logger.Info("room created",
		slog.String("room", string(code)),
		slog.String("mode", string(mode)),
		slog.String("difficulty", string(difficulty)),
	)
	return room, &host, roster, nil
}

// JoinRoom adds a player to an existing waiting room. The returned
// roster snapshot is taken under the room lock so callers can broadcast
// it without re-reading the shared room.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, displayName string) (*model.Room, *model.Player, []model.PlayerSnapshot, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	switch room.Status {
	case model.RoomStatusInProgress:
		return nil, nil, nil, model.ErrGameInProgress
	case model.RoomStatusEnded:
		return nil, nil, nil, model.ErrRoomEnded
	}
	if room.IsFull() {
		return nil, nil, nil, model.ErrRoomFull
	}

	now := c.clock.Now()
	player := model.Player{
		ID:          model.PlayerID(uuid.NewString()),
		DisplayName: displayName,
		Connected:   true,
		JoinedAt:    now,
	}
	room.Players = append(room.Players, player)
	c.touch(room, now)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, nil, err
	}
	return room, &player, model.SnapshotPlayers(room), nil
}

// SetReady marks a player ready and starts the game once every
// connected player is ready and at least two of them are present.
// Events describe the roster change and, when triggered, the start.
func (c *Controller) SetReady(ctx context.Context, code model.RoomCode, playerID model.PlayerID, ready bool) ([]model.Event, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusWaiting {
		return nil, model.ErrGameInProgress
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrNotInRoom
	}

	player.Ready = ready
	c.touch(room, c.clock.Now())

	events := []model.Event{
		c.event(model.EventPlayerReadyUpdate, room, playerID, model.SnapshotPlayers(room)),
	}

	if ready && room.ReadyCount() >= model.MinPlayersPerRoom && room.ReadyCount() == room.ConnectedCount() {
		startEvents, err := c.startGame(ctx, room)
		if err != nil {
			return nil, err
		}
		events = append(events, startEvents...)
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// ChangeMode switches the room's game mode while waiting. Host only.
func (c *Controller) ChangeMode(ctx context.Context, code model.RoomCode, playerID model.PlayerID, mode model.GameMode) ([]model.Event, error) {
	if !model.ValidMode(mode) {
		return nil, model.ErrInvalidMode
	}

	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusWaiting {
		return nil, model.ErrGameInProgress
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrNotInRoom
	}
	if !player.IsHost {
		return nil, model.ErrNotHost
	}

	room.Mode = mode
	c.touch(room, c.clock.Now())

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return []model.Event{
		c.event(model.EventModeChanged, room, playerID, mode),
	}, nil
}

// LeaveRoom removes a player for good: their slot, score and state are
// discarded. Host duty passes to the next player in join order. An
// emptied room is torn down.
func (c *Controller) LeaveRoom(ctx context.Context, code model.RoomCode, playerID model.PlayerID) ([]model.Event, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrNotInRoom
	}
	wasHost := player.IsHost
	displayName := player.DisplayName

	for i := range room.Players {
		if room.Players[i].ID == playerID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		if err := c.teardown(ctx, room); err != nil {
			return nil, err
		}
		return nil, nil
	}

	events := []model.Event{
		c.event(model.EventPlayerLeft, room, playerID, model.PlayerSnapshot{ID: playerID, DisplayName: displayName}),
	}

	if wasHost {
		room.Players[0].IsHost = true
		events = append(events, c.event(model.EventHostChanged, room, room.Players[0].ID, model.SnapshotPlayers(room)))
	}

	departureEvents, err := c.handleDeparture(ctx, room, playerID)
	if err != nil {
		return nil, err
	}
	events = append(events, departureEvents...)

	c.touch(room, c.clock.Now())
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// MarkDisconnected flags a player as disconnected without removing
// them, preserving their slot for the reconnection grace window.
func (c *Controller) MarkDisconnected(ctx context.Context, code model.RoomCode, playerID model.PlayerID) ([]model.Event, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrNotInRoom
	}

	player.Connected = false
	player.Ready = false

	events := []model.Event{
		c.event(model.EventPlayerReadyUpdate, room, playerID, model.SnapshotPlayers(room)),
	}

	departureEvents, err := c.handleDeparture(ctx, room, playerID)
	if err != nil {
		return nil, err
	}
	events = append(events, departureEvents...)

	c.touch(room, c.clock.Now())
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// Reconnect restores a disconnected player's slot, scores and
// elimination state intact. The roster snapshot is taken under the
// room lock.
func (c *Controller) Reconnect(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, []model.PlayerSnapshot, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, nil, model.ErrNotInRoom
	}

	player.Connected = true
	c.touch(room, c.clock.Now())

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}
	return room, model.SnapshotPlayers(room), nil
}

// GetRoom returns the current room state.
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, code)
}

// RemoveIfAbandoned tears the room down when every player is still
// disconnected. The connection registry schedules this after the
// grace period.
func (c *Controller) RemoveIfAbandoned(ctx context.Context, code model.RoomCode) (bool, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	if room.ConnectedCount() > 0 {
		return false, nil
	}
	if err := c.teardown(ctx, room); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupInactive removes rooms idle past the inactivity timeout and
// returns how many were removed. Runs from the background sweep and
// from code-generation pressure.
func (c *Controller) CleanupInactive(ctx context.Context) (int, error) {
	codes, err := c.storage.ListRoomCodes(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := c.clock.Now().Add(-InactivityTimeout)
	removed := 0
	for _, code := range codes {
		c.locks.Lock(code)
		room, err := c.storage.GetRoom(ctx, code)
		if err == nil && room.LastActiveAt.Before(cutoff) {
			if err := c.teardown(ctx, room); err != nil {
				c.locks.Unlock(code)
				return removed, err
			}
			removed++
		}
		c.locks.Unlock(code)
	}

	if removed > 0 {
		c.logger.Info("cleaned up inactive rooms", slog.Int("removed", removed))
	}
	return removed, nil
}

// RunCleanupLoop sweeps inactive rooms on the given interval until the
// context is cancelled.
func (c *Controller) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.CleanupInactive(ctx); err != nil {
				c.logger.Error("inactive room cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}

// generateCode mints a unique 6-digit numeric room code. After the
// retry limit it runs a cleanup pass to reclaim codes held by dead
// rooms and tries once more, then reports exhaustion rather than loop
// forever.
func (c *Controller) generateCode(ctx context.Context) (model.RoomCode, error) {
	for pass := 0; pass < 2; pass++ {
		for attempt := 0; attempt < codeRetryLimit; attempt++ {
			code := model.RoomCode(c.random.Digits(RoomCodeLength))
			exists, err := c.storage.RoomExists(ctx, code)
			if err != nil {
				return "", err
			}
			if !exists {
				return code, nil
			}
		}
		if pass == 0 {
			c.logger.Warn("room code space under pressure, running cleanup")
			if _, err := c.CleanupInactive(ctx); err != nil {
				return "", err
			}
		}
	}
	return "", model.ErrRoomCodesExhausted
}

// handleDeparture deals with the game-flow consequences of a player
// becoming unavailable mid-game: turn-ordered modes skip their turn
// immediately and may end on a last player standing.
func (c *Controller) handleDeparture(ctx context.Context, room *model.Room, playerID model.PlayerID) ([]model.Event, error) {
	if room.Status != model.RoomStatusInProgress {
		return nil, nil
	}
	session, err := c.storage.GetSession(ctx, room.Code)
	if err != nil {
		return nil, err
	}
	if session.Ended() || !session.Mode.TurnOrdered() {
		return nil, nil
	}

	var events []model.Event

	if last := c.arbiter.LastEligible(room); last != nil {
		endEvents, err := c.endTurnOrderedWithWinner(ctx, room, session, last.ID)
		if err != nil {
			return nil, err
		}
		return append(events, endEvents...), nil
	}

	if room.CurrentTurnPlayerID != nil && *room.CurrentTurnPlayerID == playerID {
		next, err := c.arbiter.Advance(room, session)
		if err != nil {
			return nil, err
		}
		if err := c.storage.SaveSession(ctx, session); err != nil {
			return nil, err
		}
		events = append(events, c.event(model.EventTurnChanged, room, next, model.TurnChangedPayload{CurrentTurn: next}))
	}
	return events, nil
}

// teardown deletes a room and its session.
func (c *Controller) teardown(ctx context.Context, room *model.Room) error {
	if err := c.storage.DeleteSession(ctx, room.Code); err != nil {
		return err
	}
	if err := c.storage.DeleteRoom(ctx, room.Code); err != nil {
		return err
	}
	c.logger.Info("room torn down", slog.String("room", string(room.Code)))
	return nil
}

func (c *Controller) touch(room *model.Room, now time.Time) {
	room.UpdatedAt = now
	room.LastActiveAt = now
}

func (c *Controller) event(t model.EventType, room *model.Room, playerID model.PlayerID, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: c.clock.Now(),
		RoomCode:  room.Code,
		PlayerID:  playerID,
		Payload:   payload,
	}
}
