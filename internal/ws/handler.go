package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/sweeparena/sweeparena/internal/dependencies/clock"
	"github.com/sweeparena/sweeparena/internal/metrics"
	"github.com/sweeparena/sweeparena/internal/model"
	"github.com/sweeparena/sweeparena/internal/services/room"
)

// Handler upgrades websocket connections and dispatches client intents
// to the room controller, broadcasting the resulting events through
// the hub.
type Handler struct {
	rooms    *room.Controller
	hub      *Hub
	registry *Registry
	clock    clock.Clock
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new websocket Handler.
func NewHandler(
	rooms *room.Controller,
	hub *Hub,
	registry *Registry,
	clk clock.Clock,
	allowedOrigin string,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		rooms:    rooms,
		hub:      hub,
		registry: registry,
		clock:    clk,
		logger:   logger.With(slog.String("component", "ws-handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	hub.SetCounters(metrics.EventsDelivered.Inc, metrics.EventsDropped.Inc)
	return h
}

// ServeHTTP upgrades the connection and runs its pumps until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	c := newClient(conn, h, h.logger)
	c.run()
}

// dispatch routes one raw client message. Malformed or out-of-context
// intents are answered with an error to the sender only; they never
// disturb the room.
func (h *Handler) dispatch(c *Client, raw []byte) {
	var intent Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		h.sendError(c, "malformed_intent", "message is not valid JSON")
		return
	}

	metrics.IntentsTotal.WithLabelValues(string(intent.Type)).Inc()
	ctx := context.Background()

	var err error
	switch intent.Type {
	case IntentCreateRoom:
		err = h.handleCreate(ctx, c, intent)
	case IntentJoinRoom:
		err = h.handleJoin(ctx, c, intent)
	case IntentReconnect:
		err = h.handleReconnect(ctx, c, intent)
	case IntentPlayerReady:
		err = h.handleReady(ctx, c, intent)
	case IntentReveal:
		err = h.handleBoardAction(ctx, c, intent, h.rooms.HandleReveal)
	case IntentFlag:
		err = h.handleBoardAction(ctx, c, intent, h.rooms.HandleFlag)
	case IntentChangeMode:
		err = h.handleChangeMode(ctx, c, intent)
	case IntentLeaveRoom:
		err = h.handleLeave(ctx, c)
	default:
		h.sendError(c, "unknown_intent", "unrecognized intent type")
		return
	}

	if err != nil {
		code := errorCode(err)
		metrics.IntentErrors.WithLabelValues(code).Inc()
		h.sendError(c, code, err.Error())
	}
}

func (h *Handler) handleCreate(ctx context.Context, c *Client, intent Intent) error {
	rm, player, roster, err := h.rooms.CreateRoom(
		ctx,
		displayName(intent.DisplayName),
		model.GameMode(intent.Mode),
		model.Difficulty(intent.Difficulty),
		intent.MaxPlayers,
	)
	if err != nil {
		return err
	}

	h.registry.Bind(c, rm.Code, player.ID)
	h.hub.Join(rm.Code, c)
	h.sendWelcome(c, model.EventRoomCreated, rm, player.ID, roster)
	return nil
}

func (h *Handler) handleJoin(ctx context.Context, c *Client, intent Intent) error {
	rm, player, roster, err := h.rooms.JoinRoom(ctx, model.RoomCode(intent.Code), displayName(intent.DisplayName))
	if err != nil {
		return err
	}

	h.registry.Bind(c, rm.Code, player.ID)
	h.hub.Join(rm.Code, c)
	h.sendWelcome(c, model.EventRoomJoined, rm, player.ID, roster)

	h.hub.BroadcastEvents([]model.Event{{
		Type:      model.EventPlayerJoined,
		Timestamp: h.clock.Now(),
		RoomCode:  rm.Code,
		PlayerID:  player.ID,
		Payload:   roster,
	}})
	return nil
}

func (h *Handler) handleReconnect(ctx context.Context, c *Client, intent Intent) error {
	code := model.RoomCode(intent.Code)
	playerID := model.PlayerID(intent.PlayerID)

	rm, roster, err := h.rooms.Reconnect(ctx, code, playerID)
	if err != nil {
		return err
	}

	h.registry.Bind(c, code, playerID)
	h.hub.Join(code, c)
	h.sendWelcome(c, model.EventRoomJoined, rm, playerID, roster)

	h.hub.BroadcastEvents([]model.Event{{
		Type:      model.EventPlayerReadyUpdate,
		Timestamp: h.clock.Now(),
		RoomCode:  code,
		PlayerID:  playerID,
		Payload:   roster,
	}})
	return nil
}

func (h *Handler) handleReady(ctx context.Context, c *Client, intent Intent) error {
	b, ok := h.registry.Lookup(c)
	if !ok {
		return model.ErrNotInRoom
	}

	ready := true
	if intent.Ready != nil {
		ready = *intent.Ready
	}

	events, err := h.rooms.SetReady(ctx, b.Code, b.PlayerID, ready)
	if err != nil {
		return err
	}
	h.countGameStarts(events)
	h.hub.BroadcastEvents(events)
	return nil
}

type boardAction func(ctx context.Context, code model.RoomCode, playerID model.PlayerID, pos model.Position) ([]model.Event, error)

func (h *Handler) handleBoardAction(ctx context.Context, c *Client, intent Intent, action boardAction) error {
	b, ok := h.registry.Lookup(c)
	if !ok {
		return model.ErrNotInRoom
	}

	events, err := action(ctx, b.Code, b.PlayerID, model.Position{Row: intent.Row, Col: intent.Col})
	if err != nil {
		return err
	}
	h.countGameEnds(events)
	h.hub.BroadcastEvents(events)
	return nil
}

func (h *Handler) handleChangeMode(ctx context.Context, c *Client, intent Intent) error {
	b, ok := h.registry.Lookup(c)
	if !ok {
		return model.ErrNotInRoom
	}

	events, err := h.rooms.ChangeMode(ctx, b.Code, b.PlayerID, model.GameMode(intent.Mode))
	if err != nil {
		return err
	}
	h.hub.BroadcastEvents(events)
	return nil
}

func (h *Handler) handleLeave(ctx context.Context, c *Client) error {
	b, ok := h.registry.Unbind(c)
	if !ok {
		return model.ErrNotInRoom
	}
	h.hub.Leave(b.Code, c)

	events, err := h.rooms.LeaveRoom(ctx, b.Code, b.PlayerID)
	if err != nil {
		return err
	}
	h.hub.BroadcastEvents(events)
	return nil
}

// onDisconnect runs when a connection's read pump exits. The player is
// marked disconnected, not removed; the registry arms the grace timer
// that removes them if they never come back.
func (h *Handler) onDisconnect(c *Client) {
	b, ok := h.registry.Unbind(c)
	if !ok {
		return
	}
	h.hub.Leave(b.Code, c)

	ctx := context.Background()
	events, err := h.rooms.MarkDisconnected(ctx, b.Code, b.PlayerID)
	if err != nil {
		// Room may already be gone; nothing to announce.
		return
	}
	h.countGameEnds(events)
	h.hub.BroadcastEvents(events)

	h.registry.ScheduleRemoval(b, h.removeAfterGrace)
}

// removeAfterGrace runs when a disconnect grace timer fires: the
// player's slot is released for good.
func (h *Handler) removeAfterGrace(b Binding) {
	ctx := context.Background()

	events, err := h.rooms.LeaveRoom(ctx, b.Code, b.PlayerID)
	if err != nil {
		return
	}
	h.countGameEnds(events)
	h.hub.BroadcastEvents(events)

	if removed, err := h.rooms.RemoveIfAbandoned(ctx, b.Code); err == nil && removed {
		h.logger.Info("abandoned room removed", slog.String("room", string(b.Code)))
	}
}

// RunClockLoop settles countdown clocks on an interval so expiry fires
// even in idle rooms. Blocks until the context is cancelled.
func (h *Handler) RunClockLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			perRoom, err := h.rooms.TickClocks(ctx)
			if err != nil {
				h.logger.Error("clock tick sweep failed", slog.String("error", err.Error()))
				continue
			}
			for _, events := range perRoom {
				h.countGameEnds(events)
				h.hub.BroadcastEvents(events)
			}
		}
	}
}

func (h *Handler) sendWelcome(c *Client, t model.EventType, rm *model.Room, playerID model.PlayerID, roster []model.PlayerSnapshot) {
	h.sendEvent(c, model.Event{
		Type:      t,
		Timestamp: h.clock.Now(),
		RoomCode:  rm.Code,
		PlayerID:  playerID,
		Payload: WelcomePayload{
			Code:       rm.Code,
			PlayerID:   playerID,
			Mode:       rm.Mode,
			Difficulty: rm.Difficulty,
			MaxPlayers: rm.MaxPlayers,
			Players:    roster,
		},
	})
}

func (h *Handler) sendEvent(c *Client, ev model.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		h.logger.Error("event encoding failed", slog.String("error", err.Error()))
		return
	}
	c.enqueue(data)
}

func (h *Handler) sendError(c *Client, code, message string) {
	h.sendEvent(c, model.Event{
		Type:      model.EventError,
		Timestamp: h.clock.Now(),
		Payload:   ErrorPayload{Code: code, Message: message},
	})
}

func (h *Handler) countGameStarts(events []model.Event) {
	for _, ev := range events {
		if ev.Type == model.EventGameStart {
			if p, ok := ev.Payload.(model.GameStartPayload); ok {
				metrics.GamesStarted.WithLabelValues(string(p.Mode)).Inc()
			}
		}
	}
}

func (h *Handler) countGameEnds(events []model.Event) {
	for _, ev := range events {
		if ev.Type == model.EventGameEnded {
			if p, ok := ev.Payload.(model.GameEndedPayload); ok {
				metrics.GamesEnded.WithLabelValues(string(p.Outcome)).Inc()
			}
		}
	}
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "player"
	}
	// Truncate on a rune boundary so multi-byte names stay valid UTF-8.
	const maxNameLen = 32
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}
