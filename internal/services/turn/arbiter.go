package turn

import (
	"log/slog"
	"time"

	"github.com/sweeparena/sweeparena/internal/dependencies/clock"
	"github.com/sweeparena/sweeparena/internal/model"
)

// Clock budgets for the timed modes.
const (
	// ChessClockBudget is each player's full countdown in chess-clock
	// mode. Only the current-turn player's clock runs.
	ChessClockBudget = 2 * time.Minute

	// SharedCountdown is the single shared countdown in
	// timed-countdown mode.
	SharedCountdown = 3 * time.Minute

	// RevealBonus is added to the shared countdown for every direct
	// safe reveal. Flood-filled cells earn no bonus.
	RevealBonus = 2 * time.Second
)

// Arbiter enforces turn order and runs the countdown clocks. Like the
// reveal engine it only mutates the room and session it is handed; the
// caller holds the room lock.
type Arbiter struct {
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new Arbiter
func New(clk clock.Clock, logger *slog.Logger) *Arbiter {
	return &Arbiter{
		clock:  clk,
		logger: logger.With(slog.String("component", "turn-arbiter")),
	}
}

// Begin initializes turn and clock state for a fresh session. In
// turn-ordered modes the first eligible player in join order opens.
func (a *Arbiter) Begin(room *model.Room, session *model.GameSession) error {
	now := a.clock.Now()
	session.TurnStartedAt = now

	switch session.Mode {
	case model.ModeChessClk:
		session.Clocks = make(map[model.PlayerID]time.Duration, len(room.Players))
		for i := range room.Players {
			session.Clocks[room.Players[i].ID] = ChessClockBudget
		}
	case model.ModeTimed:
		session.SharedRemaining = SharedCountdown
	}

	if !session.Mode.TurnOrdered() {
		room.CurrentTurnPlayerID = nil
		return nil
	}

	for i := range room.Players {
		if room.Players[i].Eligible() {
			id := room.Players[i].ID
			room.CurrentTurnPlayerID = &id
			return nil
		}
	}
	return model.ErrNoEligiblePlayers
}

// ValidateActor rejects an action from anyone but the current-turn
// player in turn-ordered modes. Free-for-all modes accept any eligible
// actor.
func (a *Arbiter) ValidateActor(room *model.Room, session *model.GameSession, actor model.PlayerID) error {
	if !session.Mode.TurnOrdered() {
		return nil
	}
	if room.CurrentTurnPlayerID == nil || *room.CurrentTurnPlayerID != actor {
		return model.ErrNotPlayerTurn
	}
	return nil
}

// Advance rotates the turn to the next eligible player in join order,
// wrapping around. The departing player's chess clock is charged and
// paused; the incoming player's starts. The search is bounded at the
// player count, so a room where everyone became ineligible at once
// returns ErrNoEligiblePlayers instead of spinning.
func (a *Arbiter) Advance(room *model.Room, session *model.GameSession) (model.PlayerID, error) {
	now := a.clock.Now()

	start := 0
	if room.CurrentTurnPlayerID != nil {
		for i := range room.Players {
			if room.Players[i].ID == *room.CurrentTurnPlayerID {
				start = i
				break
			}
		}
		a.chargeCurrent(session, *room.CurrentTurnPlayerID, now)
	}

	n := len(room.Players)
	for attempt := 1; attempt <= n; attempt++ {
		p := &room.Players[(start+attempt)%n]
		if !p.Eligible() {
			continue
		}
		id := p.ID
		room.CurrentTurnPlayerID = &id
		session.TurnStartedAt = now
		return id, nil
	}

	room.CurrentTurnPlayerID = nil
	return "", model.ErrNoEligiblePlayers
}

// LastEligible returns the sole remaining eligible player, or nil when
// zero or more than one remain. Turn-ordered sessions end with this
// player as the winner.
func (a *Arbiter) LastEligible(room *model.Room) *model.Player {
	var last *model.Player
	for i := range room.Players {
		if room.Players[i].Eligible() {
			if last != nil {
				return nil
			}
			last = &room.Players[i]
		}
	}
	return last
}

// Remaining returns the player's chess clock with the running turn
// charged against it. For players off turn it is the stored balance.
func (a *Arbiter) Remaining(room *model.Room, session *model.GameSession, player model.PlayerID) time.Duration {
	remaining := session.Clocks[player]
	if room.CurrentTurnPlayerID != nil && *room.CurrentTurnPlayerID == player {
		remaining -= a.clock.Now().Sub(session.TurnStartedAt)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExpireChessClock checks whether the current-turn player's clock has
// run out. On expiry it ends the session with that player as the
// loser, independent of board state, and returns the loser.
func (a *Arbiter) ExpireChessClock(room *model.Room, session *model.GameSession) (*model.PlayerID, bool) {
	if session.Mode != model.ModeChessClk || session.Ended() || room.CurrentTurnPlayerID == nil {
		return nil, false
	}
	current := *room.CurrentTurnPlayerID
	if a.Remaining(room, session, current) > 0 {
		return nil, false
	}

	session.Clocks[current] = 0
	session.Outcome = model.OutcomeLoss
	session.LoserID = &current
	a.logger.Info("chess clock expired",
		slog.String("room", string(room.Code)),
		slog.String("player", string(current)),
	)
	return &current, true
}

// ChargeShared settles the shared countdown against elapsed wall time
// and reports whether it has expired. On expiry the session ends as a
// loss for the whole room.
func (a *Arbiter) ChargeShared(session *model.GameSession) (time.Duration, bool) {
	if session.Mode != model.ModeTimed || session.Ended() {
		return session.SharedRemaining, false
	}
	now := a.clock.Now()
	session.SharedRemaining -= now.Sub(session.TurnStartedAt)
	session.TurnStartedAt = now

	if session.SharedRemaining > 0 {
		return session.SharedRemaining, false
	}

	session.SharedRemaining = 0
	session.Outcome = model.OutcomeLoss
	return 0, true
}

// ApplyRevealBonus credits the shared countdown for direct reveals.
func (a *Arbiter) ApplyRevealBonus(session *model.GameSession, directReveals int) {
	if session.Mode != model.ModeTimed || directReveals <= 0 {
		return
	}
	session.SharedRemaining += time.Duration(directReveals) * RevealBonus
}

// chargeCurrent deducts the running turn from the departing player's
// chess clock. Clamped at zero; expiry itself is decided by
// ExpireChessClock so a turn switch never silently loses the game.
func (a *Arbiter) chargeCurrent(session *model.GameSession, player model.PlayerID, now time.Time) {
	if session.Mode != model.ModeChessClk {
		return
	}
	remaining := session.Clocks[player] - now.Sub(session.TurnStartedAt)
	if remaining < 0 {
		remaining = 0
	}
	session.Clocks[player] = remaining
}
