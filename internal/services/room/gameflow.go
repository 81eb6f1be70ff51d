package room

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/sweeparena/sweeparena/internal/model"
)

const (
	// PowerUpShields is each player's shield stock at the start of a
	// power-up game. A shield absorbs one mine hit.
	PowerUpShields = 1

	// SurvivalMineStep is how many mines each survival level adds on
	// top of the difficulty preset. The generator clamps the count if
	// a deep level outgrows the board.
	SurvivalMineStep = 2
)

// ResultSink receives final standings when a game ends. Delivery is
// best-effort; a failing sink never blocks or fails game flow.
type ResultSink interface {
	Submit(ctx context.Context, room *model.Room, session *model.GameSession, results []model.PlayerResult)
}

// SetResultSink attaches an optional sink for finished-game standings.
func (c *Controller) SetResultSink(sink ResultSink) {
	c.results = sink
}

// startGame transitions a waiting room into a fresh session. Caller
// holds the room lock.
func (c *Controller) startGame(ctx context.Context, room *model.Room) ([]model.Event, error) {
	if room.ConnectedCount() < model.MinPlayersPerRoom {
		return nil, model.ErrInsufficientPlayers
	}

	preset, ok := model.PresetFor(room.Difficulty)
	if !ok {
		return nil, model.ErrInvalidDifficulty
	}

	now := c.clock.Now()
	for i := range room.Players {
		room.Players[i].ResetForGame()
	}

	seed := c.random.Int63()
	room.BoardSeed = seed
	room.Status = model.RoomStatusInProgress

	session := &model.GameSession{
		ID:        model.SessionID(uuid.NewString()),
		RoomCode:  room.Code,
		Mode:      room.Mode,
		Level:     1,
		Board:     model.NewEmptyBoard(preset.Rows, preset.Cols, preset.MineCount),
		BoardSeed: seed,
		StartedAt: now,
	}
	if room.Mode == model.ModePowerUp {
		session.Shields = make(map[model.PlayerID]int, len(room.Players))
		for i := range room.Players {
			session.Shields[room.Players[i].ID] = PowerUpShields
		}
	}

	if err := c.arbiter.Begin(room, session); err != nil {
		return nil, err
	}
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("room", string(room.Code)),
		slog.String("mode", string(room.Mode)),
		slog.Int64("seed", seed),
	)

	return []model.Event{
		c.event(model.EventGameStart, room, "", model.GameStartPayload{
			BoardSeed:   seed,
			Mode:        room.Mode,
			Difficulty:  room.Difficulty,
			Rows:        preset.Rows,
			Cols:        preset.Cols,
			MineCount:   preset.MineCount,
			Level:       1,
			CurrentTurn: room.CurrentTurnPlayerID,
		}),
	}, nil
}

// HandleReveal applies a reveal intent end to end: clock settlement,
// actor validation, the reveal itself, then elimination, turn advance,
// survival progression or game end as the result dictates.
func (c *Controller) HandleReveal(ctx context.Context, code model.RoomCode, playerID model.PlayerID, pos model.Position) ([]model.Event, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, session, player, err := c.loadActiveGame(ctx, code, playerID)
	if err != nil {
		return nil, err
	}

	if events, ended, err := c.settleClocks(ctx, room, session); ended || err != nil {
		if err == nil {
			err = c.storage.SaveRoom(ctx, room)
		}
		return events, err
	}

	if err := c.arbiter.ValidateActor(room, session, playerID); err != nil {
		return nil, err
	}

	res, err := c.engine.Reveal(session, playerID, pos)
	if err != nil {
		// Duplicate or blocked reveals are absorbed, not escalated.
		if errors.Is(err, model.ErrCellRevealed) || errors.Is(err, model.ErrCellFlagged) {
			return nil, nil
		}
		return nil, err
	}

	player.Score += res.ScoreDelta
	player.RevealedCount += res.ScoreDelta

	events := []model.Event{
		c.event(model.EventPlayerAction, room, playerID, model.PlayerActionPayload{
			ActorID:    playerID,
			Action:     "reveal",
			Cells:      res.Cells,
			ScoreDelta: res.ScoreDelta,
		}),
	}

	switch {
	case res.HitMine && !res.GameEnded && !res.ShieldUsed:
		// Turn-ordered elimination; the session continues until one
		// player stands.
		elimEvents, err := c.eliminate(ctx, room, session, player)
		if err != nil {
			return nil, err
		}
		events = append(events, elimEvents...)

	case res.GameEnded && session.Outcome == model.OutcomeWin && session.Mode == model.ModeSurvival:
		levelEvents, err := c.advanceLevel(ctx, room, session)
		if err != nil {
			return nil, err
		}
		events = append(events, levelEvents...)

	case res.GameEnded:
		endEvents, err := c.endGame(ctx, room, session)
		if err != nil {
			return nil, err
		}
		events = append(events, endEvents...)

	default:
		if !res.HitMine {
			c.arbiter.ApplyRevealBonus(session, 1)
		}
		turnEvents, err := c.advanceTurn(ctx, room, session)
		if err != nil {
			return nil, err
		}
		events = append(events, turnEvents...)
	}

	c.touch(room, c.clock.Now())
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// HandleFlag applies a flag toggle. In turn-ordered modes it consumes
// the turn like a reveal does.
func (c *Controller) HandleFlag(ctx context.Context, code model.RoomCode, playerID model.PlayerID, pos model.Position) ([]model.Event, error) {
	c.locks.Lock(code)
	defer c.locks.Unlock(code)

	room, session, _, err := c.loadActiveGame(ctx, code, playerID)
	if err != nil {
		return nil, err
	}

	if events, ended, err := c.settleClocks(ctx, room, session); ended || err != nil {
		if err == nil {
			err = c.storage.SaveRoom(ctx, room)
		}
		return events, err
	}

	if err := c.arbiter.ValidateActor(room, session, playerID); err != nil {
		return nil, err
	}

	res, err := c.engine.ToggleFlag(session, playerID, pos)
	if err != nil {
		if errors.Is(err, model.ErrCellRevealed) {
			return nil, nil
		}
		return nil, err
	}

	events := []model.Event{
		c.event(model.EventPlayerAction, room, playerID, model.PlayerActionPayload{
			ActorID: playerID,
			Action:  "flag",
			Cells:   res.Cells,
		}),
	}

	turnEvents, err := c.advanceTurn(ctx, room, session)
	if err != nil {
		return nil, err
	}
	events = append(events, turnEvents...)

	c.touch(room, c.clock.Now())
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// TickClocks settles running countdowns across all in-progress rooms.
// Called from a background ticker so a clock can expire even when no
// player is acting. Returns end-of-game events keyed by room.
func (c *Controller) TickClocks(ctx context.Context) (map[model.RoomCode][]model.Event, error) {
	codes, err := c.storage.ListRoomCodes(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[model.RoomCode][]model.Event)
	for _, code := range codes {
		c.locks.Lock(code)
		events, err := c.tickRoom(ctx, code)
		c.locks.Unlock(code)
		if err != nil {
			c.logger.Error("clock tick failed",
				slog.String("room", string(code)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(events) > 0 {
			out[code] = events
		}
	}
	return out, nil
}

func (c *Controller) tickRoom(ctx context.Context, code model.RoomCode) ([]model.Event, error) {
	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusInProgress {
		return nil, nil
	}
	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, nil
	}

	events, ended, err := c.settleClocks(ctx, room, session)
	if err != nil {
		return nil, err
	}
	if !ended {
		return nil, nil
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return events, nil
}

// loadActiveGame fetches room, session and actor for a game action and
// runs the shared validity checks.
func (c *Controller) loadActiveGame(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, *model.GameSession, *model.Player, error) {
	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	if room.Status != model.RoomStatusInProgress {
		return nil, nil, nil, model.ErrNoGameInProgress
	}
	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	if session.Ended() {
		return nil, nil, nil, model.ErrSessionEnded
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, nil, nil, model.ErrNotInRoom
	}
	if player.Eliminated {
		return nil, nil, nil, model.ErrNotPlayerTurn
	}
	return room, session, player, nil
}

// settleClocks charges the running countdowns and ends the game if one
// expired. Returns the end-of-game events when it did.
func (c *Controller) settleClocks(ctx context.Context, room *model.Room, session *model.GameSession) ([]model.Event, bool, error) {
	if loser, expired := c.arbiter.ExpireChessClock(room, session); expired {
		if p := room.GetPlayer(*loser); p != nil {
			p.Eliminated = true
		}
		if last := c.arbiter.LastEligible(room); last != nil {
			session.WinnerID = &last.ID
		}
		events, err := c.endGame(ctx, room, session)
		return events, true, err
	}

	if _, expired := c.arbiter.ChargeShared(session); expired {
		events, err := c.endGame(ctx, room, session)
		return events, true, err
	}
	return nil, false, nil
}

// eliminate marks a turn-ordered player out of the game after a mine
// hit, ending the session when one eligible player remains.
func (c *Controller) eliminate(ctx context.Context, room *model.Room, session *model.GameSession, player *model.Player) ([]model.Event, error) {
	now := c.clock.Now()
	player.Eliminated = true
	player.FinishedAt = &now

	payload := model.PlayerEliminatedPayload{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
	}

	if last := c.arbiter.LastEligible(room); last != nil {
		payload.WinnerID = &last.ID
		events := []model.Event{
			c.event(model.EventPlayerEliminated, room, player.ID, payload),
		}
		endEvents, err := c.endTurnOrderedWithWinner(ctx, room, session, last.ID)
		if err != nil {
			return nil, err
		}
		return append(events, endEvents...), nil
	}

	events := []model.Event{
		c.event(model.EventPlayerEliminated, room, player.ID, payload),
	}
	turnEvents, err := c.advanceTurn(ctx, room, session)
	if err != nil {
		return nil, err
	}
	return append(events, turnEvents...), nil
}

// endTurnOrderedWithWinner ends a turn-ordered session with the last
// eligible player as the winner.
func (c *Controller) endTurnOrderedWithWinner(ctx context.Context, room *model.Room, session *model.GameSession, winner model.PlayerID) ([]model.Event, error) {
	session.Outcome = model.OutcomeWin
	session.WinnerID = &winner
	return c.endGame(ctx, room, session)
}

// advanceLevel rolls a survival session into its next level: fresh
// seed, escalated mine count, unplaced board. The session never ends
// on a survival win; only a mine hit stops the run.
func (c *Controller) advanceLevel(ctx context.Context, room *model.Room, session *model.GameSession) ([]model.Event, error) {
	preset, _ := model.PresetFor(room.Difficulty)

	session.Level++
	session.Outcome = model.OutcomeNone
	session.WinnerID = nil
	session.FirstClickDone = false
	session.MinesPlaced = false

	seed := c.random.Int63()
	session.BoardSeed = seed
	room.BoardSeed = seed

	mineCount := preset.MineCount + (session.Level-1)*SurvivalMineStep
	session.Board = model.NewEmptyBoard(preset.Rows, preset.Cols, mineCount)

	c.logger.Info("survival level advanced",
		slog.String("room", string(room.Code)),
		slog.Int("level", session.Level),
		slog.Int("mines", mineCount),
	)

	return []model.Event{
		c.event(model.EventLevelAdvanced, room, "", model.LevelAdvancedPayload{
			Level:     session.Level,
			BoardSeed: seed,
			MineCount: mineCount,
		}),
	}, nil
}

// endGame finalizes a session: standings are computed, the session is
// stamped, and the room returns to waiting so players can re-ready for
// a rematch.
func (c *Controller) endGame(ctx context.Context, room *model.Room, session *model.GameSession) ([]model.Event, error) {
	now := c.clock.Now()
	if session.Outcome == model.OutcomeNone {
		session.Outcome = model.OutcomeLoss
	}
	session.EndedAt = &now

	room.Status = model.RoomStatusWaiting
	room.CurrentTurnPlayerID = nil
	for i := range room.Players {
		room.Players[i].Ready = false
	}

	results := buildResults(room, session)

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	if c.results != nil {
		c.results.Submit(ctx, room, session, results)
	}

	c.logger.Info("game ended",
		slog.String("room", string(room.Code)),
		slog.String("outcome", string(session.Outcome)),
	)

	return []model.Event{
		c.event(model.EventGameEnded, room, "", model.GameEndedPayload{
			Outcome: session.Outcome,
			Results: results,
		}),
	}, nil
}

// advanceTurn rotates the turn in turn-ordered modes; a no-op
// elsewhere.
func (c *Controller) advanceTurn(ctx context.Context, room *model.Room, session *model.GameSession) ([]model.Event, error) {
	if !session.Mode.TurnOrdered() || session.Ended() {
		return nil, nil
	}
	next, err := c.arbiter.Advance(room, session)
	if err != nil {
		return nil, err
	}
	return []model.Event{
		c.event(model.EventTurnChanged, room, next, model.TurnChangedPayload{CurrentTurn: next}),
	}, nil
}

// buildResults ranks the final standings: the winner first, everyone
// else by score, ties broken by join order.
func buildResults(room *model.Room, session *model.GameSession) []model.PlayerResult {
	players := make([]*model.Player, 0, len(room.Players))
	for i := range room.Players {
		players = append(players, &room.Players[i])
	}

	won := func(p *model.Player) bool {
		return session.WinnerID != nil && *session.WinnerID == p.ID
	}

	sort.SliceStable(players, func(i, j int) bool {
		if won(players[i]) != won(players[j]) {
			return won(players[i])
		}
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	results := make([]model.PlayerResult, 0, len(players))
	for rank, p := range players {
		results = append(results, model.PlayerResult{
			Rank:        rank + 1,
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Won:         won(p),
		})
	}
	return results
}
