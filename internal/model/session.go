package model

import "time"

// SessionID uniquely identifies a game session
type SessionID string

// SessionOutcome is the terminal state of a session. A session reaches
// exactly one of win or loss, never both.
type SessionOutcome string

const (
	OutcomeNone SessionOutcome = ""     // still in progress
	OutcomeWin  SessionOutcome = "win"  // all safe cells revealed
	OutcomeLoss SessionOutcome = "loss" // mine hit or clock expiry
)

// GameSession is the ephemeral per-room game instance, alive from game
// start until win or loss. It exclusively owns its Board; no other room
// ever references it.
type GameSession struct {
	ID       SessionID
	RoomCode RoomCode
	Mode     GameMode

	// Level counts survival levels, 1-based. Always 1 in other modes.
	Level int

	Board *Board

	// BoardSeed reproduces the board on every client. Mine placement
	// draws from this seed once the first click fixes the exclusion
	// zone.
	BoardSeed int64

	// MinesPlaced guards the first-click placement: mines are placed
	// using the coordinates of the first reveal across the whole room,
	// precisely once. FirstClickDone tracks the reveal itself.
	FirstClickDone bool
	MinesPlaced    bool

	Outcome  SessionOutcome
	WinnerID *PlayerID // player who cleared the board, when applicable
	LoserID  *PlayerID // player who hit the mine or ran out the clock

	// SharedRemaining is the single countdown in timed-countdown mode.
	SharedRemaining time.Duration

	// Clocks holds the per-player countdowns in chess-clock mode. Only
	// the current-turn player's clock runs.
	Clocks map[PlayerID]time.Duration

	// TurnStartedAt anchors clock accounting for the running countdown.
	TurnStartedAt time.Time

	// Shields holds per-player shield charges in power-up mode. A
	// shield absorbs one mine hit instead of ending the session.
	Shields map[PlayerID]int

	StartedAt time.Time
	EndedAt   *time.Time
}

// Ended reports whether the session has reached a terminal state.
func (s *GameSession) Ended() bool {
	return s.Outcome != OutcomeNone
}

// SurvivalEscalationLevel is the survival level past which the
// first-click exclusion zone is disabled entirely.
const SurvivalEscalationLevel = 20
