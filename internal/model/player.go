package model

import "time"

// PlayerID uniquely identifies a player for the lifetime of their
// connection session. It is not a persistent account identifier.
type PlayerID string

// Player represents a participant in a room. Players live inside their
// Room in join order; the order is significant for turn rotation and
// host transfer.
type Player struct {
	ID          PlayerID
	DisplayName string
	IsHost      bool

	// Per-cycle state, reset at the start of every game.
	Ready         bool
	Eliminated    bool
	RevealedCount int
	Score         int
	FinishedAt    *time.Time // set when the player wins or is eliminated

	// Connected is false while the player is inside the disconnect
	// grace window; their slot and state are preserved for reconnection.
	Connected bool
	JoinedAt  time.Time
}

// ResetForGame clears all per-cycle state. Stale ready/eliminated flags
// carried into the next round are a correctness bug, not a cosmetic one.
func (p *Player) ResetForGame() {
	p.Ready = false
	p.Eliminated = false
	p.RevealedCount = 0
	p.Score = 0
	p.FinishedAt = nil
}

// Eligible reports whether the player can currently take a turn.
func (p *Player) Eligible() bool {
	return p.Connected && !p.Eliminated
}
