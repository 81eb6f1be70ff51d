package model

import "time"

// RoomCode is the 6-digit identifier players use to join a room
type RoomCode string

// RoomStatus represents the current phase of a room
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"     // No game in progress
	RoomStatusInProgress RoomStatus = "in_progress" // Game currently active
	RoomStatusEnded      RoomStatus = "ended"       // Final game finished, room winding down
)

// GameMode selects the rule set for a game
type GameMode string

const (
	ModeStandard  GameMode = "standard"        // Race: shared board, first to clear wins
	ModeTurnBased GameMode = "turn-based"      // One click per turn, numbers hidden, no cascade
	ModeTimed     GameMode = "timed-countdown" // Shared countdown, direct reveals add time
	ModeSurvival  GameMode = "survival"        // Escalating levels, fresh seed each level
	ModePowerUp   GameMode = "power-up"        // Standard rules plus collectible shields
	ModeChessClk  GameMode = "chess-clock"     // Turn-based with per-player clocks
)

// ValidMode reports whether m is a known game mode.
func ValidMode(m GameMode) bool {
	switch m {
	case ModeStandard, ModeTurnBased, ModeTimed, ModeSurvival, ModePowerUp, ModeChessClk:
		return true
	}
	return false
}

// TurnOrdered reports whether the mode enforces strict turn order.
func (m GameMode) TurnOrdered() bool {
	return m == ModeTurnBased || m == ModeChessClk
}

// HidesNumbers reports whether adjacency counts are suppressed and
// cells reveal one at a time with no cascade.
func (m GameMode) HidesNumbers() bool {
	return m == ModeTurnBased || m == ModeChessClk
}

// Difficulty is a named board preset
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyPreset holds the board dimensions for a difficulty
type DifficultyPreset struct {
	Rows      int
	Cols      int
	MineCount int
}

var difficultyPresets = map[Difficulty]DifficultyPreset{
	DifficultyEasy:   {Rows: 9, Cols: 9, MineCount: 10},
	DifficultyMedium: {Rows: 16, Cols: 16, MineCount: 40},
	DifficultyHard:   {Rows: 16, Cols: 30, MineCount: 99},
}

// PresetFor returns the board preset for a difficulty.
func PresetFor(d Difficulty) (DifficultyPreset, bool) {
	p, ok := difficultyPresets[d]
	return p, ok
}

// Player count bounds for a room
const (
	MinPlayersPerRoom     = 2
	MaxPlayersPerRoom     = 10
	DefaultPlayersPerRoom = 4
)

// Room represents a group of players sharing one game session at a time
type Room struct {
	Code       RoomCode
	Status     RoomStatus
	Mode       GameMode
	Difficulty Difficulty
	MaxPlayers int

	// Players in join order. Join order determines turn rotation and
	// host succession.
	Players []Player

	// BoardSeed is minted once per game start and re-minted for each
	// survival level. Clients regenerate the identical board from it.
	BoardSeed int64

	// CurrentTurnPlayerID is set only in turn-ordered modes.
	CurrentTurnPlayerID *PlayerID

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastActiveAt time.Time
}

// GetPlayer returns the player with the given ID, or nil if not present.
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// GetHost returns the current host, or nil if none.
func (r *Room) GetHost() *Player {
	for i := range r.Players {
		if r.Players[i].IsHost {
			return &r.Players[i]
		}
	}
	return nil
}

// ConnectedCount returns the number of currently connected players.
func (r *Room) ConnectedCount() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Connected {
			n++
		}
	}
	return n
}

// ReadyCount returns the number of connected players marked ready.
func (r *Room) ReadyCount() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Connected && r.Players[i].Ready {
			n++
		}
	}
	return n
}

// EligibleCount returns the number of players who can still act.
func (r *Room) EligibleCount() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Eligible() {
			n++
		}
	}
	return n
}

// IsFull reports whether the room has reached its player cap.
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// PlayerResult is one row of the final standings
type PlayerResult struct {
	Rank        int      `json:"rank"`
	PlayerID    PlayerID `json:"player_id"`
	DisplayName string   `json:"display_name"`
	Score       int      `json:"score"`
	Won         bool     `json:"won"`
}
