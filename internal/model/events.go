package model

import "time"

// EventType identifies the type of event broadcast to room members
type EventType string

const (
	// Room events
	EventRoomCreated       EventType = "room_created"
	EventRoomJoined        EventType = "room_joined"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventPlayerReadyUpdate EventType = "player_ready_update"
	EventModeChanged       EventType = "mode_changed"
	EventHostChanged       EventType = "host_changed"

	// Game events
	EventGameStart        EventType = "game_start"
	EventCellUpdate       EventType = "cell_update"
	EventPlayerAction     EventType = "player_action"
	EventTurnChanged      EventType = "turn_changed"
	EventPlayerEliminated EventType = "player_eliminated"
	EventLevelAdvanced    EventType = "level_advanced"
	EventGameEnded        EventType = "game_ended"

	// Sent only to the originating connection
	EventError EventType = "error"
)

// Event is the base structure for all broadcast events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomCode  RoomCode
	PlayerID  PlayerID // the player who triggered or is affected
	Payload   any      // type-specific data
}

// PlayerSnapshot is the roster view sent with every roster change
type PlayerSnapshot struct {
	ID            PlayerID `json:"id"`
	DisplayName   string   `json:"display_name"`
	IsHost        bool     `json:"is_host"`
	Ready         bool     `json:"ready"`
	Connected     bool     `json:"connected"`
	Eliminated    bool     `json:"eliminated"`
	Score         int      `json:"score"`
	RevealedCount int      `json:"revealed_count"`
}

// SnapshotPlayers converts a room's player list into roster snapshots.
func SnapshotPlayers(room *Room) []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(room.Players))
	for i := range room.Players {
		p := &room.Players[i]
		out = append(out, PlayerSnapshot{
			ID:            p.ID,
			DisplayName:   p.DisplayName,
			IsHost:        p.IsHost,
			Ready:         p.Ready,
			Connected:     p.Connected,
			Eliminated:    p.Eliminated,
			Score:         p.Score,
			RevealedCount: p.RevealedCount,
		})
	}
	return out
}

// GameStartPayload carries everything a client needs to build the board
type GameStartPayload struct {
	BoardSeed   int64      `json:"board_seed"`
	Mode        GameMode   `json:"mode"`
	Difficulty  Difficulty `json:"difficulty"`
	Rows        int        `json:"rows"`
	Cols        int        `json:"cols"`
	MineCount   int        `json:"mine_count"`
	Level       int        `json:"level"`
	CurrentTurn *PlayerID  `json:"current_turn,omitempty"`
}

// CellUpdate describes one revealed or flagged cell. Broadcasts carry
// only changed cells, never the whole board.
type CellUpdate struct {
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Value    int  `json:"value"` // adjacency count; -1 for a mine
	IsMine   bool `json:"is_mine"`
	Flagged  bool `json:"flagged"`
	Revealed bool `json:"revealed"`
}

// PlayerActionPayload carries an incremental board change
type PlayerActionPayload struct {
	ActorID    PlayerID     `json:"actor_id"`
	Action     string       `json:"action"` // "reveal" or "flag"
	Cells      []CellUpdate `json:"cells"`
	ScoreDelta int          `json:"score_delta"`
}

// TurnChangedPayload announces the next player to act
type TurnChangedPayload struct {
	CurrentTurn PlayerID `json:"current_turn"`
}

// PlayerEliminatedPayload announces an elimination in turn-ordered modes
type PlayerEliminatedPayload struct {
	PlayerID    PlayerID  `json:"player_id"`
	DisplayName string    `json:"display_name"`
	WinnerID    *PlayerID `json:"winner_id,omitempty"` // set when elimination decided the game
}

// LevelAdvancedPayload announces the next survival level
type LevelAdvancedPayload struct {
	Level     int   `json:"level"`
	BoardSeed int64 `json:"board_seed"`
	MineCount int   `json:"mine_count"`
}

// GameEndedPayload carries the final standings
type GameEndedPayload struct {
	Outcome SessionOutcome `json:"outcome"`
	Results []PlayerResult `json:"results"`
}
