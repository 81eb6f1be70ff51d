package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sweeparena/sweeparena/internal/model"
)

// IntentType identifies a client-to-server message
type IntentType string

const (
	IntentCreateRoom  IntentType = "create_room"
	IntentJoinRoom    IntentType = "join_room"
	IntentReconnect   IntentType = "reconnect"
	IntentPlayerReady IntentType = "player_ready"
	IntentReveal      IntentType = "reveal"
	IntentFlag        IntentType = "flag"
	IntentChangeMode  IntentType = "change_mode"
	IntentLeaveRoom   IntentType = "leave_room"
)

// Intent is the single client-to-server message shape. Fields beyond
// Type are read per intent; extras are ignored.
type Intent struct {
	Type IntentType `json:"type"`

	// create_room / join_room
	DisplayName string `json:"display_name,omitempty"`
	Code        string `json:"code,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	MaxPlayers  int    `json:"max_players,omitempty"`

	// reconnect
	PlayerID string `json:"player_id,omitempty"`

	// player_ready
	Ready *bool `json:"ready,omitempty"`

	// reveal / flag
	Row int `json:"row"`
	Col int `json:"col"`
}

// ServerMessage is the wire form of a broadcast event
type ServerMessage struct {
	Type      model.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RoomCode  model.RoomCode  `json:"room_code,omitempty"`
	PlayerID  model.PlayerID  `json:"player_id,omitempty"`
	Payload   any             `json:"payload,omitempty"`
}

// WelcomePayload is sent to a connection that created, joined or
// rejoined a room. It carries the identity the client must retain for
// reconnection.
type WelcomePayload struct {
	Code       model.RoomCode         `json:"code"`
	PlayerID   model.PlayerID         `json:"player_id"`
	Mode       model.GameMode         `json:"mode"`
	Difficulty model.Difficulty       `json:"difficulty"`
	MaxPlayers int                    `json:"max_players"`
	Players    []model.PlayerSnapshot `json:"players"`
}

// ErrorPayload is sent only to the originating connection
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encodeEvent marshals a broadcast event to its wire form.
func encodeEvent(ev model.Event) ([]byte, error) {
	return json.Marshal(ServerMessage{
		Type:      ev.Type,
		Timestamp: ev.Timestamp,
		RoomCode:  ev.RoomCode,
		PlayerID:  ev.PlayerID,
		Payload:   ev.Payload,
	})
}

// errorCode maps a sentinel error to its wire code. Unknown errors
// surface as internal_error with the detail kept server-side.
func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, model.ErrRoomFull):
		return "room_full"
	case errors.Is(err, model.ErrRoomEnded):
		return "room_ended"
	case errors.Is(err, model.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, model.ErrNotHost):
		return "not_host"
	case errors.Is(err, model.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, model.ErrNoGameInProgress):
		return "no_game_in_progress"
	case errors.Is(err, model.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, model.ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, model.ErrInvalidDifficulty):
		return "invalid_difficulty"
	case errors.Is(err, model.ErrInvalidMaxPlayers):
		return "invalid_max_players"
	case errors.Is(err, model.ErrRoomCodesExhausted):
		return "server_busy"
	case errors.Is(err, model.ErrSessionEnded):
		return "session_ended"
	case errors.Is(err, model.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, model.ErrNotPlayerTurn):
		return "not_your_turn"
	default:
		return "internal_error"
	}
}
