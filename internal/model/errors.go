package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Room errors
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomEnded           = errors.New("room has ended")
	ErrAlreadyInRoom       = errors.New("player is already in room")
	ErrNotInRoom           = errors.New("player is not in room")
	ErrNotHost             = errors.New("player is not the host")
	ErrGameInProgress      = errors.New("game is in progress")
	ErrNoGameInProgress    = errors.New("no game in progress")
	ErrInsufficientPlayers = errors.New("at least two ready players required")
	ErrInvalidMode         = errors.New("unknown game mode")
	ErrInvalidDifficulty   = errors.New("unknown difficulty")
	ErrInvalidMaxPlayers   = errors.New("max players out of bounds")
	ErrRoomCodesExhausted  = errors.New("room code space exhausted")

	// Session errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionEnded       = errors.New("session already ended")
	ErrMinesAlreadyPlaced = errors.New("mines already placed")

	// Board errors
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrCellRevealed = errors.New("cell already revealed")
	ErrCellFlagged  = errors.New("cell is flagged")

	// Turn errors
	ErrNotPlayerTurn     = errors.New("not this player's turn")
	ErrNoEligiblePlayers = errors.New("no eligible players remain")
)
