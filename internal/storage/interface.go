package storage

import (
	"context"

	"github.com/sweeparena/sweeparena/internal/model"
)

// Storage defines the interface for room and session persistence. A
// session is keyed by its room code; a room has at most one live
// session at a time.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRoomCodes(ctx context.Context) ([]model.RoomCode, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.GameSession) error
	GetSession(ctx context.Context, code model.RoomCode) (*model.GameSession, error)
	DeleteSession(ctx context.Context, code model.RoomCode) error
}
