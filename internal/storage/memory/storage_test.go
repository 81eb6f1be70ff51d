package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sweeparena/sweeparena/internal/model"
)

type MemoryStorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestMemoryStorageSuite(t *testing.T) {
	suite.Run(t, new(MemoryStorageSuite))
}

func (s *MemoryStorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *MemoryStorageSuite) newRoom(code model.RoomCode) *model.Room {
	return &model.Room{
		Code:      code,
		Status:    model.RoomStatusWaiting,
		Mode:      model.ModeStandard,
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *MemoryStorageSuite) TestSaveAndGetRoom() {
	room := s.newRoom("111111")
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	got, err := s.storage.GetRoom(s.ctx, "111111")
	s.Require().NoError(err)
	s.Equal(room, got)
}

func (s *MemoryStorageSuite) TestGetMissingRoom() {
	_, err := s.storage.GetRoom(s.ctx, "999999")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *MemoryStorageSuite) TestDeleteRoom() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))
	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "111111"))

	_, err := s.storage.GetRoom(s.ctx, "111111")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// Deleting a missing room is not an error.
	s.NoError(s.storage.DeleteRoom(s.ctx, "111111"))
}

func (s *MemoryStorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "111111")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))

	exists, err = s.storage.RoomExists(s.ctx, "111111")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *MemoryStorageSuite) TestListRoomCodes() {
	codes, err := s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.Empty(codes)

	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("222222")))

	codes, err = s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.RoomCode{"111111", "222222"}, codes)
}

func (s *MemoryStorageSuite) TestSaveAndGetSession() {
	session := &model.GameSession{
		ID:       "session-1",
		RoomCode: "111111",
		Mode:     model.ModeStandard,
		Level:    1,
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	got, err := s.storage.GetSession(s.ctx, "111111")
	s.Require().NoError(err)
	s.Equal(session, got)
}

func (s *MemoryStorageSuite) TestGetMissingSession() {
	_, err := s.storage.GetSession(s.ctx, "111111")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *MemoryStorageSuite) TestDeleteSession() {
	session := &model.GameSession{ID: "session-1", RoomCode: "111111"}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))
	s.Require().NoError(s.storage.DeleteSession(s.ctx, "111111"))

	_, err := s.storage.GetSession(s.ctx, "111111")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *MemoryStorageSuite) TestSessionOverwrite() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.GameSession{ID: "session-1", RoomCode: "111111", Level: 1}))
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.GameSession{ID: "session-1", RoomCode: "111111", Level: 2}))

	got, err := s.storage.GetSession(s.ctx, "111111")
	s.Require().NoError(err)
	s.Equal(2, got.Level)
}
