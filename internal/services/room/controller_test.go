package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sweeparena/sweeparena/internal/dependencies/mocks"
	"github.com/sweeparena/sweeparena/internal/model"
	"github.com/sweeparena/sweeparena/internal/services/board"
	"github.com/sweeparena/sweeparena/internal/services/reveal"
	"github.com/sweeparena/sweeparena/internal/services/turn"
	"github.com/sweeparena/sweeparena/internal/storage/memory"
	"github.com/sweeparena/sweeparena/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	generator := board.New(logger)
	engine := reveal.New(generator, logger)
	arbiter := turn.New(s.clock, logger)
	s.controller = NewController(s.storage, engine, arbiter, s.clock, s.random, logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) createRoom(mode model.GameMode, maxPlayers int) (*model.Room, *model.Player) {
	s.random.QueueDigits("111111")
	room, host, _, err := s.controller.CreateRoom(s.ctx, "Host", mode, model.DifficultyEasy, maxPlayers)
	s.Require().NoError(err)
	return room, host
}

func (s *ControllerSuite) TestCreateRoomSucceeds() {
	room, host := s.createRoom(model.ModeStandard, 4)

	s.Equal(model.RoomCode("111111"), room.Code)
	s.Equal(model.RoomStatusWaiting, room.Status)
	s.Equal(model.ModeStandard, room.Mode)
	s.Len(room.Players, 1)
	s.True(host.IsHost)
	s.True(host.Connected)

	stored, err := s.storage.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(room.Code, stored.Code)
}

func (s *ControllerSuite) TestCreateRoomDefaultsMaxPlayers() {
	room, _ := s.createRoom(model.ModeStandard, 0)
	s.Equal(model.DefaultPlayersPerRoom, room.MaxPlayers)
}

func (s *ControllerSuite) TestCreateRoomValidation() {
	_, _, _, err := s.controller.CreateRoom(s.ctx, "Host", "bogus", model.DifficultyEasy, 4)
	s.ErrorIs(err, model.ErrInvalidMode)

	_, _, _, err = s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, "bogus", 4)
	s.ErrorIs(err, model.ErrInvalidDifficulty)

	_, _, _, err = s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, model.DifficultyEasy, 1)
	s.ErrorIs(err, model.ErrInvalidMaxPlayers)

	_, _, _, err = s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, model.DifficultyEasy, 99)
	s.ErrorIs(err, model.ErrInvalidMaxPlayers)
}

func (s *ControllerSuite) TestCreateRoomRetriesOnCodeCollision() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, &model.Room{
		Code:         "111111",
		LastActiveAt: s.clock.Now(),
	}))

	s.random.QueueDigits("111111", "222222")
	room, _, _, err := s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, model.DifficultyEasy, 4)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("222222"), room.Code)
}

func (s *ControllerSuite) TestCodeExhaustionWhenAllCodesLive() {
	// An exhausted queue makes the mock mint "000000" forever. With a
	// still-active room on that code, both retry passes collide.
	s.Require().NoError(s.storage.SaveRoom(s.ctx, &model.Room{
		Code:         "000000",
		LastActiveAt: s.clock.Now(),
	}))

	_, _, _, err := s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, model.DifficultyEasy, 4)
	s.ErrorIs(err, model.ErrRoomCodesExhausted)
}

func (s *ControllerSuite) TestCodePressureTriggersCleanup() {
	// Same setup, but the colliding room is stale: the cleanup pass
	// reclaims its code and the second round succeeds.
	s.Require().NoError(s.storage.SaveRoom(s.ctx, &model.Room{
		Code:         "000000",
		LastActiveAt: s.clock.Now().Add(-InactivityTimeout - time.Minute),
	}))

	room, _, _, err := s.controller.CreateRoom(s.ctx, "Host", model.ModeStandard, model.DifficultyEasy, 4)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("000000"), room.Code)
}

func (s *ControllerSuite) TestJoinRoom() {
	room, _ := s.createRoom(model.ModeStandard, 4)

	joined, player, roster, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)
	s.Len(joined.Players, 2)
	s.False(player.IsHost)
	s.True(player.Connected)
	s.NotEqual(joined.Players[0].ID, player.ID)

	s.Require().Len(roster, 2)
	s.Equal(player.ID, roster[1].ID)
	s.Equal("Guest", roster[1].DisplayName)
}

func (s *ControllerSuite) TestJoinRosterSnapshotIsDetached() {
	room, _ := s.createRoom(model.ModeStandard, 4)

	_, player, roster, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)
	s.Require().Len(roster, 2)

	// Later mutations of the stored room must not show through the
	// snapshot handed to the caller.
	stored, err := s.storage.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	stored.GetPlayer(player.ID).Score = 99
	stored.GetPlayer(player.ID).Ready = true

	s.Equal(0, roster[1].Score)
	s.False(roster[1].Ready)
}

func (s *ControllerSuite) TestJoinUnknownRoom() {
	_, _, _, err := s.controller.JoinRoom(s.ctx, "999999", "Guest")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinFullRoomLeavesRosterUnchanged() {
	room, _ := s.createRoom(model.ModeStandard, 2)
	_, _, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Second")
	s.Require().NoError(err)

	_, _, _, err = s.controller.JoinRoom(s.ctx, room.Code, "Third")
	s.ErrorIs(err, model.ErrRoomFull)

	stored, err := s.storage.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Len(stored.Players, 2)
}

func (s *ControllerSuite) TestJoinInProgressRoomRejected() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	_, err = s.controller.SetReady(s.ctx, room.Code, host.ID, true)
	s.Require().NoError(err)
	_, err = s.controller.SetReady(s.ctx, room.Code, guest.ID, true)
	s.Require().NoError(err)

	_, _, _, err = s.controller.JoinRoom(s.ctx, room.Code, "Late")
	s.ErrorIs(err, model.ErrGameInProgress)
}

func (s *ControllerSuite) TestReadyDoesNotStartAlone() {
	room, host := s.createRoom(model.ModeStandard, 4)

	events, err := s.controller.SetReady(s.ctx, room.Code, host.ID, true)
	s.Require().NoError(err)

	s.Len(events, 1)
	s.Equal(model.EventPlayerReadyUpdate, events[0].Type)

	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	s.Equal(model.RoomStatusWaiting, stored.Status)
}

func (s *ControllerSuite) TestAllReadyStartsGame() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	s.random.QueueInt63(12345)

	_, err = s.controller.SetReady(s.ctx, room.Code, host.ID, true)
	s.Require().NoError(err)
	events, err := s.controller.SetReady(s.ctx, room.Code, guest.ID, true)
	s.Require().NoError(err)

	var start *model.GameStartPayload
	for _, ev := range events {
		if ev.Type == model.EventGameStart {
			p := ev.Payload.(model.GameStartPayload)
			start = &p
		}
	}
	s.Require().NotNil(start)
	s.Equal(int64(12345), start.BoardSeed)
	s.Equal(9, start.Rows)
	s.Equal(10, start.MineCount)
	s.Equal(1, start.Level)

	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	s.Equal(model.RoomStatusInProgress, stored.Status)

	session, err := s.storage.GetSession(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(int64(12345), session.BoardSeed)
	s.False(session.MinesPlaced)
}

func (s *ControllerSuite) TestStartResetsStalePerCycleState() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	// Simulate leftovers from a previous round.
	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	stored.Players[0].Eliminated = true
	stored.Players[0].Score = 44
	stored.Players[1].RevealedCount = 9

	_, err = s.controller.SetReady(s.ctx, room.Code, host.ID, true)
	s.Require().NoError(err)
	_, err = s.controller.SetReady(s.ctx, room.Code, guest.ID, true)
	s.Require().NoError(err)

	stored, _ = s.storage.GetRoom(s.ctx, room.Code)
	for _, p := range stored.Players {
		s.False(p.Eliminated)
		s.False(p.Ready)
		s.Equal(0, p.Score)
		s.Equal(0, p.RevealedCount)
	}
}

func (s *ControllerSuite) TestChangeModeHostOnlyWhileWaiting() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	_, err = s.controller.ChangeMode(s.ctx, room.Code, guest.ID, model.ModeTurnBased)
	s.ErrorIs(err, model.ErrNotHost)

	events, err := s.controller.ChangeMode(s.ctx, room.Code, host.ID, model.ModeTurnBased)
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Equal(model.EventModeChanged, events[0].Type)

	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	s.Equal(model.ModeTurnBased, stored.Mode)

	_, err = s.controller.ChangeMode(s.ctx, room.Code, host.ID, "bogus")
	s.ErrorIs(err, model.ErrInvalidMode)
}

func (s *ControllerSuite) TestLeaveTransfersHost() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	events, err := s.controller.LeaveRoom(s.ctx, room.Code, host.ID)
	s.Require().NoError(err)

	types := eventTypes(events)
	s.Contains(types, model.EventPlayerLeft)
	s.Contains(types, model.EventHostChanged)

	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	s.Len(stored.Players, 1)
	s.Equal(guest.ID, stored.Players[0].ID)
	s.True(stored.Players[0].IsHost)
}

func (s *ControllerSuite) TestLastLeaveTearsDownRoom() {
	room, host := s.createRoom(model.ModeStandard, 4)

	events, err := s.controller.LeaveRoom(s.ctx, room.Code, host.ID)
	s.Require().NoError(err)
	s.Empty(events)

	_, err = s.storage.GetRoom(s.ctx, room.Code)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestMarkDisconnectedKeepsSlot() {
	room, host := s.createRoom(model.ModeStandard, 4)
	_, guest, _, err := s.controller.JoinRoom(s.ctx, room.Code, "Guest")
	s.Require().NoError(err)

	_, err = s.controller.MarkDisconnected(s.ctx, room.Code, guest.ID)
	s.Require().NoError(err)

	stored, _ := s.storage.GetRoom(s.ctx, room.Code)
	s.Len(stored.Players, 2)
	s.False(stored.GetPlayer(guest.ID).Connected)
	s.True(stored.GetPlayer(host.ID).Connected)

	// Reconnection restores the same slot.
	_, roster, err := s.controller.Reconnect(s.ctx, room.Code, guest.ID)
	s.Require().NoError(err)
	stored, _ = s.storage.GetRoom(s.ctx, room.Code)
	s.True(stored.GetPlayer(guest.ID).Connected)

	var snap *model.PlayerSnapshot
	for i := range roster {
		if roster[i].ID == guest.ID {
			snap = &roster[i]
		}
	}
	s.Require().NotNil(snap)
	s.True(snap.Connected)
}

func (s *ControllerSuite) TestRemoveIfAbandoned() {
	room, host := s.createRoom(model.ModeStandard, 4)

	removed, err := s.controller.RemoveIfAbandoned(s.ctx, room.Code)
	s.Require().NoError(err)
	s.False(removed)

	_, err = s.controller.MarkDisconnected(s.ctx, room.Code, host.ID)
	s.Require().NoError(err)

	removed, err = s.controller.RemoveIfAbandoned(s.ctx, room.Code)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.storage.GetRoom(s.ctx, room.Code)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestCleanupInactiveRemovesIdleRooms() {
	s.createRoom(model.ModeStandard, 4)
	s.random.QueueDigits("222222")
	_, _, _, err := s.controller.CreateRoom(s.ctx, "Other", model.ModeStandard, model.DifficultyEasy, 4)
	s.Require().NoError(err)

	s.clock.Advance(InactivityTimeout + time.Minute)

	removed, err := s.controller.CleanupInactive(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, removed)

	codes, _ := s.storage.ListRoomCodes(s.ctx)
	s.Empty(codes)
}

func eventTypes(events []model.Event) []model.EventType {
	types := make([]model.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}
