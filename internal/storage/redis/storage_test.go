package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/sweeparena/sweeparena/internal/model"
)

type RedisStorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	client  *goredis.Client
	storage *Storage
	ctx     context.Context
}

func TestRedisStorageSuite(t *testing.T) {
	suite.Run(t, new(RedisStorageSuite))
}

func (s *RedisStorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = goredis.NewClient(&goredis.Options{Addr: s.mini.Addr()})
	s.storage = NewWithClient(s.client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *RedisStorageSuite) TearDownTest() {
	s.client.Close()
}

func (s *RedisStorageSuite) newRoom(code model.RoomCode) *model.Room {
	return &model.Room{
		Code:       code,
		Status:     model.RoomStatusWaiting,
		Mode:       model.ModeTurnBased,
		Difficulty: model.DifficultyMedium,
		MaxPlayers: 4,
		Players: []model.Player{
			{ID: "player-a", DisplayName: "Alice", IsHost: true, Connected: true},
		},
		BoardSeed: 42,
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).UTC(),
	}
}

func (s *RedisStorageSuite) TestSaveAndGetRoomRoundTrips() {
	room := s.newRoom("111111")
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	got, err := s.storage.GetRoom(s.ctx, "111111")
	s.Require().NoError(err)
	s.Equal(room.Code, got.Code)
	s.Equal(room.Mode, got.Mode)
	s.Equal(room.BoardSeed, got.BoardSeed)
	s.Require().Len(got.Players, 1)
	s.Equal(room.Players[0].ID, got.Players[0].ID)
	s.True(got.Players[0].IsHost)
}

func (s *RedisStorageSuite) TestGetMissingRoom() {
	_, err := s.storage.GetRoom(s.ctx, "999999")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RedisStorageSuite) TestSaveRoomSetsTTL() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))

	ttl := s.mini.TTL(roomKey("111111"))
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, DefaultConfig().RoomTTL)
}

func (s *RedisStorageSuite) TestDeleteRoomRemovesIndexEntry() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))
	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "111111"))

	_, err := s.storage.GetRoom(s.ctx, "111111")
	s.ErrorIs(err, model.ErrRoomNotFound)

	codes, err := s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.Empty(codes)
}

func (s *RedisStorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "111111")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))

	exists, err = s.storage.RoomExists(s.ctx, "111111")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *RedisStorageSuite) TestListRoomCodes() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("222222")))

	codes, err := s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.RoomCode{"111111", "222222"}, codes)
}

func (s *RedisStorageSuite) TestListRoomCodesPrunesExpiredRecords() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("111111")))
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("222222")))

	// Expire one room record out from under the index.
	s.mini.FastForward(DefaultConfig().RoomTTL + time.Minute)
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.newRoom("222222")))

	codes, err := s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RoomCode{"222222"}, codes)

	// The stale index entry is gone for good.
	s.False(s.client.SIsMember(s.ctx, roomIndexKey(), "111111").Val())
}

func (s *RedisStorageSuite) TestSessionRoundTrip() {
	winner := model.PlayerID("player-a")
	session := &model.GameSession{
		ID:        "session-1",
		RoomCode:  "111111",
		Mode:      model.ModeSurvival,
		Level:     3,
		Board:     model.NewEmptyBoard(9, 9, 10),
		BoardSeed: 42,
		Outcome:   model.OutcomeWin,
		WinnerID:  &winner,
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	got, err := s.storage.GetSession(s.ctx, "111111")
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
	s.Equal(3, got.Level)
	s.Equal(int64(42), got.BoardSeed)
	s.Equal(model.OutcomeWin, got.Outcome)
	s.Require().NotNil(got.WinnerID)
	s.Equal(winner, *got.WinnerID)
	s.Equal(9, got.Board.Rows)
}

func (s *RedisStorageSuite) TestGetMissingSession() {
	_, err := s.storage.GetSession(s.ctx, "111111")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RedisStorageSuite) TestDeleteSession() {
	session := &model.GameSession{ID: "session-1", RoomCode: "111111"}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))
	s.Require().NoError(s.storage.DeleteSession(s.ctx, "111111"))

	_, err := s.storage.GetSession(s.ctx, "111111")
	s.ErrorIs(err, model.ErrSessionNotFound)
}
