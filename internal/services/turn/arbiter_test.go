package turn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sweeparena/sweeparena/internal/dependencies/mocks"
	"github.com/sweeparena/sweeparena/internal/model"
	"github.com/sweeparena/sweeparena/internal/testutil"
)

type ArbiterSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	arbiter *Arbiter
}

func TestArbiterSuite(t *testing.T) {
	suite.Run(t, new(ArbiterSuite))
}

func (s *ArbiterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.arbiter = New(s.clock, testutil.NopLogger())
}

func (s *ArbiterSuite) newRoom(mode model.GameMode, ids ...model.PlayerID) *model.Room {
	room := &model.Room{
		Code:   "123456",
		Status: model.RoomStatusInProgress,
		Mode:   mode,
	}
	for _, id := range ids {
		room.Players = append(room.Players, model.Player{
			ID:        id,
			Connected: true,
			JoinedAt:  s.clock.Now(),
		})
	}
	return room
}

func (s *ArbiterSuite) newSession(mode model.GameMode) *model.GameSession {
	return &model.GameSession{
		ID:       "session-1",
		RoomCode: "123456",
		Mode:     mode,
		Level:    1,
	}
}

func (s *ArbiterSuite) TestBeginPicksFirstEligibleInJoinOrder() {
	room := s.newRoom(model.ModeTurnBased, "a", "b", "c")
	session := s.newSession(model.ModeTurnBased)

	s.Require().NoError(s.arbiter.Begin(room, session))

	s.Require().NotNil(room.CurrentTurnPlayerID)
	s.Equal(model.PlayerID("a"), *room.CurrentTurnPlayerID)
}

func (s *ArbiterSuite) TestBeginSkipsDisconnectedFirstPlayer() {
	room := s.newRoom(model.ModeTurnBased, "a", "b")
	room.Players[0].Connected = false
	session := s.newSession(model.ModeTurnBased)

	s.Require().NoError(s.arbiter.Begin(room, session))
	s.Equal(model.PlayerID("b"), *room.CurrentTurnPlayerID)
}

func (s *ArbiterSuite) TestBeginLeavesFreeForAllModesUnordered() {
	room := s.newRoom(model.ModeStandard, "a", "b")
	session := s.newSession(model.ModeStandard)

	s.Require().NoError(s.arbiter.Begin(room, session))
	s.Nil(room.CurrentTurnPlayerID)
}

func (s *ArbiterSuite) TestValidateActorRejectsOutOfTurn() {
	room := s.newRoom(model.ModeTurnBased, "a", "b")
	session := s.newSession(model.ModeTurnBased)
	s.Require().NoError(s.arbiter.Begin(room, session))

	s.NoError(s.arbiter.ValidateActor(room, session, "a"))
	s.ErrorIs(s.arbiter.ValidateActor(room, session, "b"), model.ErrNotPlayerTurn)
}

func (s *ArbiterSuite) TestValidateActorAllowsAnyoneInRaceModes() {
	room := s.newRoom(model.ModeStandard, "a", "b")
	session := s.newSession(model.ModeStandard)

	s.NoError(s.arbiter.ValidateActor(room, session, "b"))
}

func (s *ArbiterSuite) TestAdvanceRotatesInJoinOrderWrapping() {
	room := s.newRoom(model.ModeTurnBased, "a", "b", "c")
	session := s.newSession(model.ModeTurnBased)
	s.Require().NoError(s.arbiter.Begin(room, session))

	next, err := s.arbiter.Advance(room, session)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("b"), next)

	next, err = s.arbiter.Advance(room, session)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("c"), next)

	next, err = s.arbiter.Advance(room, session)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("a"), next)
}

func (s *ArbiterSuite) TestAdvanceSkipsIneligiblePlayers() {
	room := s.newRoom(model.ModeTurnBased, "a", "b", "c")
	session := s.newSession(model.ModeTurnBased)
	s.Require().NoError(s.arbiter.Begin(room, session))

	room.Players[1].Eliminated = true

	next, err := s.arbiter.Advance(room, session)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("c"), next)
}

func (s *ArbiterSuite) TestAdvanceWithNoEligiblePlayersIsBounded() {
	room := s.newRoom(model.ModeTurnBased, "a", "b")
	session := s.newSession(model.ModeTurnBased)
	s.Require().NoError(s.arbiter.Begin(room, session))

	for i := range room.Players {
		room.Players[i].Eliminated = true
	}

	_, err := s.arbiter.Advance(room, session)
	s.ErrorIs(err, model.ErrNoEligiblePlayers)
	s.Nil(room.CurrentTurnPlayerID)
}

func (s *ArbiterSuite) TestLastEligible() {
	room := s.newRoom(model.ModeTurnBased, "a", "b", "c")

	s.Nil(s.arbiter.LastEligible(room))

	room.Players[0].Eliminated = true
	room.Players[2].Connected = false

	last := s.arbiter.LastEligible(room)
	s.Require().NotNil(last)
	s.Equal(model.PlayerID("b"), last.ID)

	room.Players[1].Eliminated = true
	s.Nil(s.arbiter.LastEligible(room))
}

func (s *ArbiterSuite) TestChessClockChargesOnlyCurrentPlayer() {
	room := s.newRoom(model.ModeChessClk, "a", "b")
	session := s.newSession(model.ModeChessClk)
	s.Require().NoError(s.arbiter.Begin(room, session))

	s.Equal(ChessClockBudget, session.Clocks["a"])
	s.Equal(ChessClockBudget, session.Clocks["b"])

	s.clock.Advance(30 * time.Second)

	s.Equal(ChessClockBudget-30*time.Second, s.arbiter.Remaining(room, session, "a"))
	s.Equal(ChessClockBudget, s.arbiter.Remaining(room, session, "b"))

	// A turn switch settles the departing player's clock.
	_, err := s.arbiter.Advance(room, session)
	s.Require().NoError(err)
	s.Equal(ChessClockBudget-30*time.Second, session.Clocks["a"])

	// Player a's clock is paused while b plays.
	s.clock.Advance(15 * time.Second)
	s.Equal(ChessClockBudget-30*time.Second, s.arbiter.Remaining(room, session, "a"))
	s.Equal(ChessClockBudget-15*time.Second, s.arbiter.Remaining(room, session, "b"))
}

func (s *ArbiterSuite) TestChessClockExpiryEndsSession() {
	room := s.newRoom(model.ModeChessClk, "a", "b")
	session := s.newSession(model.ModeChessClk)
	s.Require().NoError(s.arbiter.Begin(room, session))

	loser, expired := s.arbiter.ExpireChessClock(room, session)
	s.False(expired)
	s.Nil(loser)

	s.clock.Advance(ChessClockBudget + time.Second)

	loser, expired = s.arbiter.ExpireChessClock(room, session)
	s.Require().True(expired)
	s.Equal(model.PlayerID("a"), *loser)
	s.Equal(model.OutcomeLoss, session.Outcome)
	s.Equal(model.PlayerID("a"), *session.LoserID)
	s.Equal(time.Duration(0), session.Clocks["a"])
}

func (s *ArbiterSuite) TestSharedCountdownChargesAndExpires() {
	room := s.newRoom(model.ModeTimed, "a", "b")
	session := s.newSession(model.ModeTimed)
	s.Require().NoError(s.arbiter.Begin(room, session))

	s.Equal(SharedCountdown, session.SharedRemaining)

	s.clock.Advance(time.Minute)
	remaining, expired := s.arbiter.ChargeShared(session)
	s.False(expired)
	s.Equal(SharedCountdown-time.Minute, remaining)

	s.clock.Advance(SharedCountdown)
	_, expired = s.arbiter.ChargeShared(session)
	s.True(expired)
	s.Equal(model.OutcomeLoss, session.Outcome)
	s.Equal(time.Duration(0), session.SharedRemaining)
}

func (s *ArbiterSuite) TestRevealBonusOnlyInTimedMode() {
	session := s.newSession(model.ModeTimed)
	session.SharedRemaining = time.Minute

	s.arbiter.ApplyRevealBonus(session, 2)
	s.Equal(time.Minute+2*RevealBonus, session.SharedRemaining)

	other := s.newSession(model.ModeStandard)
	s.arbiter.ApplyRevealBonus(other, 2)
	s.Equal(time.Duration(0), other.SharedRemaining)
}
