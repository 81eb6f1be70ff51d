package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sweeparena/sweeparena/internal/model"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(20 * time.Millisecond)
}

func (s *RegistrySuite) TearDownTest() {
	s.registry.Stop()
}

func (s *RegistrySuite) TestBindAndLookup() {
	c := &Client{}
	s.registry.Bind(c, "111111", "player-a")

	b, ok := s.registry.Lookup(c)
	s.Require().True(ok)
	s.Equal(model.RoomCode("111111"), b.Code)
	s.Equal(model.PlayerID("player-a"), b.PlayerID)

	_, ok = s.registry.Lookup(&Client{})
	s.False(ok)
}

func (s *RegistrySuite) TestUnbindReturnsBinding() {
	c := &Client{}
	s.registry.Bind(c, "111111", "player-a")

	b, ok := s.registry.Unbind(c)
	s.Require().True(ok)
	s.Equal(model.PlayerID("player-a"), b.PlayerID)

	_, ok = s.registry.Lookup(c)
	s.False(ok)

	_, ok = s.registry.Unbind(c)
	s.False(ok)
}

func (s *RegistrySuite) TestGraceTimerFiresAfterDisconnect() {
	fired := make(chan Binding, 1)
	b := Binding{Code: "111111", PlayerID: "player-a"}

	s.registry.ScheduleRemoval(b, func(got Binding) { fired <- got })
	s.Equal(1, s.registry.PendingRemovals())

	select {
	case got := <-fired:
		s.Equal(b, got)
	case <-time.After(time.Second):
		s.Fail("grace timer never fired")
	}
	s.Equal(0, s.registry.PendingRemovals())
}

func (s *RegistrySuite) TestRebindCancelsPendingRemoval() {
	fired := make(chan Binding, 1)
	b := Binding{Code: "111111", PlayerID: "player-a"}

	s.registry.ScheduleRemoval(b, func(got Binding) { fired <- got })

	// Reconnect inside the grace window.
	s.registry.Bind(&Client{}, b.Code, b.PlayerID)
	s.Equal(0, s.registry.PendingRemovals())

	select {
	case <-fired:
		s.Fail("removal ran despite reconnect")
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *RegistrySuite) TestCancelRemoval() {
	b := Binding{Code: "111111", PlayerID: "player-a"}
	s.registry.ScheduleRemoval(b, func(Binding) {})

	s.True(s.registry.CancelRemoval("player-a"))
	s.False(s.registry.CancelRemoval("player-a"))
	s.Equal(0, s.registry.PendingRemovals())
}

func (s *RegistrySuite) TestRescheduleReplacesTimer() {
	b := Binding{Code: "111111", PlayerID: "player-a"}
	s.registry.ScheduleRemoval(b, func(Binding) {})
	s.registry.ScheduleRemoval(b, func(Binding) {})

	s.Equal(1, s.registry.PendingRemovals())
}

func (s *RegistrySuite) TestStopDisarmsAllTimers() {
	s.registry.ScheduleRemoval(Binding{Code: "111111", PlayerID: "player-a"}, func(Binding) {})
	s.registry.ScheduleRemoval(Binding{Code: "111111", PlayerID: "player-b"}, func(Binding) {})

	s.registry.Stop()
	s.Equal(0, s.registry.PendingRemovals())
}
