package factory

import (
	"time"

	"github.com/sweeparena/sweeparena/internal/config"
	"github.com/sweeparena/sweeparena/internal/dependencies/mocks"
	"github.com/sweeparena/sweeparena/internal/storage/memory"
	"github.com/sweeparena/sweeparena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies, in-memory storage and no leaderboard.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := &config.Config{
		StorageType: StorageTypeMemory,
		GracePeriod: 50 * time.Millisecond,
	}

	app, err := newWithDependencies(cfg, store, nil, mockClock, mockRandom, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
