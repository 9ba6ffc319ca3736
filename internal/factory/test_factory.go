package factory

import (
	"time"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/mocks"
	"github.com/mkarlin/mafiagame-go/internal/storage/memory"
	"github.com/mkarlin/mafiagame-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockRandom.NoShuffle = true

	app := newWithDependencies(store, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Close stops all background work owned by the app
func (t *TestApp) Close() {
	t.MatchmakingService.Stop()
	t.Scheduler.Stop()
}
