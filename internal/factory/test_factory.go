package factory

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/glow/internal/dependencies/mocks"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/services/matcher"
	"github.com/mcoot/glow/internal/storage/memory"
	"github.com/mcoot/glow/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockNotifier *mocks.MockNotifier
	MockOracle   *mocks.ScriptedOracle
	MockEmbedder *mocks.MockEmbedder
	MemStorage   *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The oracle voices the briefing unless turns are queued, and every catalog
// profile has a one-hot embedding in catalog order.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockNotifier := mocks.NewMockNotifier()
	mockOracle := mocks.NewScriptedOracle()
	mockEmbedder := mocks.NewMockEmbedder()

	profiles := matcher.DefaultProfiles()
	for i, p := range profiles {
		mockEmbedder.Set(p.Description, OneHot(len(profiles), i)...)
	}

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	deps := dependencies{
		store:    store,
		clock:    mockClock,
		random:   mockRandom,
		notifier: mockNotifier,
		oracle:   mockOracle,
		embedder: mockEmbedder,
		profiles: profiles,
	}
	app := newWithDependencies(deps, Config{}, authCfg, testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockNotifier: mockNotifier,
		MockOracle:   mockOracle,
		MockEmbedder: mockEmbedder,
		MemStorage:   store,
	}
}

// OneHot returns a vector of length n with a 1 at index i
func OneHot(n, i int) []float32 {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("OneHot: index %d out of range for %d", i, n))
	}
	v := make([]float32, n)
	v[i] = 1
	return v
}
