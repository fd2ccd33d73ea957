package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcoot/glow/internal/dependencies/mocks"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/signup"
	"github.com/mcoot/glow/internal/testutil"
)

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestManager() (*Manager, *mocks.MockClock) {
	clk := mocks.NewMockClock(start)
	cfg := Config{SessionIdleTimeout: 30 * time.Minute, FinishedRetention: 5 * time.Minute}
	return NewManager(clk, cfg, testutil.NopLogger()), clk
}

// open creates a conversation and releases it
func open(m *Manager, id string) *conversation {
	conv := m.acquire(id)
	conv.mu.Unlock()
	return conv
}

func TestAcquireGeneratesID(t *testing.T) {
	m, _ := newTestManager()

	a := open(m, "")
	b := open(m, "")

	assert.NotEmpty(t, a.id)
	assert.NotEqual(t, a.id, b.id)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, signup.StepIntroduction, a.session.Step)
}

func TestAcquireUnknownIDCreates(t *testing.T) {
	m, _ := newTestManager()

	conv := open(m, "client-chosen")

	assert.Equal(t, "client-chosen", conv.id)
	assert.Same(t, conv, open(m, "client-chosen"))
}

func TestGet(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	open(m, "abc")
	view, err := m.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", view.ID)
	assert.Equal(t, start, view.LastActive)
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name     string
		idle     time.Duration
		finished bool
		removed  bool
	}{
		{name: "active", idle: time.Minute, removed: false},
		{name: "idle", idle: 31 * time.Minute, removed: true},
		{name: "finished recently", idle: time.Minute, finished: true, removed: false},
		{name: "finished and idle", idle: 6 * time.Minute, finished: true, removed: true},
		{name: "unfinished past retention", idle: 6 * time.Minute, removed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager()
			conv := open(m, "abc")
			if tt.finished {
				conv.session.Step = signup.StepComplete
				conv.session.AccountSaved = true
			}

			n := m.Sweep(start.Add(tt.idle))

			_, err := m.Get("abc")
			if tt.removed {
				assert.Equal(t, 1, n)
				assert.ErrorIs(t, err, model.ErrSessionNotFound)
			} else {
				assert.Equal(t, 0, n)
				assert.NoError(t, err)
			}
		})
	}
}

func TestSweepSkipsBusyConversation(t *testing.T) {
	m, _ := newTestManager()
	conv := m.acquire("busy")

	n := m.Sweep(start.Add(time.Hour))
	conv.mu.Unlock()

	assert.Equal(t, 0, n)
	assert.Equal(t, 1, m.Len())
}

func TestAcquireAfterSweepStartsFresh(t *testing.T) {
	m, _ := newTestManager()
	old := open(m, "abc")
	old.session.Step = signup.StepEmail

	m.Sweep(start.Add(time.Hour))
	conv := open(m, "abc")

	assert.NotSame(t, old, conv)
	assert.True(t, old.removed)
	assert.Equal(t, signup.StepIntroduction, conv.session.Step)
}

func TestConcurrentAcquireSameID(t *testing.T) {
	m, _ := newTestManager()

	var wg sync.WaitGroup
	seen := make([]*conversation, 20)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = open(m, "shared")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, m.Len())
	for _, conv := range seen {
		assert.Same(t, seen[0], conv)
	}
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, clk := newTestManager()
	open(m, "abc")
	clk.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
