package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/glow/internal/dependencies/clock"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/signup"
)

// conversation is one session's state. mu serializes turns.
type conversation struct {
	mu         sync.Mutex
	id         string
	session    signup.Session
	history    []oracle.Message
	lastActive time.Time
	// removed is set by Sweep; a turn that acquires a removed
	// conversation must look it up again
	removed bool
}

// View is a read-only copy of a conversation
type View struct {
	ID         string           `json:"session_id"`
	Session    signup.Session   `json:"session"`
	History    []oracle.Message `json:"history"`
	LastActive time.Time        `json:"last_active"`
}

// Manager owns in-process conversations keyed by session id
type Manager struct {
	mu            sync.Mutex
	conversations map[string]*conversation

	clock             clock.Clock
	idleTimeout       time.Duration
	finishedRetention time.Duration
	logger            *slog.Logger
}

// NewManager creates a Manager
func NewManager(clock clock.Clock, cfg Config, logger *slog.Logger) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		conversations:     make(map[string]*conversation),
		clock:             clock,
		idleTimeout:       cfg.SessionIdleTimeout,
		finishedRetention: cfg.FinishedRetention,
		logger:            logger,
	}
}

// acquire returns the locked conversation for id, creating it if needed.
// An empty id starts a new conversation with a generated id.
func (m *Manager) acquire(id string) *conversation {
	for {
		m.mu.Lock()
		if id == "" {
			id = uuid.NewString()
		}
		conv, ok := m.conversations[id]
		if !ok {
			conv = &conversation{
				id:         id,
				session:    signup.NewSession(),
				lastActive: m.clock.Now(),
			}
			m.conversations[id] = conv
		}
		m.mu.Unlock()

		conv.mu.Lock()
		if !conv.removed {
			return conv
		}
		conv.mu.Unlock()
	}
}

// Get returns a copy of the conversation for id
func (m *Manager) Get(id string) (*View, error) {
	m.mu.Lock()
	conv, ok := m.conversations[id]
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.removed {
		return nil, model.ErrSessionNotFound
	}
	return &View{
		ID:         conv.id,
		Session:    conv.session,
		History:    append([]oracle.Message(nil), conv.history...),
		LastActive: conv.lastActive,
	}, nil
}

// Len returns the number of live conversations
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}

// Sweep drops conversations idle longer than the idle timeout and finished
// conversations idle longer than the retention period. Conversations with a
// turn in progress are skipped. Returns the number removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, conv := range m.conversations {
		if !conv.mu.TryLock() {
			continue
		}
		idle := now.Sub(conv.lastActive)
		finished := conv.session.Complete() && conv.session.AccountSaved
		if idle > m.idleTimeout || (finished && idle > m.finishedRetention) {
			conv.removed = true
			delete(m.conversations, id)
			removed++
		}
		conv.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(m.clock.Now()); n > 0 {
				m.logger.Info("swept conversations", slog.Int("removed", n))
			}
		}
	}
}
