package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts      map[model.AccountID]*model.Account
	usernameIndex map[string]model.AccountID
	emailIndex    map[string]model.AccountID
	codes         map[string][]*model.OneTimeCode // keyed by email
	vents         map[model.VentID]*model.Vent
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:      make(map[model.AccountID]*model.Account),
		usernameIndex: make(map[string]model.AccountID),
		emailIndex:    make(map[string]model.AccountID),
		codes:         make(map[string][]*model.OneTimeCode),
		vents:         make(map[model.VentID]*model.Vent),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.copyAccount(id)
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.copyAccount(id)
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernameIndex[account.Username]; ok {
		return model.ErrUsernameTaken
	}
	if _, ok := s.emailIndex[account.Email]; ok {
		return model.ErrEmailTaken
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.usernameIndex[account.Username] = account.ID
	s.emailIndex[account.Email] = account.ID
	return nil
}

// copyAccount must be called with the lock held
func (s *Storage) copyAccount(id model.AccountID) (*model.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	result := *account
	return &result, nil
}

// Verification code operations

func (s *Storage) SaveCode(ctx context.Context, code *model.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *code
	s.codes[code.Email] = append(s.codes[code.Email], &stored)
	return nil
}

func (s *Storage) RetireCodes(ctx context.Context, email, keep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.codes[email]
	kept := existing[:0]
	for _, c := range existing {
		if c.Used || c.Code == keep {
			kept = append(kept, c)
		}
	}
	s.codes[email] = kept
	return nil
}

func (s *Storage) DeleteCode(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.codes[email]
	kept := existing[:0]
	for _, c := range existing {
		if c.Code != code || c.Used {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(s.codes, email)
		return nil
	}
	s.codes[email] = kept
	return nil
}

func (s *Storage) ConsumeCode(ctx context.Context, email, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes[email] {
		if c.Code == code && !c.Used && !c.Expired(now) {
			c.Used = true
			return nil
		}
	}
	return model.ErrCodeInvalid
}

// Vent operations

func (s *Storage) SaveVent(ctx context.Context, vent *model.Vent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vents[vent.ID] = copyVent(vent)
	return nil
}

func (s *Storage) GetVent(ctx context.Context, id model.VentID) (*model.Vent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vent, ok := s.vents[id]
	if !ok {
		return nil, model.ErrVentNotFound
	}
	return copyVent(vent), nil
}

func copyVent(v *model.Vent) *model.Vent {
	c := *v
	c.Embedding = append([]float32(nil), v.Embedding...)
	return &c
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// CodesFor returns copies of all codes stored for an email (test helper)
func (s *Storage) CodesFor(email string) []model.OneTimeCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.OneTimeCode, 0, len(s.codes[email]))
	for _, c := range s.codes[email] {
		result = append(result, *c)
	}
	return result
}
