package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface.
// Uniqueness is enforced by UNIQUE constraints and code consumption is a
// single conditional UPDATE, so both hold across concurrent callers.
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at cfg.Path and runs migrations
func New(cfg Config) (*Storage, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}
	// One writer at a time; SQLite serializes writes anyway and this keeps
	// busy errors out of the conditional updates.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			verified      INTEGER NOT NULL DEFAULT 0,
			created_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS verification_codes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL,
			code       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			used       INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_codes_email ON verification_codes(email, used);

		CREATE TABLE IF NOT EXISTS vents (
			id         TEXT PRIMARY KEY,
			text       TEXT NOT NULL,
			embedding  TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Account operations

const accountColumns = `id, name, username, password_hash, email, verified, created_at`

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(account.ID),
		account.Name,
		account.Username,
		account.PasswordHash,
		account.Email,
		boolToInt(account.Verified),
		account.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var (
		account   model.Account
		id        string
		verified  int
		createdAt int64
	)
	err := row.Scan(&id, &account.Name, &account.Username, &account.PasswordHash, &account.Email, &verified, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	account.ID = model.AccountID(id)
	account.Verified = verified != 0
	account.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &account, nil
}

// mapConstraintError turns UNIQUE violations into model errors
func mapConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "accounts.username"):
		return model.ErrUsernameTaken
	case strings.Contains(msg, "accounts.email"):
		return model.ErrEmailTaken
	default:
		return err
	}
}

// Verification code operations

func (s *Storage) SaveCode(ctx context.Context, code *model.OneTimeCode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_codes (email, code, created_at, expires_at, used) VALUES (?, ?, ?, ?, 0)`,
		code.Email, code.Code, code.CreatedAt.UnixMilli(), code.ExpiresAt.UnixMilli())
	return err
}

func (s *Storage) RetireCodes(ctx context.Context, email, keep string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ? AND used = 0 AND code <> ?`, email, keep)
	return err
}

func (s *Storage) DeleteCode(ctx context.Context, email, code string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ? AND code = ? AND used = 0`, email, code)
	return err
}

func (s *Storage) ConsumeCode(ctx context.Context, email, code string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE verification_codes SET used = 1
		 WHERE email = ? AND code = ? AND used = 0 AND expires_at > ?`,
		email, code, now.UnixMilli())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrCodeInvalid
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Vent operations

// SaveVent stores the vent with its embedding encoded as a JSON array
func (s *Storage) SaveVent(ctx context.Context, vent *model.Vent) error {
	embedding, err := json.Marshal(vent.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vents (id, text, embedding, created_at) VALUES (?, ?, ?, ?)`,
		string(vent.ID), vent.Text, string(embedding), vent.CreatedAt.UnixMilli())
	return err
}

func (s *Storage) GetVent(ctx context.Context, id model.VentID) (*model.Vent, error) {
	var (
		vent      model.Vent
		embedding string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT text, embedding, created_at FROM vents WHERE id = ?`, string(id),
	).Scan(&vent.Text, &embedding, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrVentNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(embedding), &vent.Embedding); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	vent.ID = id
	vent.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &vent, nil
}
