package storage

import (
	"context"
	"time"

	"github.com/mcoot/glow/internal/model"
)

// Storage defines the interface for account, verification code and vent
// persistence.
// Implementations must enforce username/email uniqueness and make code
// consumption atomic.
type Storage interface {
	// Account operations
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	// CreateAccount fails with model.ErrUsernameTaken or model.ErrEmailTaken on collision
	CreateAccount(ctx context.Context, account *model.Account) error

	// Verification code operations

	// SaveCode stores code next to any codes already issued for the same email
	SaveCode(ctx context.Context, code *model.OneTimeCode) error
	// RetireCodes removes every unused code for email except keep. Called once
	// keep has been delivered, so earlier codes stop working only then.
	RetireCodes(ctx context.Context, email, keep string) error
	// DeleteCode removes a single issued code (used to roll back a failed delivery)
	DeleteCode(ctx context.Context, email, code string) error
	// ConsumeCode marks the matching unused, unexpired code as used.
	// Returns model.ErrCodeInvalid if there is no such code.
	ConsumeCode(ctx context.Context, email, code string, now time.Time) error

	// Vent operations
	SaveVent(ctx context.Context, vent *model.Vent) error
	// GetVent returns model.ErrVentNotFound for an unknown id
	GetVent(ctx context.Context, id model.VentID) (*model.Vent, error)

	Close() error
}
