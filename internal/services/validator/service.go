// Package validator checks signup field candidates and manages one-time
// verification codes. Outcomes are the short strings reported to the
// dialogue oracle.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/mcoot/glow/internal/dependencies/clock"
	"github.com/mcoot/glow/internal/dependencies/random"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/notify"
	"github.com/mcoot/glow/internal/signup"
	"github.com/mcoot/glow/internal/storage"
)

// Outcome is a validator result
type Outcome string

const (
	Available  Outcome = "available"
	Taken      Outcome = "taken"
	Valid      Outcome = "valid"
	Invalid    Outcome = "invalid"
	OK         Outcome = "ok"
	Weak       Outcome = "weak"
	Dispatched Outcome = "dispatched"
	Failed     Outcome = "failed"
	Correct    Outcome = "correct"
	Incorrect  Outcome = "incorrect"
	Saved      Outcome = "saved"
)

// PasswordMinLength is the only password rule. It is deliberately weak.
const PasswordMinLength = 6

const (
	codeSubject = "your glow code is here bestie"
	codeBody    = "bestieeee your glow code is %s\nenter it rn so we can get this glow up started\n\nok see u inside babe\n\n- glow"
)

// AccountCreator persists a finished signup
type AccountCreator interface {
	CreateAccount(ctx context.Context, name, username, password, email string) (*model.Account, error)
}

// Config holds configuration for the validator service
type Config struct {
	// CodeTTL is how long an issued code stays valid
	CodeTTL time.Duration
	// DeliveryTimeout bounds a single notification attempt
	DeliveryTimeout time.Duration
}

// DefaultConfig returns default validator configuration
func DefaultConfig() Config {
	return Config{
		CodeTTL:         15 * time.Minute,
		DeliveryTimeout: 10 * time.Second,
	}
}

// Service validates candidates against the account store
type Service struct {
	storage  storage.Storage
	accounts AccountCreator
	notifier notify.Notifier
	random   random.Random
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// New creates a new validator Service
func New(
	storage storage.Storage,
	accounts AccountCreator,
	notifier notify.Notifier,
	random random.Random,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Service {
	defaults := DefaultConfig()
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = defaults.CodeTTL
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = defaults.DeliveryTimeout
	}
	return &Service{
		storage:  storage,
		accounts: accounts,
		notifier: notifier,
		random:   random,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// UsernameAvailable reports whether no account uses username
func (s *Service) UsernameAvailable(ctx context.Context, username string) (Outcome, error) {
	_, err := s.storage.GetAccountByUsername(ctx, username)
	return availability(err)
}

// EmailAvailable reports whether no account uses email
func (s *Service) EmailAvailable(ctx context.Context, email string) (Outcome, error) {
	_, err := s.storage.GetAccountByEmail(ctx, email)
	return availability(err)
}

func availability(err error) (Outcome, error) {
	switch {
	case err == nil:
		return Taken, nil
	case errors.Is(err, model.ErrAccountNotFound):
		return Available, nil
	default:
		return "", err
	}
}

// EmailFormatValid checks localpart@domain.tld with an alphabetic TLD of
// at least two letters
func (s *Service) EmailFormatValid(email string) Outcome {
	if signup.EmailPatternStrict.MatchString(email) {
		return Valid
	}
	return Invalid
}

// PasswordStrength checks the minimum length only
func (s *Service) PasswordStrength(password string) Outcome {
	if utf8.RuneCountInString(password) >= PasswordMinLength {
		return OK
	}
	return Weak
}

// IssueVerificationCode generates a fresh code and delivers it. Earlier
// unused codes for email are retired only after delivery succeeds, so on
// failure the new code is removed and any code already sent keeps working.
func (s *Service) IssueVerificationCode(ctx context.Context, email string) (Outcome, error) {
	now := s.clock.Now()
	code := &model.OneTimeCode{
		Email:     email,
		Code:      random.Digits(s.random, signup.CodeLength),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	}
	if err := s.storage.SaveCode(ctx, code); err != nil {
		return Failed, fmt.Errorf("save code: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, email, codeSubject, fmt.Sprintf(codeBody, code.Code)); err != nil {
		if delErr := s.storage.DeleteCode(ctx, email, code.Code); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove undelivered code",
				slog.String("email", email),
				slog.String("error", delErr.Error()),
			)
		}
		return Failed, fmt.Errorf("%w: %w", model.ErrDeliveryFailed, err)
	}

	if err := s.storage.RetireCodes(ctx, email, code.Code); err != nil {
		return Failed, fmt.Errorf("retire earlier codes: %w", err)
	}

	s.logger.InfoContext(ctx, "verification code dispatched", slog.String("email", email))
	return Dispatched, nil
}

// VerifyCode consumes the outstanding code for email if it matches
func (s *Service) VerifyCode(ctx context.Context, email, code string) (Outcome, error) {
	err := s.storage.ConsumeCode(ctx, email, code, s.clock.Now())
	switch {
	case err == nil:
		return Correct, nil
	case errors.Is(err, model.ErrCodeInvalid):
		return Incorrect, nil
	default:
		return "", err
	}
}

// SaveAccount stores the finished signup with a hashed password
func (s *Service) SaveAccount(ctx context.Context, name, username, password, email string) (Outcome, error) {
	if _, err := s.accounts.CreateAccount(ctx, name, username, password, email); err != nil {
		return "", err
	}
	return Saved, nil
}
