// Package chat runs signup conversations: one turn at a time per session,
// with the controller as the only writer of session state.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/glow/internal/dependencies/clock"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/signup"
)

// Apology is the reply to a turn that failed on an external dependency
const Apology = "omg bestie something went wrong! can you try again? 💕"

// Validators checks field candidates and manages codes and accounts
type Validators interface {
	UsernameAvailable(ctx context.Context, username string) (validator.Outcome, error)
	EmailAvailable(ctx context.Context, email string) (validator.Outcome, error)
	EmailFormatValid(email string) validator.Outcome
	PasswordStrength(password string) validator.Outcome
	IssueVerificationCode(ctx context.Context, email string) (validator.Outcome, error)
	VerifyCode(ctx context.Context, email, code string) (validator.Outcome, error)
	SaveAccount(ctx context.Context, name, username, password, email string) (validator.Outcome, error)
}

// TurnResult is the outcome of one chat turn
type TurnResult struct {
	SessionID string
	Reply     string
	Step      signup.Step
	// Complete is true once the code is verified and the account saved
	Complete bool
}

// Controller handles chat turns
type Controller struct {
	manager    *Manager
	validators Validators
	oracle     oracle.Oracle
	clock      clock.Clock
	cfg        Config
	logger     *slog.Logger
}

// NewController creates a new chat Controller
func NewController(
	manager *Manager,
	validators Validators,
	oracle oracle.Oracle,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		manager:    manager,
		validators: validators,
		oracle:     oracle,
		clock:      clock,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// HandleTurn processes one user message. An empty sessionID starts a new
// conversation. External failures do not return an error: the session is
// restored and the reply is Apology.
func (c *Controller) HandleTurn(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, model.ErrEmptyMessage
	}

	conv := c.manager.acquire(sessionID)
	defer conv.mu.Unlock()

	logger := c.logger.With(slog.String("session_id", conv.id))
	t := newTurn(c, conv, logger)
	reply, err := t.run(ctx, utterance)
	conv.lastActive = c.clock.Now()

	if err != nil {
		conv.session = t.restore
		logger.ErrorContext(ctx, "turn failed",
			slog.String("step", t.start.Step.String()),
			slog.String("restored_step", conv.session.Step.String()),
			slog.String("error", err.Error()),
		)
		return c.result(conv, Apology), nil
	}

	conv.session = t.session
	conv.history = append(conv.history,
		oracle.Message{Role: oracle.RoleUser, Content: t.spoken},
		oracle.Message{Role: oracle.RoleAssistant, Content: reply},
	)
	if over := len(conv.history) - c.cfg.HistoryLimit; over > 0 {
		conv.history = append([]oracle.Message(nil), conv.history[over:]...)
	}

	logger.InfoContext(ctx, "turn",
		slog.String("from_step", t.start.Step.String()),
		slog.String("step", conv.session.Step.String()),
		slog.Int("tool_calls", t.toolCalls),
	)
	return c.result(conv, reply), nil
}

// Session returns a read-only view of a conversation
func (c *Controller) Session(sessionID string) (*View, error) {
	return c.manager.Get(sessionID)
}

func (c *Controller) result(conv *conversation, reply string) *TurnResult {
	return &TurnResult{
		SessionID: conv.id,
		Reply:     reply,
		Step:      conv.session.Step,
		Complete:  conv.session.Complete() && conv.session.AccountSaved,
	}
}
