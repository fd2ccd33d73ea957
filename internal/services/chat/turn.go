package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/signup"
)

// redactedPassword replaces a password in history and in oracle requests
const redactedPassword = "[password]"

// Check kinds for the per-turn memo
const (
	checkUsername       = "username"
	checkEmailAvailable = "email_available"
	checkDispatch       = "dispatch"
	checkVerify         = "verify"
)

// turn is the working state of one HandleTurn call. Extraction and oracle
// tool calls both go through propose, so each (field, value) is validated,
// counted and committed at most once per turn.
type turn struct {
	c      *Controller
	logger *slog.Logger

	start   signup.Session
	session signup.Session
	// restore is what the conversation falls back to on failure. It moves
	// forward once a code is consumed, since that cannot be undone.
	restore signup.Session
	history []oracle.Message

	notes    []string
	checks   map[string]validator.Outcome
	rejected map[string]bool

	// validatedEmail is an email the oracle validated at the email step
	validatedEmail string
	// password is this turn's password candidate; the oracle only sees
	// redactedPassword
	password  string
	spoken    string
	toolCalls int
}

func newTurn(c *Controller, conv *conversation, logger *slog.Logger) *turn {
	history := conv.history
	if over := len(history) - c.cfg.HistoryLimit; over > 0 {
		history = history[over:]
	}
	return &turn{
		c:        c,
		logger:   logger,
		start:    conv.session,
		session:  conv.session,
		restore:  conv.session,
		history:  history,
		checks:   make(map[string]validator.Outcome),
		rejected: make(map[string]bool),
	}
}

func (t *turn) run(ctx context.Context, utterance string) (string, error) {
	t.spoken = utterance
	if t.session.Step == signup.StepIntroduction {
		t.session, _ = signup.Open(t.session)
	}

	if t.session.Step == signup.StepVerification && wantsResend(utterance) {
		if err := t.resend(ctx); err != nil {
			return "", err
		}
	} else if candidate, ok := signup.Extract(t.session.Step, utterance); ok {
		if _, err := t.propose(ctx, candidate.Field, candidate.Value); err != nil {
			return "", err
		}
	} else if t.start.Step != signup.StepIntroduction && !signup.IsFiller(utterance) {
		if label, ok := fieldLabels[t.session.Step.Field()]; ok {
			t.note(fmt.Sprintf("hmm, that didn't look like %s.", label))
		}
	}

	if err := t.ensureSaved(ctx); err != nil {
		return "", err
	}

	reply, err := t.ask(ctx)
	if err != nil {
		return "", err
	}

	reply, err = t.reconcile(ctx, reply)
	if err != nil {
		return "", err
	}

	if err := t.ensureSaved(ctx); err != nil {
		return "", err
	}
	return reply, nil
}

var fieldLabels = map[signup.Field]string{
	signup.FieldName:         "a name",
	signup.FieldUsername:     "a username",
	signup.FieldPassword:     "a password",
	signup.FieldEmail:        "an email address",
	signup.FieldVerification: "a 6-digit code",
}

// redact keeps password out of history. A password the user typed inside
// a longer sentence is cut out of it; otherwise the whole utterance goes.
func (t *turn) redact(password string) {
	t.password = password
	if t.spoken != redactedPassword && strings.Contains(t.spoken, password) && t.spoken != password {
		t.spoken = strings.ReplaceAll(t.spoken, password, redactedPassword)
		return
	}
	t.spoken = redactedPassword
}

func (t *turn) note(text string) {
	t.notes = append(t.notes, text)
}

// ask hands the briefing to the oracle under the oracle timeout
func (t *turn) ask(ctx context.Context) (string, error) {
	briefing := signup.Brief(t.session, t.notes...)

	ctx, cancel := context.WithTimeout(ctx, t.c.cfg.OracleTimeout)
	defer cancel()

	reply, err := t.c.oracle.Respond(ctx, oracle.Request{
		Instructions: briefing.String(),
		Suggestion:   briefing.Suggestion(),
		History:      t.history,
		Utterance:    t.spoken,
		Tools:        Tools,
		Invoke:       t.invoke,
	})
	if err != nil {
		return "", fmt.Errorf("oracle: %w", err)
	}

	text := strings.TrimSpace(reply.Text)
	if text == "" {
		text = signup.Brief(t.session, t.notes...).Suggestion()
	}
	return text, nil
}

// propose validates value for field and commits or rejects it. The field
// must be the one the current step waits on.
func (t *turn) propose(ctx context.Context, field signup.Field, value string) (validator.Outcome, error) {
	v := t.c.validators
	switch field {
	case signup.FieldName:
		t.commit(field, value)
		return validator.OK, nil

	case signup.FieldUsername:
		outcome, err := t.check(checkUsername, value, func() (validator.Outcome, error) {
			return v.UsernameAvailable(ctx, value)
		})
		if err != nil {
			return "", err
		}
		if outcome == validator.Available {
			t.commit(field, value)
		} else {
			t.reject(field, value)
			t.note(fmt.Sprintf("aww, %q is already taken!", value))
		}
		return outcome, nil

	case signup.FieldPassword:
		t.redact(value)
		outcome := v.PasswordStrength(value)
		if outcome == validator.OK {
			t.commit(field, value)
		} else {
			t.reject(field, value)
		}
		return outcome, nil

	case signup.FieldEmail:
		if outcome := v.EmailFormatValid(value); outcome != validator.Valid {
			t.reject(field, value)
			return outcome, nil
		}
		outcome, err := t.check(checkEmailAvailable, value, func() (validator.Outcome, error) {
			return v.EmailAvailable(ctx, value)
		})
		if err != nil {
			return "", err
		}
		if outcome == validator.Taken {
			t.reject(field, value)
			t.note(fmt.Sprintf("hmm, %s already has a glow account!", value))
			return outcome, nil
		}
		outcome, err = t.check(checkDispatch, value, func() (validator.Outcome, error) {
			return v.IssueVerificationCode(ctx, value)
		})
		if err != nil {
			return validator.Failed, err
		}
		t.commit(field, value)
		return outcome, nil

	case signup.FieldVerification:
		email := t.session.Email
		outcome, err := t.check(checkVerify, value, func() (validator.Outcome, error) {
			return v.VerifyCode(ctx, email, value)
		})
		if err != nil {
			return "", err
		}
		if outcome == validator.Correct {
			t.commit(field, value)
			t.restore = t.session
		} else {
			t.reject(field, value)
		}
		return outcome, nil
	}
	return "", fmt.Errorf("cannot propose field %q", field)
}

// check memoizes a validator call for this turn
func (t *turn) check(kind, value string, fn func() (validator.Outcome, error)) (validator.Outcome, error) {
	key := kind + "\x00" + value
	if outcome, ok := t.checks[key]; ok {
		return outcome, nil
	}
	outcome, err := fn()
	if err != nil {
		return outcome, err
	}
	t.checks[key] = outcome
	return outcome, nil
}

func (t *turn) commit(field signup.Field, value string) {
	next, err := signup.Advance(t.session, signup.Candidate{Field: field, Value: value})
	if err != nil {
		t.logger.Warn("commit refused",
			slog.String("field", string(field)),
			slog.String("step", t.session.Step.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	t.session = next
}

// reject counts a failed candidate once per turn
func (t *turn) reject(field signup.Field, value string) {
	key := string(field) + "\x00" + value
	if t.rejected[key] {
		return
	}
	t.rejected[key] = true
	t.session = signup.Reject(t.session, field)
}

// ensureSaved writes the account once the session is complete
func (t *turn) ensureSaved(ctx context.Context) error {
	s := t.session
	if !s.Complete() || s.AccountSaved {
		return nil
	}
	if _, err := t.c.validators.SaveAccount(ctx, s.Name, s.Username, s.Password, s.Email); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	t.session.AccountSaved = true
	t.session.Password = ""
	t.restore = t.session
	t.logger.InfoContext(ctx, "account saved", slog.String("username", s.Username))
	return nil
}

func (t *turn) resend(ctx context.Context) error {
	if _, err := t.c.validators.IssueVerificationCode(ctx, t.session.Email); err != nil {
		return err
	}
	t.note("fresh code coming right up!")
	return nil
}

var resendPhrases = []string{"resend", "send again", "send it again", "new code", "another code", "didn't get", "didnt get"}

func wantsResend(utterance string) bool {
	return containsAny(strings.ToLower(utterance), resendPhrases)
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
