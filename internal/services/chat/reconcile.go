package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/signup"
)

// Phrases in a reply that claim a code went out or signup finished
var (
	dispatchPhrases = []string{
		"sent you a code", "sent a code", "sent you a verification code", "sent a verification code",
		"sent a 6-digit code", "sent you a 6-digit code", "check your email", "check your inbox",
		"code is on its way", "code on its way",
	}
	completionPhrases = []string{
		"launching the app", "launching glow", "signup is complete", "you're officially signed up",
	}
)

// reconcile compares the reply's claims with the session. A dispatch claim
// at the email step with an oracle-validated email is honoured by
// dispatching; any other contradiction replaces the reply with one voiced
// from the session.
func (t *turn) reconcile(ctx context.Context, reply string) (string, error) {
	text := strings.ToLower(reply)
	drift := ""

	if containsAny(text, dispatchPhrases) && !t.session.VerificationCodeSent {
		if t.session.Step == signup.StepEmail && t.validatedEmail != "" {
			outcome, err := t.propose(ctx, signup.FieldEmail, t.validatedEmail)
			if err != nil {
				return "", err
			}
			if outcome != validator.Dispatched {
				drift = "dispatch claimed but " + string(outcome)
			} else {
				t.logger.InfoContext(ctx, "dispatched code claimed by reply")
			}
		} else {
			drift = "dispatch claimed but no code sent"
		}
	}
	if drift == "" && containsAny(text, completionPhrases) && !t.session.Complete() {
		drift = "completion claimed before verification"
	}

	if drift == "" {
		return reply, nil
	}
	t.logger.WarnContext(ctx, "reply contradicts session",
		slog.String("drift", drift),
		slog.String("step", t.session.Step.String()),
	)
	return signup.Brief(t.session, t.notes...).Suggestion(), nil
}
