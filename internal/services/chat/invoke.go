package chat

import (
	"context"
	"log/slog"

	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/signup"
)

// unknownTool is reported for tools outside the offered set
const unknownTool validator.Outcome = "unknown_tool"

// invoke runs an oracle tool call. Calls for the current step are
// proposals routed through propose; calls for other steps only read.
func (t *turn) invoke(ctx context.Context, call oracle.ToolCall) (string, error) {
	t.toolCalls++
	outcome, err := t.runTool(ctx, call)
	if err != nil {
		return "", err
	}
	t.logger.DebugContext(ctx, "tool call",
		slog.String("tool", call.Name),
		slog.String("step", t.session.Step.String()),
		slog.String("outcome", string(outcome)),
	)
	return string(outcome), nil
}

func (t *turn) runTool(ctx context.Context, call oracle.ToolCall) (validator.Outcome, error) {
	step := t.session.Step
	switch call.Name {
	case ToolCheckUsername:
		username, ok := signup.Normalize(signup.FieldUsername, call.Input["username"])
		if !ok {
			return validator.Invalid, nil
		}
		if step == signup.StepUsername {
			return t.propose(ctx, signup.FieldUsername, username)
		}
		return t.check(checkUsername, username, func() (validator.Outcome, error) {
			return t.c.validators.UsernameAvailable(ctx, username)
		})

	case ToolCheckPassword:
		raw := call.Input["password"]
		if raw == redactedPassword && t.password != "" {
			raw = t.password
		}
		password, ok := signup.Normalize(signup.FieldPassword, raw)
		if !ok {
			return validator.Weak, nil
		}
		if step == signup.StepPassword {
			return t.propose(ctx, signup.FieldPassword, password)
		}
		return t.c.validators.PasswordStrength(password), nil

	case ToolValidateEmail:
		raw := call.Input["email"]
		email, ok := signup.Normalize(signup.FieldEmail, raw)
		if !ok {
			if step == signup.StepEmail {
				t.reject(signup.FieldEmail, raw)
			}
			return validator.Invalid, nil
		}
		outcome := t.c.validators.EmailFormatValid(email)
		if step == signup.StepEmail {
			if outcome == validator.Valid {
				t.validatedEmail = email
			} else {
				t.reject(signup.FieldEmail, email)
			}
		}
		return outcome, nil

	case ToolSendCode:
		email, ok := signup.Normalize(signup.FieldEmail, call.Input["email"])
		switch {
		case !ok:
			return validator.Failed, nil
		case step == signup.StepEmail:
			return t.propose(ctx, signup.FieldEmail, email)
		case step > signup.StepEmail && email == t.session.Email:
			// already sent for this session
			return validator.Dispatched, nil
		default:
			return validator.Failed, nil
		}

	case ToolVerifyCode:
		code, ok := signup.Normalize(signup.FieldVerification, call.Input["entered_code"])
		if !ok {
			return validator.Incorrect, nil
		}
		if email := call.Input["email"]; email != "" && email != t.session.Email {
			return validator.Incorrect, nil
		}
		switch step {
		case signup.StepVerification:
			return t.propose(ctx, signup.FieldVerification, code)
		case signup.StepComplete:
			return validator.Correct, nil
		default:
			return validator.Incorrect, nil
		}

	case ToolSaveUser:
		if !t.session.Complete() {
			return validator.Failed, nil
		}
		if err := t.ensureSaved(ctx); err != nil {
			return "", err
		}
		return validator.Saved, nil
	}
	return unknownTool, nil
}
