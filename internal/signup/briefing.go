package signup

import (
	"fmt"
	"strings"
)

// persona is the voice the oracle is asked to speak in
const persona = `You are Glow, the most enthusiastic and supportive signup assistant ever.
Write in all lowercase, bubbly gen z slang ("bestie", "slay", "queen"), lots of warmth, a few emojis.
Stay sweet even if the user is rude. If they go off topic, acknowledge it briefly and steer back.`

// rules constrain what the oracle may claim. The session below is
// authoritative; tool results are proposals that the system confirms.
const rules = `Rules:
- Only ask for the field named under NEXT. Never ask again for a field already collected.
- Never repeat or reveal the password.
- Use the tools to check values the user gives you. Report only what a tool actually returned.
- Never say a code was sent unless generate_and_send_verification_code returned "dispatched".
- Only say you are launching the app once the progress shows verified: yes.
- End every reply by asking for the NEXT item, unless signup is complete.`

// Briefing is the state-aware context handed to the dialogue oracle
type Briefing struct {
	Step  Step
	Notes []string
	// Ask is the question the reply must end with
	Ask string
	// Hint is extra guidance after a rejected attempt, empty otherwise
	Hint string

	progress []string
}

// Brief renders s for the oracle. Notes are facts the controller
// established this turn, such as a rejected username.
func Brief(s Session, notes ...string) Briefing {
	field := s.Step.Field()
	return Briefing{
		Step:     s.Step,
		Notes:    notes,
		Ask:      ask(s),
		Hint:     hint(field, s.Attempts.Get(field), s),
		progress: progress(s),
	}
}

// Suggestion is a plain reply that voices the briefing without an oracle
func (b Briefing) Suggestion() string {
	parts := make([]string, 0, len(b.Notes)+2)
	parts = append(parts, b.Notes...)
	if b.Hint != "" {
		parts = append(parts, b.Hint)
	}
	parts = append(parts, b.Ask)
	return strings.Join(parts, " ")
}

// String renders the full system instruction
func (b Briefing) String() string {
	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\nSignup progress (authoritative):\n")
	for _, line := range b.progress {
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(b.Notes) > 0 {
		sb.WriteString("\nThis turn:\n")
		for _, note := range b.Notes {
			sb.WriteString("- ")
			sb.WriteString(note)
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "\nNEXT (%s): %s\n", b.Step, b.Ask)
	if b.Hint != "" {
		fmt.Fprintf(&sb, "Hint to pass on: %s\n", b.Hint)
	}
	sb.WriteString("\n")
	sb.WriteString(rules)
	return sb.String()
}

func progress(s Session) []string {
	return []string{
		"step: " + s.Step.String(),
		"name: " + valueOrPending(s.Name),
		"username: " + valueOrPending(committed(s, FieldUsername, s.Username)),
		"password: " + collectedOrPending(s.Has(FieldPassword)),
		"email: " + valueOrPending(committed(s, FieldEmail, s.Email)),
		"verification code sent: " + yesNo(s.VerificationCodeSent),
		"verified: " + yesNo(s.Verified),
	}
}

func committed(s Session, f Field, value string) string {
	if s.Has(f) {
		return value
	}
	return ""
}

func valueOrPending(v string) string {
	if v == "" {
		return "(not yet)"
	}
	return v
}

func collectedOrPending(ok bool) string {
	if ok {
		return "(collected)"
	}
	return "(not yet)"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func ask(s Session) string {
	switch s.Step {
	case StepIntroduction:
		return "hey bestie!! i'm glow ✨ ready to get you glowed up? what's your name?"
	case StepName:
		return "what's your name, girly pop? 💕"
	case StepUsername:
		return fmt.Sprintf("slay, %s!! now pick a username (letters and numbers only, at least %d characters)", s.Name, UsernameMinLength)
	case StepPassword:
		return "love that for you! now choose a password with at least 6 characters 🔒"
	case StepEmail:
		return "almost there queen! what's your email? i'll send you a code 💌"
	case StepVerification:
		return fmt.Sprintf("i sent a %d-digit code to %s! type it in here (or say \"resend\" for a fresh one)", CodeLength, s.Email)
	default:
		return fmt.Sprintf("you're all set, %s!! launching the app now 💅✨", s.Name)
	}
}

func hint(f Field, attempts int, s Session) string {
	if attempts == 0 {
		return ""
	}
	switch f {
	case FieldUsername:
		if attempts >= 3 {
			return fmt.Sprintf("tip: try adding some numbers, like %s%d", suggestionBase(s), 100+attempts)
		}
		return "that username didn't work, try another one with just letters and numbers."
	case FieldPassword:
		if attempts >= 3 {
			return "tip: a word plus a few numbers works, like sunnydays22 (no spaces)."
		}
		return "that password is too short, it needs at least 6 characters."
	case FieldEmail:
		if attempts >= 3 {
			return "double-check for typos, it should look exactly like name@example.com."
		}
		return "that email doesn't look right, it should look like name@example.com."
	case FieldVerification:
		if attempts >= 3 {
			return "say \"resend\" and i'll send you a brand new code."
		}
		return "that code didn't match, check the latest email from glow."
	default:
		return ""
	}
}

func suggestionBase(s Session) string {
	base := strings.ToLower(strings.Join(strings.Fields(s.Name), ""))
	base = strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return -1
	}, base)
	if base == "" {
		return "glow"
	}
	return base
}
