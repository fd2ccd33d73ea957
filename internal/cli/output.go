package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// Prompt shows the chat input prompt in text mode
func (o *Output) Prompt() {
	if o.format != "json" {
		fmt.Fprint(o.w, "you> ")
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case ChatResult:
		o.printChatResult(v)
	case ChatSession:
		o.printChatSession(v)
	case Account:
		o.printAccount(v)
	case AuthResult:
		o.printAuthResult(v)
	case MatchResult:
		o.printMatchResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// ChatResult response type (matches API)
type ChatResult struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Step      string `json:"step"`
	Action    string `json:"action,omitempty"`
}

// Attempts response type
type Attempts struct {
	Username     int `json:"username"`
	Password     int `json:"password"`
	Email        int `json:"email"`
	Verification int `json:"verification"`
}

// ChatMessage response type
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSession response type
type ChatSession struct {
	SessionID            string        `json:"session_id"`
	Step                 string        `json:"step"`
	Name                 string        `json:"name,omitempty"`
	Username             string        `json:"username,omitempty"`
	Email                string        `json:"email,omitempty"`
	PasswordSet          bool          `json:"password_set"`
	VerificationCodeSent bool          `json:"verification_code_sent"`
	Verified             bool          `json:"verified"`
	AccountSaved         bool          `json:"account_saved"`
	Attempts             Attempts      `json:"attempts"`
	History              []ChatMessage `json:"history"`
	LastActive           time.Time     `json:"last_active"`
}

// Account response type
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult combines account and token
type AuthResult struct {
	Account      Account   `json:"account"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Match response type
type Match struct {
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Occupation         string   `json:"occupation"`
	Personality        string   `json:"personality"`
	Traits             []string `json:"traits"`
	Emoji              string   `json:"emoji"`
	CompatibilityScore int      `json:"compatibility_score"`
	Similarity         float64  `json:"similarity_score"`
}

// MatchResult response type
type MatchResult struct {
	Matches []Match `json:"matches"`
}

// HealthResult response type
type HealthResult struct {
	Status        string `json:"status"`
	Conversations int    `json:"conversations"`
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (o *Output) printChatResult(r ChatResult) {
	fmt.Fprintf(o.w, "glow> %s\n", r.Response)
	if r.Action == actionLaunchApp {
		fmt.Fprintf(o.w, "[signup complete, session %s]\n", r.SessionID)
	}
}

func (o *Output) printChatSession(s ChatSession) {
	fmt.Fprintf(o.w, "Session: %s\n", s.SessionID)
	fmt.Fprintf(o.w, "Step: %s\n", s.Step)
	if s.Name != "" {
		fmt.Fprintf(o.w, "Name: %s\n", s.Name)
	}
	if s.Username != "" {
		fmt.Fprintf(o.w, "Username: %s\n", s.Username)
	}
	fmt.Fprintf(o.w, "Password: %s\n", yesNo(s.PasswordSet))
	if s.Email != "" {
		fmt.Fprintf(o.w, "Email: %s\n", s.Email)
	}
	fmt.Fprintf(o.w, "Code sent: %s\n", yesNo(s.VerificationCodeSent))
	fmt.Fprintf(o.w, "Verified: %s\n", yesNo(s.Verified))
	fmt.Fprintf(o.w, "Saved: %s\n", yesNo(s.AccountSaved))
	fmt.Fprintf(o.w, "Attempts: username %d, password %d, email %d, code %d\n",
		s.Attempts.Username, s.Attempts.Password, s.Attempts.Email, s.Attempts.Verification)

	if len(s.History) > 0 {
		fmt.Fprintln(o.w, "\nHistory:")
		for _, m := range s.History {
			fmt.Fprintf(o.w, "  %s: %s\n", m.Role, m.Content)
		}
	}
}

func (o *Output) printAccount(a Account) {
	fmt.Fprintf(o.w, "Account: %s (%s)\n", a.Username, a.ID)
	fmt.Fprintf(o.w, "Name: %s\n", a.Name)
	fmt.Fprintf(o.w, "Email: %s\n", a.Email)
	fmt.Fprintf(o.w, "Verified: %s\n", yesNo(a.Verified))
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAccount(a.Account)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printMatchResult(r MatchResult) {
	if len(r.Matches) == 0 {
		fmt.Fprintln(o.w, "No matches")
		return
	}
	for i, m := range r.Matches {
		fmt.Fprintf(o.w, "%d. %s %s, %d (%d%% match)\n", i+1, m.Emoji, m.Name, m.Age, m.CompatibilityScore)
		fmt.Fprintf(o.w, "   %s\n", m.Occupation)
		if len(m.Traits) > 0 {
			fmt.Fprintf(o.w, "   %s\n", strings.Join(m.Traits, ", "))
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Conversations: %d\n", h.Conversations)
}
