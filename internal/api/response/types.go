package response

import (
	"time"

	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/services/chat"
	"github.com/mcoot/glow/internal/signup"
)

// ActionLaunchApp tells the client signup is finished
const ActionLaunchApp = "launch_app"

// ChatResponse is the response for one chat turn
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Step      string `json:"step"`
	Action    string `json:"action,omitempty"`
}

// ChatResponseFromResult converts a chat.TurnResult
func ChatResponseFromResult(r *chat.TurnResult) ChatResponse {
	resp := ChatResponse{
		SessionID: r.SessionID,
		Response:  r.Reply,
		Step:      r.Step.String(),
	}
	if r.Complete {
		resp.Action = ActionLaunchApp
	}
	return resp
}

// Attempts counts rejected candidates per field
type Attempts struct {
	Username     int `json:"username"`
	Password     int `json:"password"`
	Email        int `json:"email"`
	Verification int `json:"verification"`
}

// Message is one entry of a conversation transcript
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSession describes a conversation. It never includes the password.
type ChatSession struct {
	SessionID            string    `json:"session_id"`
	Step                 string    `json:"step"`
	Name                 string    `json:"name,omitempty"`
	Username             string    `json:"username,omitempty"`
	Email                string    `json:"email,omitempty"`
	PasswordSet          bool      `json:"password_set"`
	VerificationCodeSent bool      `json:"verification_code_sent"`
	Verified             bool      `json:"verified"`
	AccountSaved         bool      `json:"account_saved"`
	Attempts             Attempts  `json:"attempts"`
	History              []Message `json:"history"`
	LastActive           time.Time `json:"last_active"`
}

// ChatSessionFromView converts a chat.View
func ChatSessionFromView(v *chat.View) ChatSession {
	s := v.Session
	history := make([]Message, len(v.History))
	for i, m := range v.History {
		history[i] = Message{Role: string(m.Role), Content: m.Content}
	}
	return ChatSession{
		SessionID:            v.ID,
		Step:                 s.Step.String(),
		Name:                 s.Name,
		Username:             s.Username,
		Email:                s.Email,
		PasswordSet:          s.Has(signup.FieldPassword),
		VerificationCodeSent: s.VerificationCodeSent,
		Verified:             s.Verified,
		AccountSaved:         s.AccountSaved,
		Attempts: Attempts{
			Username:     s.Attempts.Username,
			Password:     s.Attempts.Password,
			Email:        s.Attempts.Email,
			Verification: s.Attempts.Verification,
		},
		History:    history,
		LastActive: v.LastActive,
	}
}

// Account represents an account in API responses
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountFromModel converts a model.Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:        string(a.ID),
		Name:      a.Name,
		Username:  a.Username,
		Email:     a.Email,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Account      Account   `json:"account"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Account:      AccountFromModel(&s.Account),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// MatchResponse is the response for a vent match
type MatchResponse struct {
	Matches []model.Match `json:"matches"`
}

// Health is the response for the health check
type Health struct {
	Status        string `json:"status"`
	Conversations int    `json:"conversations"`
}
