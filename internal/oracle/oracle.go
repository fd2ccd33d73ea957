// Package oracle talks to the dialogue model that voices the signup
// conversation. The model only proposes: every tool call it makes is
// routed back through a ToolInvoker owned by the caller.
package oracle

import (
	"context"
	"errors"
)

// ErrTooManyToolRounds means the model kept calling tools without replying
var ErrTooManyToolRounds = errors.New("oracle exceeded tool round limit")

// Role identifies who spoke a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Parameter is a string argument of a tool
type Parameter struct {
	Name        string
	Description string
	// Digits, when set, marks a fixed-width digit string. A model that
	// sends it as a number gets it zero-padded back to this width.
	Digits int
}

// ToolDefinition describes a tool the model may call. All parameters are
// required strings.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// ToolCall is one invocation requested by the model
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]string
}

// ToolInvoker runs a tool call and returns its short outcome string.
// An error aborts the whole turn.
type ToolInvoker func(ctx context.Context, call ToolCall) (string, error)

// Request is everything the oracle needs for one turn
type Request struct {
	// Instructions is the system briefing
	Instructions string
	// Suggestion is a plain reply that already satisfies the briefing
	Suggestion string
	History    []Message
	Utterance  string
	Tools      []ToolDefinition
	Invoke     ToolInvoker
}

// Reply is the oracle's answer for a turn
type Reply struct {
	Text string
	// Calls lists the tool calls made while producing Text, in order
	Calls []ToolCall
}

// Oracle produces the assistant's reply for a turn
type Oracle interface {
	Respond(ctx context.Context, req Request) (*Reply, error)
}
