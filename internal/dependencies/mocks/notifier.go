package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/glow/internal/notify"
)

// SentMessage is a message captured by MockNotifier
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockNotifier records messages instead of delivering them
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentMessage

	// Err, when set, is returned from Send and nothing is recorded
	Err error
}

// Ensure MockNotifier implements Notifier
var _ notify.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates a MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the message
func (n *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.sent = append(n.sent, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of every recorded message
func (n *MockNotifier) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentMessage(nil), n.sent...)
}

// SetErr sets the error returned by Send
func (n *MockNotifier) SetErr(err error) {
	n.mu.Lock()
	n.Err = err
	n.mu.Unlock()
}
