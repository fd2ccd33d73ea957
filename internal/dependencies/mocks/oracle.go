package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/glow/internal/oracle"
)

// OracleTurn scripts one Respond call
type OracleTurn struct {
	// Calls are invoked in order before replying
	Calls []oracle.ToolCall
	Text  string
	Err   error
}

// ScriptedOracle replays queued turns. With nothing queued it voices the
// request's suggestion.
type ScriptedOracle struct {
	mu       sync.Mutex
	turns    []OracleTurn
	Requests []oracle.Request
	// Outcomes holds the tool results of each Respond call
	Outcomes [][]string
}

// Ensure ScriptedOracle implements Oracle
var _ oracle.Oracle = (*ScriptedOracle)(nil)

// NewScriptedOracle creates a ScriptedOracle
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{}
}

// Queue adds turns to replay
func (o *ScriptedOracle) Queue(turns ...OracleTurn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, turns...)
}

// Call is shorthand for a tool call with the given input pairs
func Call(name string, kv ...string) oracle.ToolCall {
	input := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		input[kv[i]] = kv[i+1]
	}
	return oracle.ToolCall{Name: name, Input: input}
}

// Respond replays the next queued turn
func (o *ScriptedOracle) Respond(ctx context.Context, req oracle.Request) (*oracle.Reply, error) {
	o.mu.Lock()
	o.Requests = append(o.Requests, req)
	var turn OracleTurn
	scripted := len(o.turns) > 0
	if scripted {
		turn = o.turns[0]
		o.turns = o.turns[1:]
	}
	o.mu.Unlock()

	if !scripted {
		o.record(nil)
		return &oracle.Reply{Text: req.Suggestion}, nil
	}
	if turn.Err != nil {
		o.record(nil)
		return nil, turn.Err
	}

	outcomes := make([]string, 0, len(turn.Calls))
	for _, call := range turn.Calls {
		outcome, err := req.Invoke(ctx, call)
		if err != nil {
			o.record(outcomes)
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	o.record(outcomes)

	text := turn.Text
	if text == "" {
		text = req.Suggestion
	}
	return &oracle.Reply{Text: text, Calls: turn.Calls}, nil
}

func (o *ScriptedOracle) record(outcomes []string) {
	o.mu.Lock()
	o.Outcomes = append(o.Outcomes, outcomes)
	o.mu.Unlock()
}

// LastRequest returns the most recent request, or the zero value
func (o *ScriptedOracle) LastRequest() oracle.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Requests) == 0 {
		return oracle.Request{}
	}
	return o.Requests[len(o.Requests)-1]
}
