package oracle

import "context"

// Guide is an offline oracle that voices the briefing's suggested reply.
// It never calls tools.
type Guide struct{}

// NewGuide creates a Guide
func NewGuide() *Guide {
	return &Guide{}
}

// Respond returns the suggestion unchanged
func (g *Guide) Respond(ctx context.Context, req Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Reply{Text: req.Suggestion}, nil
}

var _ Oracle = (*Guide)(nil)
