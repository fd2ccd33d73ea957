package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/glow/internal/api/apierr"
	"github.com/mcoot/glow/internal/api/request"
	"github.com/mcoot/glow/internal/api/response"
	"github.com/mcoot/glow/internal/model"
)

// Matcher ranks profiles against a vent
type Matcher interface {
	Match(ctx context.Context, vent string) ([]model.Match, error)
}

// MatchHandler handles the matching endpoint
type MatchHandler struct {
	matcher Matcher
}

// NewMatchHandler creates a new match handler. matcher may be nil, in
// which case matching reports itself unavailable.
func NewMatchHandler(matcher Matcher) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

// Match handles POST /api/v1/matches
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	if h.matcher == nil {
		WriteError(w, apierr.NewMatcherUnavailableError())
		return
	}

	var req request.MatchRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	matches, err := h.matcher.Match(r.Context(), req.VentText)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchResponse{Matches: matches})
}
