package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/glow/internal/api/request"
	"github.com/mcoot/glow/internal/api/response"
	"github.com/mcoot/glow/internal/services/chat"
)

// ChatController runs signup conversations
type ChatController interface {
	HandleTurn(ctx context.Context, sessionID, utterance string) (*chat.TurnResult, error)
	Session(sessionID string) (*chat.View, error)
}

// ChatHandler handles chat endpoints
type ChatHandler struct {
	controller ChatController
}

// NewChatHandler creates a new chat handler
func NewChatHandler(controller ChatController) *ChatHandler {
	return &ChatHandler{controller: controller}
}

// Turn handles POST /api/v1/chat
func (h *ChatHandler) Turn(w http.ResponseWriter, r *http.Request) {
	var req request.ChatRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, NewInvalidRequestError("message is required"))
		return
	}

	result, err := h.controller.HandleTurn(r.Context(), strings.TrimSpace(req.SessionID), req.Message)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChatResponseFromResult(result))
}

// Get handles GET /api/v1/chat/{session_id}
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.Session(mux.Vars(r)["session_id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChatSessionFromView(view))
}
