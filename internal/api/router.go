package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/glow/internal/api/handler"
	"github.com/mcoot/glow/internal/api/middleware"
	"github.com/mcoot/glow/internal/api/response"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/services/chat"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	ChatController *chat.Controller
	ChatManager    *chat.Manager
	// Matcher is optional; without it /matches answers 503
	Matcher handler.Matcher
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	chatHandler := handler.NewChatHandler(cfg.ChatController)
	accountHandler := handler.NewAccountHandler(cfg.AuthService)
	matchHandler := handler.NewMatchHandler(cfg.Matcher)

	authMiddleware := middleware.Auth(cfg.AuthService)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	// Signup conversation (no auth, the session id is the handle)
	api.HandleFunc("/chat", chatHandler.Turn).Methods(http.MethodPost)
	api.HandleFunc("/chat/{session_id}", chatHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/accounts/login", accountHandler.Login).Methods(http.MethodPost)

	accounts := api.PathPrefix("/accounts").Subrouter()
	accounts.Use(authMiddleware)
	accounts.HandleFunc("/me", accountHandler.GetMe).Methods(http.MethodGet)
	accounts.HandleFunc("/logout", accountHandler.Logout).Methods(http.MethodPost)

	api.HandleFunc("/matches", matchHandler.Match).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler(cfg.ChatManager)).Methods(http.MethodGet)

	return r
}

func healthHandler(manager *chat.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := response.Health{Status: "ok"}
		if manager != nil {
			health.Conversations = manager.Len()
		}
		response.JSON(w, http.StatusOK, health)
	}
}
