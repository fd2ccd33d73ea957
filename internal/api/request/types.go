package request

// ChatRequest is the request body for one chat turn
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MatchRequest is the request body for matching a vent
type MatchRequest struct {
	VentText string `json:"vent_text"`
}
