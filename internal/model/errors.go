package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")

	// Verification code errors
	ErrCodeInvalid    = errors.New("verification code is invalid, used or expired")
	ErrDeliveryFailed = errors.New("verification code delivery failed")

	// Conversation errors
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")

	// Matcher errors
	ErrEmptyVent    = errors.New("vent text is empty")
	ErrNoProfiles   = errors.New("no match profiles loaded")
	ErrVentNotFound = errors.New("vent not found")
)
