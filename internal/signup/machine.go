package signup

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedField means the candidate is for a field other than the
	// one the current step waits on
	ErrUnexpectedField = errors.New("candidate does not match current step")
	// ErrSignupComplete means the session has nothing left to collect
	ErrSignupComplete = errors.New("signup already complete")
	// ErrAlreadyOpen means Open was called after the introduction
	ErrAlreadyOpen = errors.New("conversation already opened")
	// ErrEmptyCandidate means the candidate carries no value
	ErrEmptyCandidate = errors.New("empty candidate value")
)

// Candidate is a validated value for one field
type Candidate struct {
	Field Field
	Value string
}

// Open moves a session out of the introduction so it waits for a name.
// It is the only transition that takes no candidate.
func Open(s Session) (Session, error) {
	if s.Step != StepIntroduction {
		return s, ErrAlreadyOpen
	}
	s.Step = StepName
	return s, nil
}

// Advance commits c and moves the session exactly one step forward.
// The caller must have validated c; for the email step that includes
// dispatching the verification code.
func Advance(s Session, c Candidate) (Session, error) {
	if s.Step == StepComplete {
		return s, ErrSignupComplete
	}
	expected := s.Step.Field()
	if expected == FieldNone || c.Field != expected {
		return s, fmt.Errorf("%w: at %s, got %q", ErrUnexpectedField, s.Step, c.Field)
	}
	if c.Value == "" {
		return s, ErrEmptyCandidate
	}

	switch c.Field {
	case FieldName:
		s.Name = c.Value
	case FieldUsername:
		s.Username = c.Value
	case FieldPassword:
		s.Password = c.Value
	case FieldEmail:
		s.Email = c.Value
		s.VerificationCodeSent = true
	case FieldVerification:
		s.Verified = true
	}
	s.Step++
	return s, nil
}

// Reject records a failed candidate for f. The step never changes and
// fields other than the current step's are ignored.
func Reject(s Session, f Field) Session {
	if f != s.Step.Field() {
		return s
	}
	s.Attempts.increment(f)
	return s
}
