// Package signup holds the signup conversation state machine: the step
// ordering, the session record, field extraction and the briefing handed
// to the dialogue oracle.
package signup

import (
	"fmt"
)

// Step is the single field the conversation is currently collecting.
// Steps are ordered; a session only ever moves forward through them.
type Step uint8

const (
	StepIntroduction Step = iota
	StepName
	StepUsername
	StepPassword
	StepEmail
	StepVerification
	StepComplete
)

var stepNames = [...]string{
	StepIntroduction: "introduction",
	StepName:         "name",
	StepUsername:     "username",
	StepPassword:     "password",
	StepEmail:        "email",
	StepVerification: "verification",
	StepComplete:     "complete",
}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", uint8(s))
}

// Valid reports whether s is one of the defined steps
func (s Step) Valid() bool {
	return s <= StepComplete
}

// MarshalText encodes the step by name
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name
func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ParseStep returns the step with the given name
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// Field identifies a piece of signup data
type Field string

const (
	FieldNone         Field = ""
	FieldName         Field = "name"
	FieldUsername     Field = "username"
	FieldPassword     Field = "password"
	FieldEmail        Field = "email"
	FieldVerification Field = "verification"
)

// Field returns the field a step commits. Introduction and Complete commit
// nothing.
func (s Step) Field() Field {
	switch s {
	case StepName:
		return FieldName
	case StepUsername:
		return FieldUsername
	case StepPassword:
		return FieldPassword
	case StepEmail:
		return FieldEmail
	case StepVerification:
		return FieldVerification
	default:
		return FieldNone
	}
}
