package signup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		expected  string
		ok        bool
	}{
		{name: "bare name", utterance: "archita", expected: "archita", ok: true},
		{name: "surrounding space", utterance: "  archita  ", expected: "archita", ok: true},
		{name: "full name", utterance: "Archita Nair", expected: "Archita Nair", ok: true},
		{name: "three words", utterance: "Mary Jane Watson", expected: "Mary Jane Watson", ok: true},
		{name: "lead-in dropped", utterance: "my name is archita", expected: "archita", ok: true},
		{name: "lead-in case insensitive", utterance: "I'm Archita!", expected: "Archita", ok: true},
		{name: "short name", utterance: "Ty", expected: "Ty", ok: true},
		{name: "initial", utterance: "K", expected: "K", ok: true},
		{name: "lead-in after greeting kept whole", utterance: "hello i'm archita", expected: "hello i'm archita", ok: true},
		{name: "greeting", utterance: "hi", ok: false},
		{name: "greeting with punctuation", utterance: "Hello!!", ok: false},
		{name: "multiword filler", utterance: "thank you", ok: false},
		{name: "ready after lead-in", utterance: "i'm ready", ok: false},
		{name: "question", utterance: "who are you?", ok: false},
		{name: "too many words", utterance: "i want to sign up please", ok: false},
		{name: "empty", utterance: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, step := range []Step{StepIntroduction, StepName} {
				c, ok := Extract(step, tt.utterance)
				assert.Equal(t, tt.ok, ok)
				if tt.ok {
					assert.Equal(t, Candidate{Field: FieldName, Value: tt.expected}, c)
				}
			}
		})
	}
}

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		expected  string
		ok        bool
	}{
		{name: "alphanumeric", utterance: "archu123", expected: "archu123", ok: true},
		{name: "trimmed", utterance: " archu123\n", expected: "archu123", ok: true},
		{name: "minimum length", utterance: "abc", expected: "abc", ok: true},
		{name: "too short", utterance: "ab", ok: false},
		{name: "two tokens", utterance: "archu 123", ok: false},
		{name: "contains at", utterance: "archu@123", ok: false},
		{name: "underscore", utterance: "archu_123", ok: false},
		{name: "non ascii", utterance: "archué", ok: false},
		{name: "sentence", utterance: "my username is archu123", ok: false},
		{name: "filler", utterance: "hmm", ok: false},
		{name: "filler with caps", utterance: "Thanks", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Extract(StepUsername, tt.utterance)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, Candidate{Field: FieldUsername, Value: tt.expected}, c)
			}
		})
	}
}

func TestExtractPassword(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		ok        bool
	}{
		{name: "word and digits", utterance: "mypassword1", ok: true},
		{name: "five characters is still a candidate", utterance: "abcde", ok: true},
		{name: "symbols", utterance: "p4$$w0rd!", ok: true},
		{name: "purely numeric", utterance: "123456", ok: false},
		{name: "contains at", utterance: "me@home123", ok: false},
		{name: "spaces", utterance: "my password", ok: false},
		{name: "filler", utterance: "okay", ok: false},
		{name: "empty", utterance: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Extract(StepPassword, tt.utterance)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, FieldPassword, c.Field)
				assert.Equal(t, tt.utterance, c.Value)
			}
		})
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		expected  string
		ok        bool
	}{
		{name: "bare", utterance: "apn32@cornell.edu", expected: "apn32@cornell.edu", ok: true},
		{name: "inside sentence", utterance: "my email is apn32@cornell.edu thanks", expected: "apn32@cornell.edu", ok: true},
		{name: "trailing period", utterance: "it's apn32@cornell.edu.", expected: "apn32@cornell.edu", ok: true},
		{name: "first of two", utterance: "a@b.io or c@d.io", expected: "a@b.io", ok: true},
		{name: "non-breaking space", utterance: "apn32@cornell.\u00a0edu", expected: "apn32@cornell.edu", ok: true},
		{name: "plus addressing", utterance: "apn32+glow@mail.cornell.edu", expected: "apn32+glow@mail.cornell.edu", ok: true},
		{name: "no dot", utterance: "apn32@cornell", ok: false},
		{name: "no at", utterance: "apn32.cornell.edu", ok: false},
		{name: "short tld", utterance: "apn32@cornell.e", ok: false},
		{name: "nothing email shaped", utterance: "@. hello", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Extract(StepEmail, tt.utterance)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, Candidate{Field: FieldEmail, Value: tt.expected}, c)
			}
		})
	}
}

func TestExtractVerificationCode(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		expected  string
		ok        bool
	}{
		{name: "six digits", utterance: "123456", expected: "123456", ok: true},
		{name: "leading zeros", utterance: "004211", expected: "004211", ok: true},
		{name: "trimmed", utterance: " 123456 ", expected: "123456", ok: true},
		{name: "five digits", utterance: "12345", ok: false},
		{name: "seven digits", utterance: "1234567", ok: false},
		{name: "spaced", utterance: "123 456", ok: false},
		{name: "in a sentence", utterance: "my code is 123456", ok: false},
		{name: "resend", utterance: "resend", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Extract(StepVerification, tt.utterance)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, Candidate{Field: FieldVerification, Value: tt.expected}, c)
			}
		})
	}
}

func TestExtractOnlyTargetsCurrentStep(t *testing.T) {
	// an email-shaped utterance while waiting for a username is a miss
	_, ok := Extract(StepUsername, "apn32@cornell.edu")
	assert.False(t, ok)

	// a code-shaped utterance while waiting for a password is a miss
	_, ok = Extract(StepPassword, "123456")
	assert.False(t, ok)

	_, ok = Extract(StepComplete, "anything")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	v, ok := Normalize(FieldEmail, " APN32@cornell.edu ")
	assert.True(t, ok)
	assert.Equal(t, "APN32@cornell.edu", v)

	_, ok = Normalize(FieldUsername, "has space")
	assert.False(t, ok)

	_, ok = Normalize(FieldNone, "anything")
	assert.False(t, ok)
}

func TestIsFiller(t *testing.T) {
	assert.True(t, IsFiller("Hi!"))
	assert.True(t, IsFiller("  what's   up "))
	assert.True(t, IsFiller("RESEND"))
	assert.False(t, IsFiller("archita"))
}
