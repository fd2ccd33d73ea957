package signup

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// NameMaxWords is the longest utterance taken as a name
	NameMaxWords = 3
	// UsernameMinLength is the shortest accepted username
	UsernameMinLength = 3
	// CodeLength is the number of digits in a verification code
	CodeLength = 6
)

// emailPattern finds an email inside free text. EmailPatternStrict is the
// anchored form used for format validation.
var (
	emailPattern       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	EmailPatternStrict = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// fillers are greetings and conversational noise that are never a name or
// a password. Entries are lower case with no trailing punctuation.
var fillers = map[string]struct{}{
	"hi": {}, "hii": {}, "hiii": {}, "hello": {}, "hey": {}, "heyy": {}, "heyyy": {},
	"yo": {}, "sup": {}, "hiya": {}, "howdy": {}, "greetings": {},
	"what's up": {}, "whats up": {}, "wassup": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"thanks": {}, "thank you": {}, "thx": {}, "thank u": {},
	"ok": {}, "okay": {}, "cool": {}, "nice": {}, "great": {},
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {}, "no": {}, "nope": {}, "nah": {},
	"lol": {}, "lmao": {}, "omg": {}, "hmm": {}, "hm": {}, "um": {}, "uh": {},
	"ready": {}, "i'm ready": {}, "im ready": {}, "let's go": {}, "lets go": {},
	"start": {}, "begin": {}, "help": {}, "signup": {}, "sign up": {}, "sign me up": {},
	"register": {}, "resend": {},
}

// IsFiller reports whether utterance is a greeting or conversational noise
func IsFiller(utterance string) bool {
	_, ok := fillers[fillerKey(utterance)]
	return ok
}

func fillerKey(utterance string) string {
	s := strings.ToLower(strings.TrimSpace(utterance))
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// Extract decides whether utterance is a plausible value for the field the
// given step waits on and returns it normalized. A miss changes nothing.
func Extract(step Step, utterance string) (Candidate, bool) {
	field := step.Field()
	if step == StepIntroduction {
		field = FieldName
	}
	value, ok := Normalize(field, utterance)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Field: field, Value: value}, true
}

// Normalize applies field's shape rules to value, which may come from the
// user or from an oracle tool call
func Normalize(field Field, value string) (string, bool) {
	switch field {
	case FieldName:
		return extractName(value)
	case FieldUsername:
		return extractUsername(value)
	case FieldPassword:
		return extractPassword(value)
	case FieldEmail:
		return extractEmail(value)
	case FieldVerification:
		return extractCode(value)
	default:
		return "", false
	}
}

// namePrefixes are lead-ins dropped before a name is taken
var namePrefixes = []string{"my name is ", "my name's ", "i'm ", "im ", "i am ", "call me ", "it's ", "its ", "this is "}

func extractName(utterance string) (string, bool) {
	name := strings.TrimSpace(utterance)
	if name == "" || strings.HasSuffix(name, "?") || IsFiller(name) {
		return "", false
	}
	for _, prefix := range namePrefixes {
		if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = strings.TrimRight(strings.TrimSpace(name[len(prefix):]), ".!")
			break
		}
	}
	if name == "" || len(strings.Fields(name)) > NameMaxWords || IsFiller(name) {
		return "", false
	}
	return name, true
}

func extractUsername(utterance string) (string, bool) {
	username := strings.TrimSpace(utterance)
	if len(username) < UsernameMinLength || strings.ContainsRune(username, '@') || IsFiller(username) {
		return "", false
	}
	for _, r := range username {
		if !isASCIIAlnum(r) {
			return "", false
		}
	}
	return username, true
}

// extractPassword accepts any single token that cannot be mistaken for an
// email or a verification code. Length is checked by the strength
// validator so a short password counts as a failed attempt.
func extractPassword(utterance string) (string, bool) {
	password := strings.TrimSpace(utterance)
	if password == "" || strings.IndexFunc(password, unicode.IsSpace) >= 0 {
		return "", false
	}
	if strings.ContainsRune(password, '@') || isDigits(password) || IsFiller(password) {
		return "", false
	}
	return password, true
}

func extractEmail(utterance string) (string, bool) {
	text := strings.ReplaceAll(utterance, "\u00a0", "")
	if !strings.Contains(text, "@") || !strings.Contains(text, ".") {
		return "", false
	}
	email := emailPattern.FindString(text)
	return email, email != ""
}

func extractCode(utterance string) (string, bool) {
	code := strings.TrimSpace(utterance)
	if len(code) != CodeLength || !isDigits(code) {
		return "", false
	}
	return code, true
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
