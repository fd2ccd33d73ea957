package signup

// Attempts counts rejected candidates per field. The counts only shape
// hint text; nothing locks out after repeated failures.
type Attempts struct {
	Username     int `json:"username"`
	Password     int `json:"password"`
	Email        int `json:"email"`
	Verification int `json:"verification"`
}

// Get returns the counter for f, or 0 for fields that are never rejected
func (a Attempts) Get(f Field) int {
	switch f {
	case FieldUsername:
		return a.Username
	case FieldPassword:
		return a.Password
	case FieldEmail:
		return a.Email
	case FieldVerification:
		return a.Verification
	default:
		return 0
	}
}

func (a *Attempts) increment(f Field) {
	switch f {
	case FieldUsername:
		a.Username++
	case FieldPassword:
		a.Password++
	case FieldEmail:
		a.Email++
	case FieldVerification:
		a.Verification++
	}
}

// Session is one user's signup progress. It is a plain value: copying it
// takes a snapshot.
type Session struct {
	Step     Step   `json:"step"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	// Password is plaintext and only held until the account is saved
	Password string `json:"-"`
	Email    string `json:"email,omitempty"`

	VerificationCodeSent bool     `json:"verification_code_sent"`
	Verified             bool     `json:"verified"`
	Attempts             Attempts `json:"attempts"`

	// AccountSaved is set once the account row has been written
	AccountSaved bool `json:"account_saved"`
}

// NewSession returns a session waiting for the user's opening message
func NewSession() Session {
	return Session{Step: StepIntroduction}
}

// Complete returns true once the code has been verified
func (s Session) Complete() bool {
	return s.Step == StepComplete
}

// Has reports whether f has been committed
func (s Session) Has(f Field) bool {
	switch f {
	case FieldName:
		return s.Name != "" && s.Step > StepName
	case FieldUsername:
		return s.Username != "" && s.Step > StepUsername
	case FieldPassword:
		return s.Step > StepPassword
	case FieldEmail:
		return s.Email != "" && s.Step > StepEmail
	case FieldVerification:
		return s.Verified
	default:
		return false
	}
}
