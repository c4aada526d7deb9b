package service

import "time"

// Task represents a single task record.
type Task struct {
	ID        string
	Text      string
	Completed bool
	Owner     string
	CreatedAt time.Time
}

// Document is a stored document: its ID plus a flat field mapping.
type Document struct {
	ID     string
	Fields map[string]any
}

// Filter is an equality constraint on one document field.
type Filter struct {
	Field string
	Value any
}

// Matches reports whether doc satisfies the filter.
func (f Filter) Matches(doc Document) bool {
	v, ok := doc.Fields[f.Field]
	return ok && v == f.Value
}

// User is an authenticated identity.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email"`
}

// AuthState is the session state carried by an AuthEvent.
type AuthState int

const (
	SignedOut AuthState = iota
	SignedIn
)

func (s AuthState) String() string {
	if s == SignedIn {
		return "signed-in"
	}
	return "signed-out"
}

// AuthEvent is a session-state transition.
// User is the zero value when State is SignedOut.
type AuthEvent struct {
	State AuthState
	User  User
}

// AuthError is a rejection reported by the identity provider.
// Message is the provider's own text and is shown to the user unchanged.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
