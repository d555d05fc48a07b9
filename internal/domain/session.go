package domain

import "time"

// Session is the live proof of authentication for the current user.
// At most one session is live per process.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	RawToken  string    `json:"-"`
}

// Identity is derived from the session, never stored. IsAdmin is the
// result of the gateway role check and is false while pending or on
// error; it is never true without a session.
type Identity struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

// AuthState is the observable state of the session store.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthLoading
	AuthAuthenticated
	AuthAnonymous
)

func (s AuthState) String() string {
	switch s {
	case AuthLoading:
		return "loading"
	case AuthAuthenticated:
		return "authenticated"
	case AuthAnonymous:
		return "anonymous"
	}
	return "unknown"
}
