package entity

import "time"

type User struct {
	ID          int64
	PhoneNumber string
	CreatedAt   time.Time
}

// Session is a stored login. TokenHash is the keyed digest of the token
// handed to the client; the raw token is never persisted.
type Session struct {
	ID          int64
	UserID      int64
	PhoneNumber string
	TokenHash   string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionUser is what a live session resolves to.
type SessionUser struct {
	UserID      int64
	PhoneNumber string
	ExpiresAt   time.Time
}
