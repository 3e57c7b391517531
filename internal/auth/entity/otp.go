package entity

import (
	"errors"
	"time"
)

// Verification failures. They stay server-side; clients only ever see one
// generic message.
var (
	ErrNoChallenge        = errors.New("no outstanding verification code")
	ErrChallengeExpired   = errors.New("verification code expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrGatewayUndelivered = errors.New("verification code not delivered")
	ErrNonTerminalStatus  = errors.New("challenge can only move to a terminal status")
)

type OTPStatus string

const (
	OTPStatusSent     OTPStatus = "sent"
	OTPStatusVerified OTPStatus = "verified"
	OTPStatusExpired  OTPStatus = "expired"
	OTPStatusFailed   OTPStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s OTPStatus) Terminal() bool {
	return s == OTPStatusVerified || s == OTPStatusExpired || s == OTPStatusFailed
}

// OTPChallenge is one issued code. VerifiedAt is set only once Status is
// OTPStatusVerified.
type OTPChallenge struct {
	ID          int64
	PhoneNumber string
	Code        string
	Status      OTPStatus
	SentAt      time.Time
	VerifiedAt  *time.Time
}

// ExpiredAt reports whether the challenge is older than ttl at now. A code
// exactly ttl old is still accepted.
func (c OTPChallenge) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.SentAt) > ttl
}

// VerifyOutcome is the result of checking a submitted code.
type VerifyOutcome int

const (
	VerifyOutcomeVerified VerifyOutcome = iota
	VerifyOutcomeNoChallenge
	VerifyOutcomeExpired
	VerifyOutcomeMismatch
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyOutcomeVerified:
		return "verified"
	case VerifyOutcomeNoChallenge:
		return "no_challenge"
	case VerifyOutcomeExpired:
		return "expired"
	case VerifyOutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Err maps a failed outcome to its sentinel; Verified maps to nil.
func (o VerifyOutcome) Err() error {
	switch o {
	case VerifyOutcomeVerified:
		return nil
	case VerifyOutcomeExpired:
		return ErrChallengeExpired
	case VerifyOutcomeMismatch:
		return ErrCodeMismatch
	default:
		return ErrNoChallenge
	}
}
