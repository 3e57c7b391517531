package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned when a hasher is built without a key.
var ErrEmptySecret = errors.New("hash: secret must not be empty")

// Hash produces deterministic digests and checks plaintext against them.
type Hash interface {
	Hash(str string) string
	Verify(hashed, str string) bool
}

// HMACSHA256 implements Hash with a server-side key.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a hasher keyed by secret.
func NewHMACSHA256(secret string) (*HMACSHA256, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMACSHA256{secret: []byte(secret)}, nil
}

// Hash returns the hex encoded HMAC-SHA256 of str.
func (s *HMACSHA256) Hash(str string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), []byte(s.Hash(str))) == 1
}
