package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenBytes is the entropy of a generated token: 256 bits.
const TokenBytes = 32

// HexToken draws TokenBytes from crypto/rand and hex encodes them.
type HexToken struct{}

func NewHexToken() *HexToken {
	return &HexToken{}
}

// Generate returns a 64 character lower-case hex string.
func (HexToken) Generate() (string, error) {
	var b [TokenBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
