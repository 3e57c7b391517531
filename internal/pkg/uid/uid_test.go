package uid

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
)

func TestHexToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewHexToken().Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(tok) != 2*TokenBytes {
			t.Fatalf("len = %d, want %d", len(tok), 2*TokenBytes)
		}
		if _, err := hex.DecodeString(tok); err != nil {
			t.Fatalf("token %q is not hex: %v", tok, err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestSnowflake(t *testing.T) {
	if _, err := NewSnowflake(5000); err == nil {
		t.Fatal("NewSnowflake(5000) should fail: node out of range")
	}

	sf, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	prev := sf.Generate()
	for i := 0; i < 1000; i++ {
		next := sf.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %d then %d", prev, next)
		}
		prev = next
	}
}

func TestUUID(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	if err != nil {
		t.Fatalf("Generate() not a uuid: %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("version = %d, want 7", id.Version())
	}
}
