package entity

import (
	"testing"
	"time"
)

func TestOTPStatusTerminal(t *testing.T) {
	tests := []struct {
		status OTPStatus
		want   bool
	}{
		{OTPStatusSent, false},
		{OTPStatusVerified, true},
		{OTPStatusExpired, true},
		{OTPStatusFailed, true},
		{OTPStatus("unknown"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Fatalf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOTPChallengeExpiredAt(t *testing.T) {
	sent := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := OTPChallenge{SentAt: sent}

	if c.ExpiredAt(sent.Add(5*time.Minute), 5*time.Minute) {
		t.Fatal("ExpiredAt() at exactly ttl = true, want false")
	}
	if !c.ExpiredAt(sent.Add(5*time.Minute+time.Millisecond), 5*time.Minute) {
		t.Fatal("ExpiredAt() past ttl = false, want true")
	}
}

func TestVerifyOutcomeErr(t *testing.T) {
	if VerifyOutcomeVerified.Err() != nil {
		t.Fatal("Verified.Err() != nil")
	}
	if VerifyOutcomeExpired.Err() != ErrChallengeExpired || VerifyOutcomeMismatch.Err() != ErrCodeMismatch ||
		VerifyOutcomeNoChallenge.Err() != ErrNoChallenge {
		t.Fatal("failed outcomes map to the wrong sentinel")
	}
}
