package smstext

import "testing"

func TestFreightStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{status: "confirmed", want: "Your freight request #7 has been confirmed."},
		{status: "completed", want: "Your freight request #7 has been delivered."},
		{status: "cancelled", want: "Your freight request #7 has been cancelled."},
		{status: "pending", want: "Your freight request #7 is now pending."},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := FreightStatus(7, tt.status); got != tt.want {
				t.Fatalf("FreightStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOTP(t *testing.T) {
	if got := OTP("4821"); got != "Your freightbite verification code is 4821" {
		t.Fatalf("OTP() = %q", got)
	}
}
