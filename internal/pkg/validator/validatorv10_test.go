package validator

import (
	"errors"
	"testing"
)

type phoneInput struct {
	PhoneNumber string `validate:"required,phone"`
	OTPCode     string `validate:"omitempty,otpcode"`
}

type statusInput struct {
	Status string `validate:"required,freightstatus"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name      string
		in        any
		wantField string
	}{
		{name: "valid phone", in: phoneInput{PhoneNumber: "09123456789"}},
		{name: "valid phone with plus", in: phoneInput{PhoneNumber: "+989123456789"}},
		{name: "phone padded with spaces", in: phoneInput{PhoneNumber: " 09123456789 "}},
		{name: "short phone", in: phoneInput{PhoneNumber: "0912345"}, wantField: "phone_number"},
		{name: "letters in phone", in: phoneInput{PhoneNumber: "0912345678a"}, wantField: "phone_number"},
		{name: "missing phone", in: phoneInput{}, wantField: "phone_number"},
		{name: "valid code", in: phoneInput{PhoneNumber: "09123456789", OTPCode: "0417"}},
		{name: "code with inner space", in: phoneInput{PhoneNumber: "09123456789", OTPCode: "04 17"}, wantField: "otp_code"},
		{name: "valid status", in: statusInput{Status: "confirmed"}},
		{name: "unknown status", in: statusInput{Status: "shipped"}, wantField: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want V10ValidationError", err)
			}
			if verr.Values()[tt.wantField] == "" {
				t.Fatalf("missing message for %q in %v", tt.wantField, verr)
			}
		})
	}
}
