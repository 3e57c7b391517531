package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
)

type sent struct {
	phone string
	text  string
}

type fakeSMS struct {
	sent []sent
	err  error
}

func (f *fakeSMS) Send(_ context.Context, phone, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{phone: phone, text: text})
	return nil
}

func newUsecase(t *testing.T) (*Usecase, *fakeSMS) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed creating validator: %v", err)
	}

	f := &fakeSMS{}
	return New(Dependency{RepoSMS: f, Validator: v, Instrument: instrument.NewNoop()}), f
}

func TestConsumeOTPDelivery(t *testing.T) {
	uc, f := newUsecase(t)

	if err := uc.ConsumeOTPDelivery(context.Background(), ConsumeOTPDeliveryInput{PhoneNumber: " 09121111111 ", OTPCode: "4821"}); err != nil {
		t.Fatalf("ConsumeOTPDelivery() error = %v", err)
	}
	if len(f.sent) != 1 || f.sent[0].phone != "09121111111" || f.sent[0].text != "Your freightbite verification code is 4821" {
		t.Fatalf("sent = %+v", f.sent)
	}
}

func TestConsumeOTPDeliveryDropsInvalid(t *testing.T) {
	uc, f := newUsecase(t)

	for _, in := range []ConsumeOTPDeliveryInput{
		{PhoneNumber: "", OTPCode: "4821"},
		{PhoneNumber: "09121111111", OTPCode: ""},
	} {
		if err := uc.ConsumeOTPDelivery(context.Background(), in); err != nil {
			t.Fatalf("ConsumeOTPDelivery(%+v) error = %v, want nil", in, err)
		}
	}
	if len(f.sent) != 0 {
		t.Fatalf("sent = %+v, want none", f.sent)
	}
}

func TestConsumeOTPDeliveryProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "rejected is dropped", err: sms.ErrRejected, wantErr: false},
		{name: "transient is retried", err: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, f := newUsecase(t)
			f.err = tt.err

			err := uc.ConsumeOTPDelivery(context.Background(), ConsumeOTPDeliveryInput{PhoneNumber: "09121111111", OTPCode: "1"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConsumeOTPDelivery() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsumeFreightStatusChanged(t *testing.T) {
	tests := []struct {
		name     string
		in       ConsumeFreightStatusChangedInput
		wantText string
	}{
		{
			name:     "confirmed",
			in:       ConsumeFreightStatusChangedInput{RequestID: 7, PhoneNumber: "09121111111", OldStatus: "pending", NewStatus: "confirmed"},
			wantText: "Your freight request #7 has been confirmed.",
		},
		{
			name: "unchanged status",
			in:   ConsumeFreightStatusChangedInput{RequestID: 7, PhoneNumber: "09121111111", OldStatus: "confirmed", NewStatus: "confirmed"},
		},
		{
			name: "unknown status",
			in:   ConsumeFreightStatusChangedInput{RequestID: 7, PhoneNumber: "09121111111", OldStatus: "pending", NewStatus: "lost"},
		},
		{
			name: "missing phone",
			in:   ConsumeFreightStatusChangedInput{RequestID: 7, OldStatus: "pending", NewStatus: "cancelled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, f := newUsecase(t)

			if err := uc.ConsumeFreightStatusChanged(context.Background(), tt.in); err != nil {
				t.Fatalf("ConsumeFreightStatusChanged() error = %v", err)
			}

			if tt.wantText == "" {
				if len(f.sent) != 0 {
					t.Fatalf("sent = %+v, want none", f.sent)
				}
				return
			}
			if len(f.sent) != 1 || f.sent[0].text != tt.wantText {
				t.Fatalf("sent = %+v, want %q", f.sent, tt.wantText)
			}
		})
	}
}
