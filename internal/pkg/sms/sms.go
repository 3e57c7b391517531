// Package sms sends text messages to phone numbers through a configured
// provider.
package sms

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipient is returned when Message.To is empty.
	ErrNoRecipient = errors.New("sms: recipient is required")
	// ErrRejected is returned when the provider refuses a message permanently.
	ErrRejected = errors.New("sms: message rejected by provider")
)

// Message is a single text to one phone number.
type Message struct {
	To   string
	Text string
}

// SMS abstracts a text message provider.
type SMS interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// MaskPhone keeps the first four and last four digits: "0912***6789".
func MaskPhone(phone string) string {
	if len(phone) <= 8 {
		return "***"
	}
	return phone[:4] + "***" + phone[len(phone)-4:]
}
