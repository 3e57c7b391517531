// Package smstext holds the user-facing SMS bodies so the direct and queued
// delivery paths send identical text.
package smstext

import "fmt"

func OTP(code string) string {
	return fmt.Sprintf("Your freightbite verification code is %s", code)
}

var statusWording = map[string]string{
	"confirmed": "has been confirmed",
	"completed": "has been delivered",
	"cancelled": "has been cancelled",
}

// FreightStatus describes a request's new status. Unknown statuses are
// reported verbatim.
func FreightStatus(requestID int64, status string) string {
	wording, ok := statusWording[status]
	if !ok {
		wording = "is now " + status
	}
	return fmt.Sprintf("Your freight request #%d %s.", requestID, wording)
}
