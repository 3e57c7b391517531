package inbound

import (
	"net/http"
	"time"
)

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type UserResponse struct {
	ID          int64     `json:"id,string"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

type VerifyOTPResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`

	cookie *http.Cookie
}

func (r VerifyOTPResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`

	status int
}

func (r SessionResponse) StatusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	cookie *http.Cookie
}

func (r LogoutResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type OTPLogResponse struct {
	ID          int64      `json:"id,string"`
	PhoneNumber string     `json:"phone_number"`
	OTPCode     string     `json:"otp_code"`
	Status      string     `json:"status"`
	SentAt      time.Time  `json:"sent_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
}

type OTPLogListResponse struct {
	Logs []OTPLogResponse `json:"logs"`
}
