package inbound

import (
	"context"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/auth/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
)

type uc interface {
	session.Validator

	SendOTP(ctx context.Context, in usecase.SendOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Session(ctx context.Context, in usecase.SessionInput) (*entity.SessionUser, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	OTPLogList(ctx context.Context) ([]entity.OTPChallenge, error)

	SessionTTL() time.Duration
}

// RegisterHTTPEndpoint mounts the auth routes and makes uc the session
// validator for every protected route.
func RegisterHTTPEndpoint(r *router.Router, uc uc, secureCookie bool) {
	end := &HTTPEndpoint{uc: uc, secureCookie: secureCookie}

	r.UseAuthenticator(uc)

	r.POST("/api/v1/auth/send-otp", end.SendOTP)
	r.POST("/api/v1/auth/verify-otp", end.VerifyOTP)
	r.GET("/api/v1/auth/session", end.Session)
	r.POST("/api/v1/auth/logout", end.Logout)

	// need authenticated & authorization
	r.GET("/api/v1/admin/otp-logs", end.OTPLogList)
}
