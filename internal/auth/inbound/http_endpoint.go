package inbound

import (
	"log/slog"
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/auth/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
)

// HTTPEndpoint exposes the phone verification and session handlers.
type HTTPEndpoint struct {
	uc           uc
	secureCookie bool
}

// SendOTP issues a verification code to a phone number.
// @Summary Send verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Phone number"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} router.errorResponse "Invalid phone number"
// @Failure 500 {object} router.errorResponse "Storage or delivery failure"
// @Router /api/v1/auth/send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{PhoneNumber: req.PhoneNumber}); err != nil {
		return nil, err
	}

	return SuccessResponse{Success: true, Message: "Verification code sent"}, nil
}

// VerifyOTP checks a code and starts a session on success.
// @Summary Verify code and log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Phone number and code"
// @Success 200 {object} VerifyOTPResponse "Sets the session_token cookie"
// @Failure 400 {object} router.errorResponse "Invalid or expired verification code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		PhoneNumber: req.PhoneNumber,
		OTPCode:     req.OTPCode,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Success: true,
		Message: "Login successful",
		User: UserResponse{
			ID:          out.User.ID,
			PhoneNumber: out.User.PhoneNumber,
			CreatedAt:   out.User.CreatedAt,
		},
		cookie: session.Cookie(out.Token, h.uc.SessionTTL(), h.secureCookie),
	}, nil
}

// Session reports whether the session cookie is valid.
// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 500 {object} SessionResponse "authenticated=false"
// @Router /api/v1/auth/session [get]
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	su, err := h.uc.Session(r.Context(), usecase.SessionInput{Token: r.SessionToken()})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to check session", "error", err)
		return SessionResponse{Authenticated: false, status: http.StatusInternalServerError}, nil
	}
	if su == nil {
		return SessionResponse{Authenticated: false}, nil
	}

	return SessionResponse{
		Authenticated: true,
		User:          &UserResponse{ID: su.UserID, PhoneNumber: su.PhoneNumber},
	}, nil
}

// Logout revokes the session and clears the cookie.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} LogoutResponse
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{Token: r.SessionToken()}); err != nil {
		return nil, err
	}

	return LogoutResponse{
		Success: true,
		Message: "Logged out",
		cookie:  session.ExpiredCookie(h.secureCookie),
	}, nil
}

// OTPLogList lists the latest verification codes for administrators.
// @Summary Verification code log
// @Tags Admin
// @Produce json
// @Success 200 {object} OTPLogListResponse
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/v1/admin/otp-logs [get]
func (h *HTTPEndpoint) OTPLogList(r *router.Request) (any, error) {
	logs, err := h.uc.OTPLogList(r.Context())
	if err != nil {
		return nil, err
	}

	return OTPLogListResponse{
		Logs: lo.Map(logs, func(c entity.OTPChallenge, _ int) OTPLogResponse {
			return OTPLogResponse{
				ID:          c.ID,
				PhoneNumber: c.PhoneNumber,
				OTPCode:     c.Code,
				Status:      string(c.Status),
				SentAt:      c.SentAt,
				VerifiedAt:  c.VerifiedAt,
			}
		}),
	}, nil
}
