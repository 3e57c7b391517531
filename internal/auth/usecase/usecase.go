package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/hash"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL         = 5 * time.Minute
	defaultSessionTTL     = time.Hour
	defaultGatewayTimeout = 10 * time.Second
	otpLogLimit           = 100
)

// Store persists challenges, users and sessions. The Replace methods are
// atomic: concurrent calls for one phone or user leave exactly one live row.
// TransitionChallenge rejects non-terminal targets.
type Store interface {
	ReplaceSentChallenge(ctx context.Context, in entity.OTPChallenge) error
	GetLatestSentChallenge(ctx context.Context, phone string) (*entity.OTPChallenge, error)
	TransitionChallenge(ctx context.Context, id int64, to entity.OTPStatus, verifiedAt *time.Time) (bool, error)
	ListChallenges(ctx context.Context, limit int) ([]entity.OTPChallenge, error)

	GetUserByPhone(ctx context.Context, phone string) (*entity.User, error)
	CreateUser(ctx context.Context, in entity.User) error

	ReplaceUserSession(ctx context.Context, in entity.Session) error
	GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (*entity.SessionUser, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Gateway delivers a code out of band. delivered=false with a nil error
// means the provider declined without failing.
type Gateway interface {
	Send(ctx context.Context, phone, code string) (delivered bool, err error)
}

type Usecase struct {
	repoDB    Store
	gateway   Gateway
	validator validator.Validator
	hmac      hash.Hash
	uid       uid.NumberID
	token     uid.Token
	clock     clock.Clocker
	ins       instrument.Instrumentation
	enforcer  casbin.IEnforcer

	otpTTL         time.Duration
	sessionTTL     time.Duration
	gatewayTimeout time.Duration

	otpIssued     metric.Int64Counter
	otpVerified   metric.Int64Counter
	sessionsSwept metric.Int64Counter
}

type Dependency struct {
	RepoDB     Store
	Gateway    Gateway
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	UID        uid.NumberID
	Token      uid.Token
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Enforcer   casbin.IEnforcer
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:    dep.RepoDB,
		gateway:   dep.Gateway,
		validator: dep.Validator,
		hmac:      dep.HMAC,
		uid:       dep.UID,
		token:     dep.Token,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		enforcer:  dep.Enforcer,

		otpTTL:         config.SecondOr(dep.Config, "modules.auth.otp.ttl_seconds", defaultOTPTTL),
		sessionTTL:     config.SecondOr(dep.Config, "modules.auth.session.ttl_seconds", defaultSessionTTL),
		gatewayTimeout: config.SecondOr(dep.Config, "modules.auth.otp.gateway_timeout_seconds", defaultGatewayTimeout),
	}

	meter := dep.Instrument.Meter("auth.usecase")
	// names are constant and valid, so creation cannot fail
	s.otpIssued, _ = meter.Int64Counter("auth.otp.issued", metric.WithDescription("Verification codes stored"))
	s.otpVerified, _ = meter.Int64Counter("auth.otp.verified", metric.WithDescription("Verification attempts by outcome"))
	s.sessionsSwept, _ = meter.Int64Counter("auth.session.swept", metric.WithDescription("Expired sessions removed"))

	return s
}

// SessionTTL is the lifetime of newly created sessions.
func (s *Usecase) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*session.Auth, error) {
	auth := session.GetAuth(ctx)
	if auth == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.enforcer.Enforce(auth.Subject(), obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", auth.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return auth, nil
}
