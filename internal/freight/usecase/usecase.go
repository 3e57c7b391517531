package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
	"github.com/shandysiswandi/freightbite/internal/pkg/storage"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateRequest(ctx context.Context, in entity.Request) error
	GetRequest(ctx context.Context, id int64) (*entity.Request, error)
	ListRequests(ctx context.Context, f entity.ListFilter) ([]entity.Request, error)
	UpdateRequestStatus(ctx context.Context, id int64, old, next entity.Status, at time.Time) (bool, error)
}

type repoMessaging interface {
	PublishStatusChanged(ctx context.Context, req entity.Request, old entity.Status) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	storage       storage.Storage
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      casbin.IEnforcer

	pricing entity.Pricing
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Storage       storage.Storage
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      casbin.IEnforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		storage:       dep.Storage,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		pricing: entity.Pricing{
			Base:  config.FloatOr(dep.Config, "modules.freight.pricing.base_price", entity.DefaultPricing.Base),
			PerKM: config.FloatOr(dep.Config, "modules.freight.pricing.per_km", entity.DefaultPricing.PerKM),
			PerKG: config.FloatOr(dep.Config, "modules.freight.pricing.per_kg", entity.DefaultPricing.PerKG),
		},
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("freight.usecase").Start(ctx, name)
}

func authenticated(ctx context.Context) (*session.Auth, error) {
	auth := session.GetAuth(ctx)
	if auth == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return auth, nil
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*session.Auth, error) {
	auth, err := authenticated(ctx)
	if err != nil {
		return nil, err
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

// page turns 1-based page/size into a bounded filter window.
func page(p, size int) (limit, offset int) {
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (max(p, 1) - 1) * size
}
