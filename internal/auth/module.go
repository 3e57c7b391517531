package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/freightbite/internal/auth/inbound"
	"github.com/shandysiswandi/freightbite/internal/auth/outbound/db"
	"github.com/shandysiswandi/freightbite/internal/auth/outbound/mq"
	"github.com/shandysiswandi/freightbite/internal/auth/outbound/sms"
	"github.com/shandysiswandi/freightbite/internal/auth/outbound/sqlite"
	"github.com/shandysiswandi/freightbite/internal/auth/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/hash"
	"github.com/shandysiswandi/freightbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
	pkgsms "github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"gorm.io/gorm"
)

const (
	DeliveryDirect = "direct"
	DeliveryQueue  = "queue"
)

// Dependency wires the auth module. Exactly one of DBConn or GormDB backs
// the store; Postgres wins when both are set. Messaging is only needed for
// queue delivery and Idempotency only for multi-replica sweeping.
type Dependency struct {
	DBConn      *pgxpool.Pool
	GormDB      *gorm.DB `validate:"-"`
	Messaging   messaging.Publisher
	Idempotency idempotency.Idempotency

	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   casbin.IEnforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	SMS        pkgsms.SMS                 `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Token      uid.Token                  `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc, err := newUsecase(dep)
	if err != nil {
		return err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetBool("modules.auth.session.cookie_secure"))

	interval := config.SecondOr(dep.Config, "modules.auth.session.sweep_interval_seconds", 0)
	inbound.NewSessionSweeper(uc, dep.Idempotency, dep.Clock, interval).Start(ctx, dep.Goroutine)

	return nil
}

// Sweep removes expired sessions once. It backs the sweep CLI command and
// needs only the store, so SMS and messaging may be left unset.
func Sweep(ctx context.Context, dep Dependency) (int64, error) {
	repo, err := newStore(dep)
	if err != nil {
		return 0, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     repo,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})
	return uc.SweepExpiredSessions(ctx)
}

func newStore(dep Dependency) (usecase.Store, error) {
	switch {
	case dep.DBConn != nil:
		return db.NewDB(dep.DBConn, dep.Instrument), nil
	case dep.GormDB != nil:
		return sqlite.NewDB(dep.GormDB, dep.Instrument), nil
	default:
		return nil, errors.New("auth: no database connection")
	}
}

func newUsecase(dep Dependency) (*usecase.Usecase, error) {
	repo, err := newStore(dep)
	if err != nil {
		return nil, err
	}

	var gateway usecase.Gateway
	switch delivery := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.auth.otp.delivery"))); delivery {
	case "", DeliveryDirect:
		gateway = sms.NewDirect(dep.SMS, dep.Instrument)
	case DeliveryQueue:
		if dep.Messaging == nil {
			return nil, errors.New("auth: queue delivery needs messaging")
		}
		gateway = mq.NewOTPDelivery(dep.Messaging, dep.Instrument)
	default:
		return nil, fmt.Errorf("auth: unknown otp delivery %q", delivery)
	}

	return usecase.New(usecase.Dependency{
		RepoDB:     repo,
		Gateway:    gateway,
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		Token:      dep.Token,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Enforcer:   dep.Enforcer,
	}), nil
}
