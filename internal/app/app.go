package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/hash"
	"github.com/shandysiswandi/freightbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/pkg/migration"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/pkg/storage"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"gorm.io/gorm"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	token     uid.Token

	// resources
	dbConn    *pgxpool.Pool // nil on sqlite
	gormDB    *gorm.DB
	migrator  migration.Migrator
	readiness *migration.Initializer
	cacheConn *redis.Client // nil when redis.url is empty
	idemp     idempotency.Idempotency
	sms       sms.SMS
	messaging messaging.Messaging // nil when messaging.driver is empty
	storage   storage.Storage     // nil when storage.driver is empty
	enforcer  *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	app := newBase()

	app.initCache()
	app.initSMS()
	app.initStorage()
	app.initMessaging()
	app.initAuthz()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

// NewTask wires only what one-shot commands need: configuration, the
// database and the schema migrator.
func NewTask() *App {
	app := newBase()
	app.initClosers()

	return app
}

func newBase() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initMigration()

	return app
}
