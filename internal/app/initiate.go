package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
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
	"google.golang.org/api/option"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"

	SMSLog  = "log"
	SMSHTTP = "http"
)

func (a *App) initConfig() {
	local := os.Getenv("LOCAL") == "true"
	if local {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if local {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.token = uid.NewHexToken()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	hmac, err := hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	if err != nil {
		slog.Error("failed to init hmac hasher", "error", err)
		os.Exit(1)
	}
	a.hmac = hmac

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) gormConfig() *gorm.Config {
	level := logger.Silent
	if a.config.GetBool("database.log_queries") {
		level = logger.Info
	}

	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

func (a *App) initDatabase() {
	switch driver := strings.ToLower(strings.TrimSpace(a.config.GetString("database.driver"))); driver {
	case "", DatabasePostgres:
		a.initPostgres()
	case DatabaseSQLite:
		a.initSQLite()
	default:
		slog.Error("unknown database driver", "driver", driver)
		os.Exit(1)
	}
}

func (a *App) initPostgres() {
	poolCfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if v := a.config.GetInt("database.pool.max_conns"); v > 0 {
		poolCfg.MaxConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetInt("database.pool.min_conns"); v > 0 {
		poolCfg.MinConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		poolCfg.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		poolCfg.MaxConnIdleTime = v
	}
	if v := a.config.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		poolCfg.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	// gorm shares the pgx pool instead of opening its own connections
	gdb, err := gorm.Open(gormpg.New(gormpg.Config{Conn: stdlib.OpenDBFromPool(pool)}), a.gormConfig())
	if err != nil {
		slog.Error("failed to open gorm on postgres pool", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
	a.gormDB = gdb
	a.migrator = migration.NewPostgres(a.config.GetString("database.url"))
}

func (a *App) initSQLite() {
	path := strings.TrimSpace(a.config.GetString("database.sqlite.path"))
	if path == "" {
		path = "freightbite.db"
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	gdb, err := gorm.Open(sqlite.Open(dsn), a.gormConfig())
	if err != nil {
		slog.Error("failed to open sqlite database", "path", path, "error", err)
		os.Exit(1)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		slog.Error("failed to get sqlite handle", "error", err)
		os.Exit(1)
	}
	// one writer at a time; the conditional updates rely on it
	sqlDB.SetMaxOpenConns(1)

	a.gormDB = gdb
	a.migrator = migration.NewSQLite(gdb)
}

func (a *App) initMigration() {
	timeout := config.SecondOr(a.config, "database.init_timeout_seconds", 30*time.Second)
	a.readiness = migration.NewInitializer(a.migrator, timeout)
}

func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Warn("redis.url is empty, session sweeps are not coordinated across replicas")
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initSMS() {
	switch driver := strings.ToLower(strings.TrimSpace(a.config.GetString("sms.driver"))); driver {
	case "", SMSLog:
		a.sms = sms.NewLog()
	case SMSHTTP:
		client, err := sms.NewHTTP(sms.HTTPConfig{
			BaseURL:    a.config.GetString("sms.base_url"),
			APIKey:     a.config.GetString("sms.api_key"),
			Sender:     a.config.GetString("sms.sender"),
			Timeout:    a.config.GetSecond("sms.timeout_seconds"),
			MaxRetries: uint64(max(a.config.GetInt("sms.max_retries"), 0)), //nolint:gosec // clamped
		})
		if err != nil {
			slog.Error("failed to init sms provider", "error", err)
			os.Exit(1)
		}
		a.sms = client
	default:
		slog.Error("unknown sms driver", "driver", driver)
		os.Exit(1)
	}
}

func readFileConfig(path string) []byte {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	// #nosec G304 -- path is from trusted config file.
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read file from config", "path", path, "error", err)
		os.Exit(1)
	}
	return raw
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		slog.Warn("storage.driver is empty, freight export is disabled")
		return
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			CredentialsJSON:  readFileConfig(a.config.GetString("storage.gcs.credentials_file")),
			Endpoint:         strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")),
			WithoutAuth:      a.config.GetBool("storage.gcs.without_auth"),
			SignerAccessID:   strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			SignerPrivateKey: readFileConfig(a.config.GetString("storage.gcs.signer_private_key_file")),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		slog.Warn("messaging.driver is empty, events are not published")
		return
	}

	var pubsubOpts []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(v))
	}
	if a.config.GetBool("messaging.pubsub.without_auth") {
		pubsubOpts = append(pubsubOpts, option.WithoutAuthentication())
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ConsumerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetInt("messaging.nsq.consumer_config.max_attempts"); v > 0 {
					cfg.MaxAttempts = uint16(min(v, 65535)) //nolint:gosec // clamped
				}
				if v := a.config.GetSecond("messaging.nsq.consumer_config.lookupd_poll_interval_seconds"); v > 0 {
					cfg.LookupdPollInterval = v
				}
				if v := a.config.GetSecond("messaging.nsq.consumer_config.default_requeue_delay_seconds"); v > 0 {
					cfg.DefaultRequeueDelay = v
				}
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   config.SecondOr(a.config, "messaging.kafka.dial_timeout_seconds", 10*time.Second),
				DualStack: true,
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(config.SecondOr(a.config, "messaging.nats.timeout_seconds", 2*time.Second)),
				nats.ReconnectWait(config.SecondOr(a.config, "messaging.nats.reconnect_wait_seconds", 2*time.Second)),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initAuthz() {
	e, err := authz.NewEnforcer(a.config.GetArray("modules.auth.admin.phone_numbers"))
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	a.enforcer = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Readiness:  a.readiness,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: config.SecondOr(a.config, "app.server.http.read_header_timeout_seconds", 5*time.Second),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	add := func(name string, fn func(context.Context) error) {
		a.closers = append(a.closers, struct {
			name string
			fn   func(context.Context) error
		}{name: name, fn: fn})
	}

	add("Instrument", func(ctx context.Context) error {
		return a.ins.Shutdown(ctx)
	})
	if a.messaging != nil {
		add("Messaging", func(context.Context) error {
			return a.messaging.Close()
		})
	}
	if a.sms != nil {
		add("SMS", func(context.Context) error {
			return a.sms.Close()
		})
	}
	if a.cacheConn != nil {
		add("Redis", func(context.Context) error {
			return a.cacheConn.Close()
		})
	}
	add("Database", func(context.Context) error {
		sqlDB, err := a.gormDB.DB()
		if err != nil {
			return err
		}
		// on postgres this releases the stdlib wrapper, the pool is closed after
		if err := sqlDB.Close(); err != nil {
			return err
		}
		if a.dbConn != nil {
			a.dbConn.Close()
		}
		return nil
	})
	if a.storage != nil {
		add("Storage", func(context.Context) error {
			return a.storage.Close()
		})
	}
	add("Config", func(context.Context) error {
		return a.config.Close()
	})
}
