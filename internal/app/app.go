package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/mailer"
	"github.com/cinehub/booking-engine/internal/payment"
	"github.com/cinehub/booking-engine/internal/repository"
	"github.com/cinehub/booking-engine/internal/sweeper"
	appvalidator "github.com/cinehub/booking-engine/internal/validator"
	"github.com/cinehub/booking-engine/internal/vcs"
)

var (
	version = vcs.Version()
)

type application struct {
	config          config
	logger          *slog.Logger
	db              *pgxpool.Pool
	redis           redis.UniversalClient
	validator       *validator.Validate
	mailer          mailer.Mailer
	sessionManager  *scs.SessionManager
	webhookVerifier *payment.WebhookVerifier
	discount        domain.DiscountFunc

	seatRepo    domain.SeatRepository
	holdRepo    domain.HoldRepository
	bookingRepo domain.BookingRepository
	catalogRepo domain.CatalogRepository
}

type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	holds struct {
		duration      time.Duration
		staffDuration time.Duration
		sweepInterval time.Duration
	}
	payment struct {
		clientID      string
		apiKey        string
		checksumKey   string
		bankBIN       string
		accountNumber string
		accountName   string
		accountCity   string
	}
	otelCollectorUrl string
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "CineHub <no-reply@cinehub.example>", "SMTP sender")

	flag.DurationVar(&cfg.holds.duration, "hold-duration", 10*time.Minute, "Seat hold duration for self-service customers")
	flag.DurationVar(&cfg.holds.staffDuration, "staff-hold-duration", 30*time.Minute, "Seat hold duration for staff counter sales")
	flag.DurationVar(&cfg.holds.sweepInterval, "hold-sweep-interval", time.Minute, "Interval between hold expiry sweeps")

	flag.StringVar(&cfg.payment.clientID, "payment-client-id", "", "Payment provider client ID")
	flag.StringVar(&cfg.payment.apiKey, "payment-api-key", "", "Payment provider API key")
	flag.StringVar(&cfg.payment.checksumKey, "payment-checksum-key", "", "Payment provider webhook checksum key")
	flag.StringVar(&cfg.payment.bankBIN, "payment-bank-bin", "970422", "Receiving bank BIN")
	flag.StringVar(&cfg.payment.accountNumber, "payment-account-number", "", "Receiving bank account number")
	flag.StringVar(&cfg.payment.accountName, "payment-account-name", "CINEHUB JSC", "Receiving bank account name")
	flag.StringVar(&cfg.payment.accountCity, "payment-account-city", "HANOI", "Receiving account city")

	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app := &application{
		config:          cfg,
		logger:          logger,
		db:              db,
		redis:           redisClient,
		validator:       validator,
		mailer:          mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		sessionManager:  newSessionManager(redisClient),
		webhookVerifier: payment.NewWebhookVerifier(cfg.payment.clientID, cfg.payment.apiKey, cfg.payment.checksumKey),
		discount:        domain.NoDiscount,
		seatRepo:        repository.NewPostgresSeatRepository(db),
		holdRepo:        repository.NewPostgresHoldRepository(db, logger),
		bookingRepo:     repository.NewPostgresBookingRepository(db, logger),
		catalogRepo:     repository.NewPostgresCatalogRepository(db),
	}

	return app.run()
}

func newSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *application) run() error {
	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	holdSweeper := sweeper.New(app.holdRepo, app.config.holds.sweepInterval, app.logger)

	go holdSweeper.Run(sweeperCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopSweeper()
		shutdownTelemetry(ctx)

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
