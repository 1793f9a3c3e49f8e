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
	"strconv"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/metinatakli/cinema-ticketing/internal/activity"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/mailer"
	"github.com/metinatakli/cinema-ticketing/internal/redisx"
	"github.com/metinatakli/cinema-ticketing/internal/repository"
	"github.com/metinatakli/cinema-ticketing/internal/service/booking"
	"github.com/metinatakli/cinema-ticketing/internal/service/checkin"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatlock"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
	"github.com/metinatakli/cinema-ticketing/internal/service/ticketing"
	appvalidator "github.com/metinatakli/cinema-ticketing/internal/validator"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

type application struct {
	config         config
	logger         *slog.Logger
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager
	cache          *redisx.Cache
	lockLimiter    rateLimiter

	seatLocks seatLockService
	bookings  bookingService
	tickets   ticketService
	checkins  checkinService
	seatOps   seatOpsService
	catalog   catalogReader
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
	mongo struct {
		uri      string
		database string
	}
	amqp struct {
		url   string
		queue string
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	booking struct {
		lockHold      time.Duration
		staleAfter    time.Duration
		maxSeats      int
		sweepInterval time.Duration
		seatMapTTL    time.Duration
	}
	limiter struct {
		locks  int
		window time.Duration
	}
	paymentsAPIKey   string
	otelCollectorUrl string
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseConfig(args []string) (config, bool, error) {
	var cfg config

	fs := flag.NewFlagSet("cinema-ticketing", flag.ContinueOnError)

	fs.IntVar(&cfg.port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")

	fs.StringVar(&cfg.db.dsn, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.redis.url, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.StringVar(&cfg.mongo.uri, "mongo-uri", envString("MONGO_URI", ""), "MongoDB URI for the activity log (disabled when empty)")
	fs.StringVar(&cfg.mongo.database, "mongo-db", envString("MONGO_DB", "cinema"), "MongoDB database")

	fs.StringVar(&cfg.amqp.url, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL for activity events (disabled when empty)")
	fs.StringVar(&cfg.amqp.queue, "amqp-queue", envString("AMQP_QUEUE", activity.DefaultQueue), "RabbitMQ queue for activity events")

	fs.StringVar(&cfg.smtp.host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fs.IntVar(&cfg.smtp.port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.smtp.username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.smtp.password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.smtp.sender, "smtp-sender", envString("SMTP_SENDER", "Cinema <tickets@cinema.local>"), "SMTP sender")

	fs.DurationVar(&cfg.booking.lockHold, "lock-hold", envDuration("LOCK_HOLD", domain.LockHoldDuration), "Seat lock hold duration")
	fs.DurationVar(&cfg.booking.staleAfter, "stale-booking-age", envDuration("STALE_BOOKING_AGE", domain.StaleBookingAge), "Age after which pending bookings are swept")
	fs.IntVar(&cfg.booking.maxSeats, "max-seats", envInt("MAX_SEATS", booking.DefaultMaxSeatsPerBooking), "Maximum seats per lock or booking")
	fs.DurationVar(&cfg.booking.sweepInterval, "sweep-interval", envDuration("SWEEP_INTERVAL", time.Minute), "Interval of the expiry sweeper (0 disables it)")
	fs.DurationVar(&cfg.booking.seatMapTTL, "seat-map-ttl", envDuration("SEAT_MAP_TTL", 30*time.Second), "Seat map cache TTL")

	fs.IntVar(&cfg.limiter.locks, "limiter-locks", envInt("LIMITER_LOCKS", 20), "Lock requests allowed per user and window")
	fs.DurationVar(&cfg.limiter.window, "limiter-window", envDuration("LIMITER_WINDOW", time.Minute), "Rate limiter window")

	fs.StringVar(&cfg.paymentsAPIKey, "payments-api-key", envString("PAYMENTS_API_KEY", ""), "Key the payment system presents on confirmations")
	fs.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	err := fs.Parse(args)
	if err != nil {
		return cfg, false, err
	}

	return cfg, *displayVersion, nil
}

func Run() error {
	// .env is optional
	_ = godotenv.Load()

	cfg, displayVersion, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := initTelemetry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.otelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(slog.NewTextHandler(os.Stdout, nil), newOtelLogHandler()))
	}

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

	sinks := []activity.Sink{activity.NewSlogSink(logger)}

	if cfg.mongo.uri != "" {
		client, err := newMongoClient(cfg)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())

		sinks = append(sinks, activity.NewMongoSink(client.Database(cfg.mongo.database)))
	}

	if cfg.amqp.url != "" {
		conn, err := amqp.Dial(cfg.amqp.url)
		if err != nil {
			return fmt.Errorf("dial amqp: %w", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open amqp channel: %w", err)
		}
		defer ch.Close()

		sink, err := activity.NewAMQPSink(ch, cfg.amqp.queue)
		if err != nil {
			return err
		}

		sinks = append(sinks, sink)
	}

	activityLogger := activity.NewAsyncLogger(logger, activity.DefaultBufferSize, sinks...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := activityLogger.Close(closeCtx); err != nil {
			logger.Warn("activity log not fully flushed", "error", err)
		}
	}()

	app := newApplication(cfg, logger, db, redisClient, activityLogger)

	return app.serve(ctx)
}

func newApplication(
	cfg config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	activityLogger domain.ActivityLogger) *application {

	catalogRepo := repository.NewPostgresCatalogRepository(db)
	lockRepo := repository.NewPostgresSeatLockRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	ticketRepo := repository.NewPostgresTicketRepository(db)

	notifier := redisx.NewSeatChangeNotifier(redisClient, logger)

	seatLocks := seatlock.NewService(lockRepo, catalogRepo, activityLogger, notifier, logger, seatlock.Config{
		HoldDuration:    cfg.booking.lockHold,
		MaxSeatsPerLock: cfg.booking.maxSeats,
	})

	tickets := ticketing.NewService(ticketRepo, catalogRepo, activityLogger, logger, nil)

	bookings := booking.NewService(bookingRepo, catalogRepo, seatLocks, tickets, activityLogger, notifier, logger, booking.Config{
		MaxSeatsPerBooking: cfg.booking.maxSeats,
		StaleAfter:         cfg.booking.staleAfter,
	})

	checkins := checkin.NewService(ticketRepo, bookingRepo, catalogRepo, activityLogger, logger, nil)

	seatOps := seatops.NewService(catalogRepo, bookingRepo, lockRepo, bookings, activityLogger, notifier, logger, nil)

	return &application{
		config:         cfg,
		logger:         logger,
		validator:      appvalidator.NewValidator(),
		mailer:         mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		sessionManager: newSessionManager(redisClient),
		cache:          redisx.NewCache(redisClient),
		lockLimiter:    redisx.NewSlidingWindowLimiter(redisClient, "locks", cfg.limiter.locks, cfg.limiter.window),
		seatLocks:      seatLocks,
		bookings:       bookings,
		tickets:        tickets,
		checkins:       checkins,
		seatOps:        seatOps,
		catalog:        catalogRepo,
	}
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

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
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

func newMongoClient(cfg config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.mongo.uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// serve runs the HTTP server and the expiry sweeper until ctx is cancelled,
// then shuts the server down gracefully.
func (app *application) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		app.runSweeper(gCtx, app.config.booking.sweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
