package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-ticketing/internal/activity"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/redisx"
	"github.com/metinatakli/cinema-ticketing/internal/repository"
	"github.com/metinatakli/cinema-ticketing/internal/service/booking"
	"github.com/metinatakli/cinema-ticketing/internal/service/checkin"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatlock"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
	"github.com/metinatakli/cinema-ticketing/internal/service/ticketing"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "cinema_ticketing"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

// clock is the shared, manually advanced time source of every service.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

type services struct {
	seatLocks *seatlock.Service
	bookings  *booking.Service
	tickets   *ticketing.Service
	checkins  *checkin.Service
	seatOps   *seatops.Service
}

type fixture struct {
	cinemaID   uuid.UUID
	hallID     uuid.UUID
	movieID    uuid.UUID
	showtimeID uuid.UUID
	seats      map[string]uuid.UUID
}

type BaseSuite struct {
	suite.Suite
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	db             *pgxpool.Pool
	rdb            *redis.Client
	activity       *activity.AsyncLogger
	clock          *clock
	svc            services
	fx             fixture
}

func (s *BaseSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	s.Require().NoError(err, "failed to start postgres container")

	redisContainer, err := getCacheContainer(ctx)
	s.Require().NoError(err, "failed to start redis container")

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	s.db, err = pgxpool.New(ctx, postgresContainer.ConnectionString)
	s.Require().NoError(err)

	s.rdb = redis.NewClient(&redis.Options{Addr: redisContainer.ConnectionString})
	s.Require().NoError(s.rdb.Ping(ctx).Err())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.activity = activity.NewAsyncLogger(logger, activity.DefaultBufferSize, activity.NewSlogSink(logger))
	s.clock = &clock{now: time.Now().UTC().Truncate(time.Second)}

	catalogRepo := repository.NewPostgresCatalogRepository(s.db)
	lockRepo := repository.NewPostgresSeatLockRepository(s.db)
	bookingRepo := repository.NewPostgresBookingRepository(s.db)
	ticketRepo := repository.NewPostgresTicketRepository(s.db)

	notifier := redisx.NewSeatChangeNotifier(s.rdb, logger)

	seatLocks := seatlock.NewService(lockRepo, catalogRepo, s.activity, notifier, logger, seatlock.Config{
		Now: s.clock.Now,
	})
	tickets := ticketing.NewService(ticketRepo, catalogRepo, s.activity, logger, s.clock.Now)
	bookings := booking.NewService(bookingRepo, catalogRepo, seatLocks, tickets, s.activity, notifier, logger, booking.Config{
		Now: s.clock.Now,
	})

	s.svc = services{
		seatLocks: seatLocks,
		bookings:  bookings,
		tickets:   tickets,
		checkins:  checkin.NewService(ticketRepo, bookingRepo, catalogRepo, s.activity, logger, s.clock.Now),
		seatOps:   seatops.NewService(catalogRepo, bookingRepo, lockRepo, bookings, s.activity, notifier, logger, s.clock.Now),
	}
}

func (s *BaseSuite) TearDownSuite() {
	if s.activity != nil {
		_ = s.activity.Close(context.Background())
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// SetupTest starts every test from an empty database holding one hall with
// seats A1 (NORMAL), A2 (VIP), A3 and A4 (NORMAL) and one showtime three
// hours ahead at a base price of 90000.
func (s *BaseSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.db.Exec(ctx, `
		TRUNCATE tickets, booking_seats, bookings, seat_locks, showtimes, seats, halls, cinemas, movies, customers
	`)
	s.Require().NoError(err)
	s.Require().NoError(s.rdb.FlushDB(ctx).Err())

	s.clock.Set(time.Now().UTC().Truncate(time.Second))

	s.fx = fixture{
		cinemaID: uuid.New(),
		hallID:   uuid.New(),
		movieID:  uuid.New(),
		seats:    map[string]uuid.UUID{},
	}

	s.exec(`INSERT INTO cinemas (id, name) VALUES ($1, 'Galaxy Nguyen Du')`, s.fx.cinemaID)
	s.exec(`INSERT INTO halls (id, cinema_id, name) VALUES ($1, $2, 'Hall 3')`, s.fx.hallID, s.fx.cinemaID)
	s.exec(`INSERT INTO movies (id, title, duration) VALUES ($1, 'Dune: Part Two', 166)`, s.fx.movieID)

	for code, seatType := range map[string]domain.SeatType{
		"A1": domain.SeatTypeNormal,
		"A2": domain.SeatTypeVIP,
		"A3": domain.SeatTypeNormal,
		"A4": domain.SeatTypeNormal,
	} {
		id := uuid.New()
		s.fx.seats[code] = id
		s.exec(`INSERT INTO seats (id, hall_id, seat_code, seat_type) VALUES ($1, $2, $3, $4)`,
			id, s.fx.hallID, code, string(seatType))
	}

	s.fx.showtimeID = s.addShowtime(3 * time.Hour)
}

func (s *BaseSuite) addShowtime(startsIn time.Duration) uuid.UUID {
	id := uuid.New()
	s.exec(`INSERT INTO showtimes (id, movie_id, hall_id, start_time, base_price) VALUES ($1, $2, $3, $4, $5)`,
		id, s.fx.movieID, s.fx.hallID, s.clock.Now().Add(startsIn), decimal.NewFromInt(90000))

	return id
}

func (s *BaseSuite) addCustomer(name, email string) domain.Identity {
	id := uuid.New()
	s.exec(`INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)`, id, name, email)

	return domain.Identity{HolderID: id, Role: domain.RoleCustomer}
}

func (s *BaseSuite) exec(query string, args ...any) {
	_, err := s.db.Exec(context.Background(), query, args...)
	s.Require().NoError(err)
}

// lockAndBook walks a customer through the normal purchase path up to a
// pending booking.
func (s *BaseSuite) lockAndBook(customer domain.Identity, codes ...string) *domain.Booking {
	return s.lockAndBookOn(s.fx.showtimeID, customer, codes...)
}

func (s *BaseSuite) lockAndBookOn(showtimeID uuid.UUID, customer domain.Identity, codes ...string) *domain.Booking {
	ctx := context.Background()

	_, err := s.svc.seatLocks.Acquire(ctx, seatlock.AcquireRequest{
		ShowtimeID: showtimeID,
		SeatCodes:  codes,
		Holder:     customer,
	})
	s.Require().NoError(err)

	b, err := s.svc.bookings.Create(ctx, booking.CreateRequest{
		ShowtimeID: showtimeID,
		SeatCodes:  codes,
		Customer:   customer,
	})
	s.Require().NoError(err)

	return b
}

func (s *BaseSuite) pay(b *domain.Booking) *booking.PaidBooking {
	paid, err := s.svc.bookings.MarkPaid(context.Background(), b.ID, domain.Payment{
		Reference: "pi_" + b.ID.String()[:8],
		Method:    "card",
		Amount:    b.TotalAmount,
	})
	s.Require().NoError(err)

	return paid
}
