package seatlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/metrics"
	"go.opentelemetry.io/otel/metric"
)

const DefaultMaxSeatsPerLock = 10

type Config struct {
	HoldDuration    time.Duration
	MaxSeatsPerLock int
	Now             func() time.Time
}

func (c Config) withDefaults() Config {
	if c.HoldDuration <= 0 {
		c.HoldDuration = domain.LockHoldDuration
	}
	if c.MaxSeatsPerLock <= 0 {
		c.MaxSeatsPerLock = DefaultMaxSeatsPerLock
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return c
}

type AcquireRequest struct {
	ShowtimeID uuid.UUID
	SeatCodes  []string
	Holder     domain.Identity
	SessionID  string
}

// SweepResult lists the locks a sweep expired and the seat codes they freed,
// per showtime.
type SweepResult struct {
	Locks []domain.SeatLock
	Freed map[uuid.UUID][]string
}

// Service grants and releases soft, time-bounded holds on seats. Expiry is
// lazy: a lock past its expiry never blocks anyone, whether or not a sweep
// has flipped its status yet.
type Service struct {
	locks    domain.SeatLockRepository
	catalog  domain.CatalogRepository
	activity domain.ActivityLogger
	notifier domain.SeatChangeNotifier
	logger   *slog.Logger
	cfg      Config

	acquired  metric.Int64Counter
	conflicts metric.Int64Counter
}

func NewService(
	locks domain.SeatLockRepository,
	catalog domain.CatalogRepository,
	activity domain.ActivityLogger,
	notifier domain.SeatChangeNotifier,
	logger *slog.Logger,
	cfg Config) *Service {

	return &Service{
		locks:     locks,
		catalog:   catalog,
		activity:  activity,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		acquired:  metrics.Counter("seat_locks.acquired", "Seat locks granted"),
		conflicts: metrics.Counter("seat_locks.conflicts", "Seat lock requests rejected because of held seats"),
	}
}

func (s *Service) Acquire(ctx context.Context, req AcquireRequest) (*domain.SeatLock, error) {
	codes, err := domain.ValidateSeatCodes(req.SeatCodes, s.cfg.MaxSeatsPerLock)
	if err != nil {
		return nil, err
	}

	showtime, err := s.catalog.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !showtime.IsBookable() {
		return nil, &domain.NotFoundError{Entity: "showtime"}
	}

	seats, err := s.catalog.GetSeatsByCodes(ctx, showtime.HallID, codes)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	err = domain.CheckSeats(codes, seats)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Now().UTC()

	lock := &domain.SeatLock{
		ID:         domain.NewID(),
		ShowtimeID: showtime.ID,
		HolderID:   req.Holder.HolderID,
		SessionID:  req.SessionID,
		SeatCodes:  codes,
		Status:     domain.LockActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.HoldDuration),
		UpdatedAt:  now,
	}

	details := map[string]any{
		"showtime_id": showtime.ID.String(),
		"seats":       codes,
	}
	activity := domain.NewActivity(domain.ActivityLockAcquired, req.Holder, now, details)

	err = s.locks.Acquire(ctx, lock)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.conflicts.Add(ctx, 1)
		}

		s.activity.Log(ctx, activity.Failed(err))

		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	s.acquired.Add(ctx, 1)
	details["lock_id"] = lock.ID.String()
	s.activity.Log(ctx, activity)
	s.notifier.SeatsChanged(ctx, showtime.ID)

	return lock, nil
}

// Release ends an active lock owned by holder. Locks of other holders and
// locks that are no longer active are reported as not found.
func (s *Service) Release(ctx context.Context, lockID uuid.UUID, holder domain.Identity) (*domain.SeatLock, error) {
	now := s.cfg.Now().UTC()

	lock, err := s.locks.Release(ctx, lockID, holder.HolderID, now)
	if err != nil {
		return nil, fmt.Errorf("release lock: %w", err)
	}

	s.activity.Log(ctx, domain.NewActivity(domain.ActivityLockReleased, holder, now, map[string]any{
		"lock_id":     lock.ID.String(),
		"showtime_id": lock.ShowtimeID.String(),
		"seats":       lock.SeatCodes,
	}))
	s.notifier.SeatsChanged(ctx, lock.ShowtimeID)

	return lock, nil
}

// SweepExpired flips every lapsed active lock to expired. Conflict checks
// already ignore lapsed locks, so running it only tidies stored state.
func (s *Service) SweepExpired(ctx context.Context) (*SweepResult, error) {
	locks, err := s.locks.ExpireStale(ctx, s.cfg.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("sweep expired locks: %w", err)
	}

	result := &SweepResult{
		Locks: locks,
		Freed: make(map[uuid.UUID][]string),
	}

	for _, lock := range locks {
		result.Freed[lock.ShowtimeID] = append(result.Freed[lock.ShowtimeID], lock.SeatCodes...)
	}

	for showtimeID := range result.Freed {
		s.notifier.SeatsChanged(ctx, showtimeID)
	}

	if len(locks) > 0 {
		s.logger.Info("expired seat locks", "count", len(locks), "showtimes", len(result.Freed))
	}

	return result, nil
}

func (s *Service) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.SeatLock, error) {
	return s.locks.ListActiveByShowtime(ctx, showtimeID, s.cfg.Now().UTC())
}

func (s *Service) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.SeatLock, error) {
	return s.locks.ListByHolder(ctx, holderID)
}

// Conflicts returns the codes held by live locks of holders other than
// holderID.
func (s *Service) Conflicts(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) ([]string, error) {
	return s.locks.FindConflicts(ctx, showtimeID, holderID, codes, s.cfg.Now().UTC())
}

// Complete closes the holder's live locks that cover any of codes.
func (s *Service) Complete(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) error {
	locks, err := s.locks.Complete(ctx, showtimeID, holderID, codes, s.cfg.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete locks: %w", err)
	}

	if len(locks) > 0 {
		s.logger.Debug("completed seat locks", "showtime_id", showtimeID, "count", len(locks))
	}

	return nil
}
