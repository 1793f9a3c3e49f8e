package seatlock_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/mocks"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatlock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	now        = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	showtimeID = uuid.MustParse("5f0c6a0e-3f5c-4d7a-9d0b-1c2e3f4a5b6c")
	hallID     = uuid.MustParse("0b7d1f5e-8a44-4d6c-a0f1-2b3c4d5e6f70")
	holder     = domain.Identity{HolderID: uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"), Role: domain.RoleCustomer}
)

type SeatLockServiceTestSuite struct {
	suite.Suite
	service  *seatlock.Service
	locks    *mocks.MockSeatLockRepo
	catalog  *mocks.MockCatalogRepo
	activity *mocks.MockActivityLogger
	notifier *mocks.MockSeatChangeNotifier
}

func (s *SeatLockServiceTestSuite) SetupTest() {
	s.locks = new(mocks.MockSeatLockRepo)
	s.catalog = new(mocks.MockCatalogRepo)
	s.activity = new(mocks.MockActivityLogger)
	s.notifier = new(mocks.MockSeatChangeNotifier)

	s.activity.On("Log", mock.Anything, mock.Anything).Maybe()

	s.service = seatlock.NewService(
		s.locks,
		s.catalog,
		s.activity,
		s.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		seatlock.Config{Now: func() time.Time { return now }},
	)
}

func TestSeatLockServiceSuite(t *testing.T) {
	suite.Run(t, new(SeatLockServiceTestSuite))
}

func activeShowtime() *domain.Showtime {
	return &domain.Showtime{
		ID:        showtimeID,
		HallID:    hallID,
		StartsAt:  now.Add(48 * time.Hour),
		BasePrice: decimal.NewFromInt(90000),
		Status:    domain.ShowtimeActive,
	}
}

func seat(code string, broken bool) domain.Seat {
	return domain.Seat{ID: uuid.New(), HallID: hallID, Code: code, Type: domain.SeatTypeNormal, Broken: broken}
}

func (s *SeatLockServiceTestSuite) TestAcquire() {
	tests := []struct {
		name      string
		codes     []string
		setupMock func()
		wantErr   error
		wantSeats []string
	}{
		{
			name:    "no seat codes",
			codes:   []string{" ", ""},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "too many seat codes",
			codes:   []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "A11"},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "showtime not found",
			codes: []string{"A1"},
			setupMock: func() {
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).
					Return(nil, &domain.NotFoundError{Entity: "showtime"})
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:  "cancelled showtime",
			codes: []string{"A1"},
			setupMock: func() {
				st := activeShowtime()
				st.Status = domain.ShowtimeCancelled
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(st, nil)
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:  "unknown seat code",
			codes: []string{"A1", "Z9"},
			setupMock: func() {
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(activeShowtime(), nil)
				s.catalog.On("GetSeatsByCodes", mock.Anything, hallID, []string{"A1", "Z9"}).
					Return([]domain.Seat{seat("A1", false)}, nil)
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:  "broken seat",
			codes: []string{"A1", "A2"},
			setupMock: func() {
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(activeShowtime(), nil)
				s.catalog.On("GetSeatsByCodes", mock.Anything, hallID, []string{"A1", "A2"}).
					Return([]domain.Seat{seat("A1", false), seat("A2", true)}, nil)
			},
			wantErr:   domain.ErrConflict,
			wantSeats: []string{"A2"},
		},
		{
			name:  "seats held by another holder",
			codes: []string{"A1", "A3"},
			setupMock: func() {
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(activeShowtime(), nil)
				s.catalog.On("GetSeatsByCodes", mock.Anything, hallID, []string{"A1", "A3"}).
					Return([]domain.Seat{seat("A1", false), seat("A3", false)}, nil)
				s.locks.On("Acquire", mock.Anything, mock.Anything).
					Return(domain.NewConflictError([]string{"A1"}))
			},
			wantErr:   domain.ErrConflict,
			wantSeats: []string{"A1"},
		},
		{
			name:  "successful acquire",
			codes: []string{" a1", "A2", "a1"},
			setupMock: func() {
				s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(activeShowtime(), nil)
				s.catalog.On("GetSeatsByCodes", mock.Anything, hallID, []string{"A1", "A2"}).
					Return([]domain.Seat{seat("A1", false), seat("A2", false)}, nil)
				s.locks.On("Acquire", mock.Anything, mock.MatchedBy(func(l *domain.SeatLock) bool {
					return l.ShowtimeID == showtimeID &&
						l.HolderID == holder.HolderID &&
						l.Status == domain.LockActive &&
						l.CreatedAt.Equal(now) &&
						l.ExpiresAt.Equal(now.Add(7*time.Minute))
				})).Return(nil)
				s.notifier.On("SeatsChanged", mock.Anything, showtimeID).Once()
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.catalog.AssertExpectations(s.T())
			defer s.locks.AssertExpectations(s.T())
			defer s.notifier.AssertExpectations(s.T())

			if tt.setupMock != nil {
				tt.setupMock()
			}

			lock, err := s.service.Acquire(s.T().Context(), seatlock.AcquireRequest{
				ShowtimeID: showtimeID,
				SeatCodes:  tt.codes,
				Holder:     holder,
				SessionID:  "session",
			})

			if tt.wantErr != nil {
				s.Require().ErrorIs(err, tt.wantErr)
				s.Nil(lock)

				if tt.wantSeats != nil {
					var conflict *domain.ConflictError
					s.Require().True(errors.As(err, &conflict))
					s.Empty(cmp.Diff(tt.wantSeats, conflict.SeatCodes))
				}

				return
			}

			s.Require().NoError(err)
			s.Empty(cmp.Diff([]string{"A1", "A2"}, lock.SeatCodes))
			s.Equal("session", lock.SessionID)
			s.True(lock.IsActiveAt(now.Add(6*time.Minute)))
			s.False(lock.IsActiveAt(now.Add(8*time.Minute)))
		})
	}
}

func (s *SeatLockServiceTestSuite) TestAcquireLogsFailedActivity() {
	s.activity = new(mocks.MockActivityLogger)
	s.service = seatlock.NewService(
		s.locks, s.catalog, s.activity, s.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		seatlock.Config{Now: func() time.Time { return now }},
	)

	s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	s.catalog.On("GetSeatsByCodes", mock.Anything, hallID, []string{"A1"}).
		Return([]domain.Seat{seat("A1", false)}, nil)
	s.locks.On("Acquire", mock.Anything, mock.Anything).Return(domain.NewConflictError([]string{"A1"}))
	s.activity.On("Log", mock.Anything, mock.MatchedBy(func(a domain.Activity) bool {
		return a.Type == domain.ActivityLockAcquired && !a.Success && a.ErrorMessage != ""
	})).Once()

	_, err := s.service.Acquire(s.T().Context(), seatlock.AcquireRequest{
		ShowtimeID: showtimeID,
		SeatCodes:  []string{"A1"},
		Holder:     holder,
	})

	s.ErrorIs(err, domain.ErrConflict)
	s.activity.AssertExpectations(s.T())
	s.notifier.AssertNotCalled(s.T(), "SeatsChanged", mock.Anything, mock.Anything)
}

func (s *SeatLockServiceTestSuite) TestRelease() {
	lockID := uuid.New()

	tests := []struct {
		name      string
		setupMock func()
		wantErr   error
	}{
		{
			name: "no active lock owned by holder",
			setupMock: func() {
				s.locks.On("Release", mock.Anything, lockID, holder.HolderID, now).
					Return(nil, &domain.NotFoundError{Entity: "seat lock"})
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name: "successful release",
			setupMock: func() {
				s.locks.On("Release", mock.Anything, lockID, holder.HolderID, now).Return(&domain.SeatLock{
					ID:         lockID,
					ShowtimeID: showtimeID,
					HolderID:   holder.HolderID,
					SeatCodes:  []string{"A1"},
					Status:     domain.LockReleased,
				}, nil)
				s.notifier.On("SeatsChanged", mock.Anything, showtimeID).Once()
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.locks.AssertExpectations(s.T())
			defer s.notifier.AssertExpectations(s.T())

			tt.setupMock()

			lock, err := s.service.Release(s.T().Context(), lockID, holder)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal(domain.LockReleased, lock.Status)
		})
	}
}

func (s *SeatLockServiceTestSuite) TestSweepExpired() {
	other := uuid.New()

	s.locks.On("ExpireStale", mock.Anything, now).Return([]domain.SeatLock{
		{ID: uuid.New(), ShowtimeID: showtimeID, SeatCodes: []string{"A1", "A2"}, Status: domain.LockExpired},
		{ID: uuid.New(), ShowtimeID: showtimeID, SeatCodes: []string{"B4"}, Status: domain.LockExpired},
		{ID: uuid.New(), ShowtimeID: other, SeatCodes: []string{"C1"}, Status: domain.LockExpired},
	}, nil)
	s.notifier.On("SeatsChanged", mock.Anything, showtimeID).Once()
	s.notifier.On("SeatsChanged", mock.Anything, other).Once()

	result, err := s.service.SweepExpired(s.T().Context())
	s.Require().NoError(err)

	s.Len(result.Locks, 3)

	want := map[uuid.UUID][]string{
		showtimeID: {"A1", "A2", "B4"},
		other:      {"C1"},
	}
	s.Empty(cmp.Diff(want, result.Freed))

	s.locks.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *SeatLockServiceTestSuite) TestSweepExpiredNothingToDo() {
	s.locks.On("ExpireStale", mock.Anything, now).Return([]domain.SeatLock{}, nil)

	result, err := s.service.SweepExpired(s.T().Context())
	s.Require().NoError(err)

	s.Empty(result.Locks)
	s.Empty(result.Freed)
	s.notifier.AssertNotCalled(s.T(), "SeatsChanged", mock.Anything, mock.Anything)
}

func (s *SeatLockServiceTestSuite) TestConflictsUsesCurrentTime() {
	codes := []string{"A1", "A3"}

	s.locks.On("FindConflicts", mock.Anything, showtimeID, holder.HolderID, codes, now).Return([]string{"A1"}, nil)

	held, err := s.service.Conflicts(s.T().Context(), showtimeID, holder.HolderID, codes)
	s.Require().NoError(err)
	s.Equal([]string{"A1"}, held)

	s.locks.AssertExpectations(s.T())
}

func (s *SeatLockServiceTestSuite) TestComplete() {
	codes := []string{"A1"}

	s.locks.On("Complete", mock.Anything, showtimeID, holder.HolderID, codes, now).
		Return(nil, errors.New("connection reset"))

	err := s.service.Complete(s.T().Context(), showtimeID, holder.HolderID, codes)
	s.ErrorContains(err, "connection reset")
}
