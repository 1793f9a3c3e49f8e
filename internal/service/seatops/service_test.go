package seatops_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/mocks"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	now      = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	hallID   = uuid.MustParse("0b7d1f5e-8a44-4d6c-a0f1-2b3c4d5e6f70")
	seatID   = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	reporter = domain.Identity{HolderID: uuid.MustParse("cccccccc-dddd-4eee-8fff-000000000000"), Role: domain.RoleStaff}
)

type SeatOpsServiceTestSuite struct {
	suite.Suite
	service   *seatops.Service
	catalog   *mocks.MockCatalogRepo
	bookings  *mocks.MockBookingRepo
	locks     *mocks.MockSeatLockRepo
	canceller *mocks.MockBookingCanceller
	activity  *mocks.MockActivityLogger
	notifier  *mocks.MockSeatChangeNotifier
}

func (s *SeatOpsServiceTestSuite) SetupTest() {
	s.catalog = new(mocks.MockCatalogRepo)
	s.bookings = new(mocks.MockBookingRepo)
	s.locks = new(mocks.MockSeatLockRepo)
	s.canceller = new(mocks.MockBookingCanceller)
	s.activity = new(mocks.MockActivityLogger)
	s.notifier = new(mocks.MockSeatChangeNotifier)

	s.activity.On("Log", mock.Anything, mock.Anything).Maybe()

	s.service = seatops.NewService(
		s.catalog,
		s.bookings,
		s.locks,
		s.canceller,
		s.activity,
		s.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		func() time.Time { return now },
	)
}

func TestSeatOpsServiceSuite(t *testing.T) {
	suite.Run(t, new(SeatOpsServiceTestSuite))
}

func (s *SeatOpsServiceTestSuite) TestReportBrokenCascades() {
	upcoming := []domain.Showtime{
		{ID: uuid.New(), HallID: hallID, StartsAt: now.Add(2 * time.Hour), Status: domain.ShowtimeActive},
		{ID: uuid.New(), HallID: hallID, StartsAt: now.Add(26 * time.Hour), Status: domain.ShowtimeActive},
	}
	ids := []uuid.UUID{upcoming[0].ID, upcoming[1].ID}

	paid := domain.Booking{ID: uuid.New(), ShowtimeID: upcoming[0].ID, Status: domain.BookingPaid}
	pending := domain.Booking{ID: uuid.New(), ShowtimeID: upcoming[1].ID, Status: domain.BookingPending}
	racing := domain.Booking{ID: uuid.New(), ShowtimeID: upcoming[1].ID, Status: domain.BookingPending}

	cancelled := func(b domain.Booking) *domain.Booking {
		reason := domain.CancelReasonSeatBroken
		b.Status = domain.BookingCancelled
		b.CancelReason = &reason
		return &b
	}

	s.catalog.On("GetSeatByCode", mock.Anything, hallID, "A1").
		Return(&domain.Seat{ID: seatID, HallID: hallID, Code: "A1", Type: domain.SeatTypeNormal}, nil)
	s.catalog.On("SetSeatBroken", mock.Anything, seatID, true).Return(nil)
	s.catalog.On("GetUpcomingShowtimesByHall", mock.Anything, hallID, now).Return(upcoming, nil)
	s.bookings.On("ListActiveBySeat", mock.Anything, ids, seatID).Return([]domain.Booking{paid, pending, racing}, nil)
	s.canceller.On("CancelForSeatRemediation", mock.Anything, paid.ID, reporter).Return(cancelled(paid), nil)
	s.canceller.On("CancelForSeatRemediation", mock.Anything, pending.ID, reporter).Return(cancelled(pending), nil)
	s.canceller.On("CancelForSeatRemediation", mock.Anything, racing.ID, reporter).
		Return(nil, &domain.StateError{Entity: "booking", Status: "cancelled"})
	s.notifier.On("SeatsChanged", mock.Anything, ids[0]).Once()
	s.notifier.On("SeatsChanged", mock.Anything, ids[1]).Once()

	remediation, err := s.service.ReportBroken(s.T().Context(), seatops.ReportRequest{
		HallID:   hallID,
		SeatCode: " a1 ",
		Reporter: reporter,
		Note:     "torn cushion",
	})
	s.Require().NoError(err)

	s.True(remediation.Seat.Broken)
	s.Require().Len(remediation.Cancelled, 2)
	s.Equal(paid.ID, remediation.Cancelled[0].ID)
	s.Equal(pending.ID, remediation.Cancelled[1].ID)
	s.Require().Len(remediation.Failed, 1)
	s.Equal(racing.ID, remediation.Failed[0].BookingID)

	s.catalog.AssertExpectations(s.T())
	s.bookings.AssertExpectations(s.T())
	s.canceller.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *SeatOpsServiceTestSuite) TestReportBrokenWithoutUpcomingShowtimes() {
	s.catalog.On("GetSeatByCode", mock.Anything, hallID, "A1").
		Return(&domain.Seat{ID: seatID, HallID: hallID, Code: "A1", Broken: true}, nil)
	s.catalog.On("GetUpcomingShowtimesByHall", mock.Anything, hallID, now).Return([]domain.Showtime{}, nil)

	remediation, err := s.service.ReportBroken(s.T().Context(), seatops.ReportRequest{
		HallID:   hallID,
		SeatCode: "A1",
		Reporter: reporter,
	})
	s.Require().NoError(err)

	s.Empty(remediation.Cancelled)
	s.catalog.AssertNotCalled(s.T(), "SetSeatBroken", mock.Anything, mock.Anything, mock.Anything)
	s.bookings.AssertNotCalled(s.T(), "ListActiveBySeat", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SeatOpsServiceTestSuite) TestReportBrokenErrors() {
	tests := []struct {
		name      string
		seatCode  string
		setupMock func()
		wantErr   error
	}{
		{
			name:     "missing seat code",
			seatCode: "",
			wantErr:  domain.ErrValidation,
		},
		{
			name:     "unknown seat",
			seatCode: "Z9",
			setupMock: func() {
				s.catalog.On("GetSeatByCode", mock.Anything, hallID, "Z9").Return(nil, &domain.NotFoundError{Entity: "seat"})
			},
			wantErr: domain.ErrRecordNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMock != nil {
				tt.setupMock()
			}

			_, err := s.service.ReportBroken(s.T().Context(), seatops.ReportRequest{
				HallID:   hallID,
				SeatCode: tt.seatCode,
				Reporter: reporter,
			})
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *SeatOpsServiceTestSuite) TestRestore() {
	showtime := domain.Showtime{ID: uuid.New(), HallID: hallID}

	s.catalog.On("GetSeatByCode", mock.Anything, hallID, "A1").
		Return(&domain.Seat{ID: seatID, HallID: hallID, Code: "A1", Broken: true}, nil)
	s.catalog.On("SetSeatBroken", mock.Anything, seatID, false).Return(nil)
	s.catalog.On("GetUpcomingShowtimesByHall", mock.Anything, hallID, now).Return([]domain.Showtime{showtime}, nil)
	s.notifier.On("SeatsChanged", mock.Anything, showtime.ID).Once()

	seat, err := s.service.Restore(s.T().Context(), hallID, "a1", reporter)
	s.Require().NoError(err)
	s.False(seat.Broken)

	s.catalog.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *SeatOpsServiceTestSuite) TestSeatMap() {
	showtimeID := uuid.New()
	seats := []domain.Seat{
		{ID: uuid.New(), Code: "A1", Type: domain.SeatTypeNormal},
		{ID: uuid.New(), Code: "A2", Type: domain.SeatTypeVIP},
		{ID: uuid.New(), Code: "A3", Type: domain.SeatTypeNormal},
		{ID: uuid.New(), Code: "A4", Type: domain.SeatTypeNormal, Broken: true},
		{ID: uuid.New(), Code: "A5", Type: domain.SeatTypeNormal},
	}

	s.catalog.On("GetShowtime", mock.Anything, showtimeID).
		Return(&domain.Showtime{ID: showtimeID, HallID: hallID, Status: domain.ShowtimeActive}, nil)
	s.catalog.On("GetSeatsByHall", mock.Anything, hallID).Return(seats, nil)
	s.locks.On("ListActiveByShowtime", mock.Anything, showtimeID, now).Return([]domain.SeatLock{
		{SeatCodes: []string{"A2", "A1"}, Status: domain.LockActive, ExpiresAt: now.Add(time.Minute)},
		{SeatCodes: []string{"A5"}, Status: domain.LockActive, ExpiresAt: now},
	}, nil)
	s.bookings.On("ListByShowtime", mock.Anything, showtimeID).Return([]domain.Booking{
		{Status: domain.BookingPaid, Seats: []domain.BookingSeat{{SeatID: seats[0].ID, Code: "A1"}}},
		{Status: domain.BookingCancelled, Seats: []domain.BookingSeat{{SeatID: seats[2].ID, Code: "A3"}}},
		{Status: domain.BookingPending, Seats: []domain.BookingSeat{{SeatID: seats[3].ID, Code: "A4"}}},
	}, nil)

	seatMap, err := s.service.SeatMap(s.T().Context(), showtimeID)
	s.Require().NoError(err)

	got := make(map[string]domain.SeatState, len(seatMap.Seats))
	for _, e := range seatMap.Seats {
		got[e.Code] = e.State
	}

	want := map[string]domain.SeatState{
		"A1": domain.SeatBooked,
		"A2": domain.SeatLocked,
		"A3": domain.SeatAvailable,
		"A4": domain.SeatBroken,
		"A5": domain.SeatAvailable,
	}
	s.Empty(cmp.Diff(want, got))
	s.Equal(hallID, seatMap.HallID)
}

func (s *SeatOpsServiceTestSuite) TestSeatMapUnknownShowtime() {
	showtimeID := uuid.New()

	s.catalog.On("GetShowtime", mock.Anything, showtimeID).Return(nil, &domain.NotFoundError{Entity: "showtime"})

	_, err := s.service.SeatMap(s.T().Context(), showtimeID)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *SeatOpsServiceTestSuite) TestListBroken() {
	broken := []domain.Seat{{ID: seatID, HallID: hallID, Code: "A1", Type: domain.SeatTypeNormal, Broken: true}}

	s.catalog.On("GetBrokenSeats", mock.Anything, &hallID).Return(broken, nil)

	got, err := s.service.ListBroken(s.T().Context(), &hallID)

	s.Require().NoError(err)
	s.Empty(cmp.Diff(broken, got))
	s.catalog.AssertExpectations(s.T())
}
