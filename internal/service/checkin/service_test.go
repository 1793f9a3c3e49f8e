package checkin_test

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
	"github.com/metinatakli/cinema-ticketing/internal/service/checkin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	now        = time.Date(2025, 3, 15, 19, 10, 0, 0, time.UTC)
	showtimeID = uuid.MustParse("5f0c6a0e-3f5c-4d7a-9d0b-1c2e3f4a5b6c")
	bookingID  = uuid.MustParse("b0000000-0000-4000-8000-000000000001")
	customerID = uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")
	operator   = domain.Identity{HolderID: uuid.MustParse("cccccccc-dddd-4eee-8fff-000000000000"), Role: domain.RoleStaff}
	ticketA1   = uuid.MustParse("a1a1a1a1-0000-4000-8000-000000000001")
	ticketA2   = uuid.MustParse("a2a2a2a2-0000-4000-8000-000000000002")
)

type CheckinServiceTestSuite struct {
	suite.Suite
	service  *checkin.Service
	tickets  *mocks.MockTicketRepo
	bookings *mocks.MockBookingRepo
	catalog  *mocks.MockCatalogRepo
	activity *mocks.MockActivityLogger
}

func (s *CheckinServiceTestSuite) SetupTest() {
	s.tickets = new(mocks.MockTicketRepo)
	s.bookings = new(mocks.MockBookingRepo)
	s.catalog = new(mocks.MockCatalogRepo)
	s.activity = new(mocks.MockActivityLogger)

	s.activity.On("Log", mock.Anything, mock.Anything).Maybe()

	s.service = checkin.NewService(
		s.tickets,
		s.bookings,
		s.catalog,
		s.activity,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		func() time.Time { return now },
	)
}

func TestCheckinServiceSuite(t *testing.T) {
	suite.Run(t, new(CheckinServiceTestSuite))
}

func ticket(id uuid.UUID, code string, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{
		ID:         id,
		BookingID:  bookingID,
		ShowtimeID: showtimeID,
		SeatID:     uuid.New(),
		SeatCode:   code,
		ScanCode:   "GADUNE" + code + "3202503151930ABC123",
		Status:     status,
	}
}

func checkedIn(t domain.Ticket) *domain.Ticket {
	at := now
	t.Status = domain.TicketCheckedIn
	t.CheckedInAt = &at
	t.CheckedInBy = &operator.HolderID
	return &t
}

func (s *CheckinServiceTestSuite) TestValidate() {
	a1 := ticket(ticketA1, "A1", domain.TicketValid)
	a2 := ticket(ticketA2, "A2", domain.TicketCheckedIn)
	booking := &domain.Booking{ID: bookingID, CustomerID: customerID, ShowtimeID: showtimeID, Status: domain.BookingPaid}
	details := &domain.ShowtimeDetails{Showtime: domain.Showtime{ID: showtimeID}, Movie: domain.Movie{Title: "Dune"}}
	customer := &domain.Customer{ID: customerID, Name: "Linh", Email: "linh@example.com"}

	tests := []struct {
		name      string
		scanCode  string
		setupMock func()
		wantErr   error
		want      *domain.BookingContext
	}{
		{
			name:     "empty scan code",
			scanCode: "   ",
			wantErr:  domain.ErrValidation,
		},
		{
			name:     "unknown scan code",
			scanCode: "nope",
			setupMock: func() {
				s.tickets.On("GetByScanCode", mock.Anything, "NOPE").Return(nil, &domain.NotFoundError{Entity: "ticket"})
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:     "full booking context",
			scanCode: " " + a1.ScanCode + " ",
			setupMock: func() {
				s.tickets.On("GetByScanCode", mock.Anything, a1.ScanCode).Return(&a1, nil)
				s.bookings.On("GetById", mock.Anything, bookingID).Return(booking, nil)
				s.tickets.On("ListByBooking", mock.Anything, bookingID).Return([]domain.Ticket{a1, a2}, nil)
				s.catalog.On("GetShowtimeDetails", mock.Anything, showtimeID).Return(details, nil)
				s.catalog.On("GetCustomer", mock.Anything, customerID).Return(customer, nil)
			},
			want: &domain.BookingContext{
				Ticket:   a1,
				Booking:  *booking,
				Tickets:  []domain.Ticket{a1, a2},
				Showtime: *details,
				Customer: customer,
			},
		},
		{
			name:     "missing customer profile",
			scanCode: a1.ScanCode,
			setupMock: func() {
				s.tickets.On("GetByScanCode", mock.Anything, a1.ScanCode).Return(&a1, nil)
				s.bookings.On("GetById", mock.Anything, bookingID).Return(booking, nil)
				s.tickets.On("ListByBooking", mock.Anything, bookingID).Return([]domain.Ticket{a1, a2}, nil)
				s.catalog.On("GetShowtimeDetails", mock.Anything, showtimeID).Return(details, nil)
				s.catalog.On("GetCustomer", mock.Anything, customerID).Return(nil, &domain.NotFoundError{Entity: "customer"})
			},
			want: &domain.BookingContext{
				Ticket:   a1,
				Booking:  *booking,
				Tickets:  []domain.Ticket{a1, a2},
				Showtime: *details,
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.tickets.AssertExpectations(s.T())
			defer s.catalog.AssertExpectations(s.T())

			if tt.setupMock != nil {
				tt.setupMock()
			}

			got, err := s.service.Validate(s.T().Context(), tt.scanCode)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				return
			}

			s.Require().NoError(err)

			diff := cmp.Diff(tt.want, got)
			s.Empty(diff, "context mismatch (-want +got):\n%s", diff)
		})
	}
}

func (s *CheckinServiceTestSuite) TestCheckinTickets() {
	a1 := ticket(ticketA1, "A1", domain.TicketValid)
	missing := uuid.MustParse("deadbeef-0000-4000-8000-000000000000")
	cancelled := uuid.MustParse("cafecafe-0000-4000-8000-000000000000")

	s.tickets.On("CheckIn", mock.Anything, ticketA1, operator.HolderID, now).Return(checkedIn(a1), nil).Once()
	s.tickets.On("CheckIn", mock.Anything, ticketA2, operator.HolderID, now).
		Return(nil, &domain.StateError{Entity: "ticket", Status: "checked_in", Reason: "already checked in"})
	s.tickets.On("CheckIn", mock.Anything, missing, operator.HolderID, now).
		Return(nil, &domain.NotFoundError{Entity: "ticket"})
	s.tickets.On("CheckIn", mock.Anything, cancelled, operator.HolderID, now).
		Return(nil, &domain.StateError{Entity: "ticket", Status: "cancelled", Reason: "cancelled"})

	result, err := s.service.Checkin(s.T().Context(), checkin.Request{
		TicketIDs: []uuid.UUID{ticketA1, ticketA2, missing, cancelled, ticketA1},
		Operator:  operator,
	})
	s.Require().NoError(err)

	s.Require().Len(result.CheckedIn, 1)
	s.Equal(ticketA1, result.CheckedIn[0].ID)
	s.Equal(now, *result.CheckedIn[0].CheckedInAt)

	want := []domain.CheckinFailure{
		{TicketID: ticketA2, Reason: domain.CheckinAlreadyCheckedIn},
		{TicketID: missing, Reason: domain.CheckinNotFound},
		{TicketID: cancelled, Reason: domain.CheckinCancelled},
	}
	s.Empty(cmp.Diff(want, result.Failed))

	s.tickets.AssertExpectations(s.T())
}

func (s *CheckinServiceTestSuite) TestCheckinTwiceReportsAlreadyCheckedIn() {
	a1 := ticket(ticketA1, "A1", domain.TicketValid)

	s.tickets.On("CheckIn", mock.Anything, ticketA1, operator.HolderID, now).Return(checkedIn(a1), nil).Once()
	s.tickets.On("CheckIn", mock.Anything, ticketA1, operator.HolderID, now).
		Return(checkedIn(a1), &domain.StateError{Entity: "ticket", Status: "checked_in", Reason: "already checked in"}).Once()

	req := checkin.Request{TicketIDs: []uuid.UUID{ticketA1}, Operator: operator}

	first, err := s.service.Checkin(s.T().Context(), req)
	s.Require().NoError(err)
	s.Len(first.CheckedIn, 1)

	second, err := s.service.Checkin(s.T().Context(), req)
	s.Require().NoError(err)
	s.Empty(second.CheckedIn)
	s.Equal([]domain.CheckinFailure{{TicketID: ticketA1, Reason: domain.CheckinAlreadyCheckedIn}}, second.Failed)
}

func (s *CheckinServiceTestSuite) TestCheckinByBooking() {
	tests := []struct {
		name      string
		setupMock func()
		wantErr   error
		wantIDs   []uuid.UUID
	}{
		{
			name: "unknown booking",
			setupMock: func() {
				s.bookings.On("GetById", mock.Anything, bookingID).Return(nil, &domain.NotFoundError{Entity: "booking"})
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name: "no valid tickets left",
			setupMock: func() {
				s.bookings.On("GetById", mock.Anything, bookingID).
					Return(&domain.Booking{ID: bookingID, Status: domain.BookingPaid}, nil)
				s.tickets.On("ListByBooking", mock.Anything, bookingID).Return([]domain.Ticket{
					ticket(ticketA1, "A1", domain.TicketCheckedIn),
					ticket(ticketA2, "A2", domain.TicketCancelled),
				}, nil)
			},
			wantErr: domain.ErrInvalidState,
		},
		{
			name: "only valid tickets are targeted",
			setupMock: func() {
				a2 := ticket(ticketA2, "A2", domain.TicketValid)

				s.bookings.On("GetById", mock.Anything, bookingID).
					Return(&domain.Booking{ID: bookingID, Status: domain.BookingPaid}, nil)
				s.tickets.On("ListByBooking", mock.Anything, bookingID).Return([]domain.Ticket{
					ticket(ticketA1, "A1", domain.TicketCheckedIn),
					a2,
				}, nil)
				s.tickets.On("CheckIn", mock.Anything, ticketA2, operator.HolderID, now).Return(checkedIn(a2), nil)
			},
			wantIDs: []uuid.UUID{ticketA2},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.bookings.AssertExpectations(s.T())
			defer s.tickets.AssertExpectations(s.T())

			tt.setupMock()

			id := bookingID
			result, err := s.service.Checkin(s.T().Context(), checkin.Request{BookingID: &id, Operator: operator})

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Empty(result.Failed)

			ids := make([]uuid.UUID, len(result.CheckedIn))
			for i, t := range result.CheckedIn {
				ids[i] = t.ID
			}
			s.Equal(tt.wantIDs, ids)
		})
	}
}

func (s *CheckinServiceTestSuite) TestCheckinTarget() {
	id := bookingID

	_, err := s.service.Checkin(s.T().Context(), checkin.Request{Operator: operator})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.service.Checkin(s.T().Context(), checkin.Request{
		TicketIDs: []uuid.UUID{ticketA1},
		BookingID: &id,
		Operator:  operator,
	})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *CheckinServiceTestSuite) TestCheckinStopsOnStoreFailure() {
	s.tickets.On("CheckIn", mock.Anything, ticketA1, operator.HolderID, now).Return(nil, errors.New("connection refused"))

	result, err := s.service.Checkin(s.T().Context(), checkin.Request{
		TicketIDs: []uuid.UUID{ticketA1, ticketA2},
		Operator:  operator,
	})

	s.ErrorContains(err, "connection refused")
	s.Nil(result)
	s.tickets.AssertNumberOfCalls(s.T(), "CheckIn", 1)
}
