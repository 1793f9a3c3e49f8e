package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ConflictErrorResponse struct {
	ErrorResponse
	Seats []string `json:"seats"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	ErrorResponse
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type AcquireLockRequest struct {
	SeatCodes []string `json:"seatCodes" validate:"required,min=1,dive,seatcode"`
	SessionID string   `json:"sessionId" validate:"max=128"`
}

type CreateBookingRequest struct {
	SeatCodes []string `json:"seatCodes" validate:"required,min=1,dive,seatcode"`
}

type PaymentConfirmationRequest struct {
	BookingID string          `json:"bookingId" validate:"required,uuid"`
	Reference string          `json:"reference" validate:"required,max=128"`
	Method    string          `json:"method" validate:"max=32"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    *time.Time      `json:"paidAt"`
}

type CheckinRequest struct {
	TicketIDs []string `json:"ticketIds" validate:"required_without=BookingID,omitempty,max=50,dive,uuid"`
	BookingID string   `json:"bookingId" validate:"omitempty,uuid"`
}

type SeatReportRequest struct {
	HallID   string `json:"hallId" validate:"required,uuid"`
	SeatCode string `json:"seatCode" validate:"required,seatcode"`
	Note     string `json:"note" validate:"max=500"`
}

type SeatLockResponse struct {
	ID         uuid.UUID         `json:"id"`
	ShowtimeID uuid.UUID         `json:"showtimeId"`
	SeatCodes  []string          `json:"seatCodes"`
	Status     domain.LockStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

func toSeatLockResponse(l domain.SeatLock) SeatLockResponse {
	return SeatLockResponse{
		ID:         l.ID,
		ShowtimeID: l.ShowtimeID,
		SeatCodes:  l.SeatCodes,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		ExpiresAt:  l.ExpiresAt,
	}
}

func toSeatLockResponses(locks []domain.SeatLock) []SeatLockResponse {
	resp := make([]SeatLockResponse, len(locks))
	for i, l := range locks {
		resp[i] = toSeatLockResponse(l)
	}
	return resp
}

type BookingSeatResponse struct {
	Code  string          `json:"code"`
	Type  domain.SeatType `json:"type"`
	Price decimal.Decimal `json:"price"`
}

type PaymentResponse struct {
	Reference string          `json:"reference"`
	Method    string          `json:"method,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
}

type BookingResponse struct {
	ID           uuid.UUID             `json:"id"`
	ShowtimeID   uuid.UUID             `json:"showtimeId"`
	CustomerID   uuid.UUID             `json:"customerId"`
	Seats        []BookingSeatResponse `json:"seats"`
	TotalAmount  decimal.Decimal       `json:"totalAmount"`
	Status       domain.BookingStatus  `json:"status"`
	Payment      *PaymentResponse      `json:"payment,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	CancelledAt  *time.Time            `json:"cancelledAt,omitempty"`
	CancelReason *domain.CancelReason  `json:"cancelReason,omitempty"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	seats := make([]BookingSeatResponse, len(b.Seats))
	for i, s := range b.Seats {
		seats[i] = BookingSeatResponse{Code: s.Code, Type: s.Type, Price: s.Price}
	}

	resp := BookingResponse{
		ID:           b.ID,
		ShowtimeID:   b.ShowtimeID,
		CustomerID:   b.CustomerID,
		Seats:        seats,
		TotalAmount:  b.TotalAmount,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
		CancelledAt:  b.CancelledAt,
		CancelReason: b.CancelReason,
	}

	if b.Payment != nil {
		resp.Payment = &PaymentResponse{
			Reference: b.Payment.Reference,
			Method:    b.Payment.Method,
			Amount:    b.Payment.Amount,
			PaidAt:    b.Payment.PaidAt,
		}
	}

	return resp
}

func toBookingResponses(bookings []domain.Booking) []BookingResponse {
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return resp
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Metadata *domain.Metadata  `json:"metadata"`
}

type TicketResponse struct {
	ID          uuid.UUID           `json:"id"`
	BookingID   uuid.UUID           `json:"bookingId"`
	SeatCode    string              `json:"seatCode"`
	ScanCode    string              `json:"scanCode"`
	Status      domain.TicketStatus `json:"status"`
	IssuedAt    time.Time           `json:"issuedAt"`
	CheckedInAt *time.Time          `json:"checkedInAt,omitempty"`
}

func toTicketResponses(tickets []domain.Ticket) []TicketResponse {
	resp := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = TicketResponse{
			ID:          t.ID,
			BookingID:   t.BookingID,
			SeatCode:    t.SeatCode,
			ScanCode:    t.ScanCode,
			Status:      t.Status,
			IssuedAt:    t.IssuedAt,
			CheckedInAt: t.CheckedInAt,
		}
	}
	return resp
}

type PaidBookingResponse struct {
	Booking BookingResponse  `json:"booking"`
	Tickets []TicketResponse `json:"tickets"`
}

type ShowtimeResponse struct {
	ID         uuid.UUID `json:"id"`
	StartsAt   time.Time `json:"startsAt"`
	MovieTitle string    `json:"movieTitle"`
	HallName   string    `json:"hallName"`
	CinemaName string    `json:"cinemaName"`
}

type CustomerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type BookingContextResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Booking  BookingResponse   `json:"booking"`
	Tickets  []TicketResponse  `json:"tickets"`
	Showtime ShowtimeResponse  `json:"showtime"`
	Customer *CustomerResponse `json:"customer"`
}

func toBookingContextResponse(bc *domain.BookingContext) BookingContextResponse {
	resp := BookingContextResponse{
		Ticket:  toTicketResponses([]domain.Ticket{bc.Ticket})[0],
		Booking: toBookingResponse(bc.Booking),
		Tickets: toTicketResponses(bc.Tickets),
		Showtime: ShowtimeResponse{
			ID:         bc.Showtime.Showtime.ID,
			StartsAt:   bc.Showtime.Showtime.StartsAt,
			MovieTitle: bc.Showtime.Movie.Title,
			HallName:   bc.Showtime.Hall.Name,
			CinemaName: bc.Showtime.Cinema.Name,
		},
	}

	if bc.Customer != nil {
		resp.Customer = &CustomerResponse{
			Name:  bc.Customer.Name,
			Email: bc.Customer.Email,
			Phone: bc.Customer.Phone,
		}
	}

	return resp
}

type CheckinFailureResponse struct {
	TicketID uuid.UUID                   `json:"ticketId"`
	Reason   domain.CheckinFailureReason `json:"reason"`
}

type CheckinResponse struct {
	CheckedIn []TicketResponse         `json:"checkedIn"`
	Failed    []CheckinFailureResponse `json:"failed"`
}

func toCheckinResponse(res *domain.CheckinResult) CheckinResponse {
	failed := make([]CheckinFailureResponse, len(res.Failed))
	for i, f := range res.Failed {
		failed[i] = CheckinFailureResponse{TicketID: f.TicketID, Reason: f.Reason}
	}

	return CheckinResponse{
		CheckedIn: toTicketResponses(res.CheckedIn),
		Failed:    failed,
	}
}

type SeatResponse struct {
	ID     uuid.UUID       `json:"id"`
	HallID uuid.UUID       `json:"hallId"`
	Code   string          `json:"code"`
	Type   domain.SeatType `json:"type"`
	Broken bool            `json:"broken"`
}

func toSeatResponse(s domain.Seat) SeatResponse {
	return SeatResponse{ID: s.ID, HallID: s.HallID, Code: s.Code, Type: s.Type, Broken: s.Broken}
}

type RemediationFailureResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
	Error     string    `json:"error"`
}

type RemediationResponse struct {
	Seat              SeatResponse                 `json:"seat"`
	CancelledBookings []uuid.UUID                  `json:"cancelledBookings"`
	Failed            []RemediationFailureResponse `json:"failed"`
}

func toRemediationResponse(rem *seatops.Remediation) RemediationResponse {
	cancelled := make([]uuid.UUID, len(rem.Cancelled))
	for i, b := range rem.Cancelled {
		cancelled[i] = b.ID
	}

	failed := make([]RemediationFailureResponse, len(rem.Failed))
	for i, f := range rem.Failed {
		failed[i] = RemediationFailureResponse{BookingID: f.BookingID, Error: f.Error}
	}

	return RemediationResponse{
		Seat:              toSeatResponse(rem.Seat),
		CancelledBookings: cancelled,
		Failed:            failed,
	}
}

type SweepResponse struct {
	ExpiredLocks      int                 `json:"expiredLocks"`
	FreedSeats        map[string][]string `json:"freedSeats"`
	CancelledBookings []uuid.UUID         `json:"cancelledBookings"`
}
