package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the externally asserted fact that a booking was paid for. The
// core records it and does not verify it against a gateway.
type Payment struct {
	Reference string
	Method    string
	Amount    decimal.Decimal
	PaidAt    time.Time
}
