package domain

import "github.com/shopspring/decimal"

var VIPSurcharge = decimal.NewFromInt(30000)

func SeatPrice(basePrice decimal.Decimal, seatType SeatType) decimal.Decimal {
	if seatType == SeatTypeVIP {
		return basePrice.Add(VIPSurcharge)
	}

	return basePrice
}

// PriceSeats returns the booking lines for seats, in the given order, and
// their total.
func PriceSeats(basePrice decimal.Decimal, seats []Seat) ([]BookingSeat, decimal.Decimal) {
	lines := make([]BookingSeat, len(seats))
	total := decimal.Zero

	for i, seat := range seats {
		price := SeatPrice(basePrice, seat.Type)

		lines[i] = BookingSeat{
			SeatID: seat.ID,
			Code:   seat.Code,
			Type:   seat.Type,
			Price:  price,
		}
		total = total.Add(price)
	}

	return lines, total
}
