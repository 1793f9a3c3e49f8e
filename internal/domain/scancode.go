package domain

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const scanDigestLength = 6

// ScanCode builds the printable ticket code for a seat of a showtime:
// cinema(2) + movie(4) + seat code + hall suffix(1) + YYYYMMDDHHMM + digest(6).
// The same showtime and seat always produce the same code.
func ScanCode(details ShowtimeDetails, seatID uuid.UUID, seatCode string) string {
	var b strings.Builder

	b.WriteString(shortCode(details.Cinema.Name, 2))
	b.WriteString(shortCode(details.Movie.Title, 4))
	b.WriteString(strings.ToUpper(seatCode))
	b.WriteString(hallSuffix(details.Hall.Name))
	b.WriteString(details.Showtime.StartsAt.UTC().Format("200601021504"))
	b.WriteString(scanDigest(details.Showtime.ID, seatID))

	return b.String()
}

func scanDigest(showtimeID, seatID uuid.UUID) string {
	h := xxhash.New()
	_, _ = h.Write(showtimeID[:])
	_, _ = h.Write(seatID[:])

	digest := strings.ToUpper(strconv.FormatUint(h.Sum64(), 36))
	if len(digest) < scanDigestLength {
		digest = strings.Repeat("0", scanDigestLength-len(digest)) + digest
	}

	return digest[:scanDigestLength]
}

func shortCode(s string, n int) string {
	var b strings.Builder

	for _, r := range strings.ToUpper(s) {
		if b.Len() == n {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}

	for b.Len() < n {
		b.WriteByte('X')
	}

	return b.String()
}

func hallSuffix(name string) string {
	runes := []rune(strings.ToUpper(name))
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return string(r)
		}
	}

	return "0"
}
