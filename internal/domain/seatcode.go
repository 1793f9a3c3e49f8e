package domain

import (
	"fmt"
	"strings"
)

// NormalizeSeatCodes trims, upper-cases and de-duplicates codes keeping the
// first occurrence order.
func NormalizeSeatCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))

	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out
}

// ValidateSeatCodes normalizes codes and checks the request size.
func ValidateSeatCodes(codes []string, max int) ([]string, error) {
	normalized := NormalizeSeatCodes(codes)

	if len(normalized) == 0 {
		return nil, &ValidationError{Field: "seatCodes", Message: "must contain at least one seat code"}
	}

	if max > 0 && len(normalized) > max {
		return nil, &ValidationError{Field: "seatCodes", Message: fmt.Sprintf("must contain at most %d seat codes", max)}
	}

	return normalized, nil
}
