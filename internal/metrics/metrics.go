package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scope = "github.com/metinatakli/cinema-ticketing"

// Counter returns an Int64Counter from the global meter provider. Until the
// provider is configured the counter records nothing.
func Counter(name, description string) metric.Int64Counter {
	counter, err := otel.Meter(scope).Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}

	return counter
}
