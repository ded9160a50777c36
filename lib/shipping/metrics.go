package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var quoteDuration = metrics.NewHistogram("dshop_shipping_quote_duration_seconds")

func quoteOutcome(outcome string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_shipping_quotes_total{outcome=%q}`, outcome))
}

type meteredImpl struct {
	inner IEstimator
}

// NewMeteredEstimator records latency and outcome of every call.
func NewMeteredEstimator(inner IEstimator) IEstimator {
	return &meteredImpl{inner: inner}
}

func (m *meteredImpl) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	start := time.Now()
	options, err := m.inner.Estimate(ctx, postalCode, items)
	quoteDuration.UpdateDuration(start)
	quoteOutcome(outcome(options, err)).Inc()
	return options, err
}

func outcome(options []Option, err error) string {
	switch {
	case err == nil && len(options) == 0:
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidPostalCode), errors.Is(err, ErrInvalidItem):
		return "invalid"
	case errors.Is(err, ErrCarrierUnavailable):
		return "unavailable"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
