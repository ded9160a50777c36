package shipping

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ValentinKolb/dShop/lib/retry"
)

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

var postalCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

type validatingImpl struct {
	inner IEstimator
}

// NewValidatingEstimator rejects malformed input before calling inner.
// Postal codes must be 8 digits ("01310100" or "01310-100") and are passed
// on without the hyphen.
func NewValidatingEstimator(inner IEstimator) IEstimator {
	return &validatingImpl{inner: inner}
}

func (v *validatingImpl) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	code := strings.TrimSpace(postalCode)
	if !postalCodePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostalCode, postalCode)
	}
	for i, item := range items {
		if item.Weight < 0 || item.Quantity < 0 {
			return nil, fmt.Errorf("%w: item %d has weight %v and quantity %d", ErrInvalidItem, i, item.Weight, item.Quantity)
		}
	}
	return v.inner.Estimate(ctx, strings.ReplaceAll(code, "-", ""), items)
}

// --------------------------------------------------------------------------
// Retry
// --------------------------------------------------------------------------

type retryingImpl struct {
	inner IEstimator
	cfg   retry.Config
}

// NewRetryingEstimator retries calls failing with ErrCarrierUnavailable.
// Other errors are returned at once.
func NewRetryingEstimator(inner IEstimator, cfg retry.Config) IEstimator {
	cfg.ShouldRetry = func(err error) bool {
		return errors.Is(err, ErrCarrierUnavailable)
	}
	return &retryingImpl{inner: inner, cfg: cfg}
}

func (r *retryingImpl) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	return retry.DoWithResult(ctx, r.cfg, func() ([]Option, error) {
		return r.inner.Estimate(ctx, postalCode, items)
	})
}

// --------------------------------------------------------------------------
// Latest request wins
// --------------------------------------------------------------------------

type latestImpl struct {
	inner IEstimator

	mu      sync.Mutex
	gen     uint64
	current context.CancelCauseFunc
}

// NewLatestEstimator cancels the in-flight call when a newer one starts.
// The older call returns an error matching both context.Canceled and
// ErrSuperseded.
func NewLatestEstimator(inner IEstimator) IEstimator {
	return &latestImpl{inner: inner}
}

func (l *latestImpl) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	l.mu.Lock()
	if l.current != nil {
		l.current(ErrSuperseded)
	}
	l.gen++
	gen := l.gen
	l.current = cancel
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if l.gen == gen {
			l.current = nil
		}
		l.mu.Unlock()
		cancel(nil)
	}()

	options, err := l.inner.Estimate(ctx, postalCode, items)
	if err != nil && errors.Is(context.Cause(ctx), ErrSuperseded) {
		return nil, fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	return options, err
}
