package shipping

import (
	"time"

	"github.com/ValentinKolb/dShop/lib/retry"
)

// Config describes the estimator chain used by the application
type Config struct {
	Delay   time.Duration // Stub carrier latency
	Strict  bool          // Reject malformed postal codes instead of returning no options
	Retries int           // Extra attempts when the carrier is unavailable
	Carrier IEstimator    // Carrier to use (nil = stub carrier with Delay)
}

// New builds metered -> latest -> validating (if Strict) -> retrying (if
// Retries > 0) -> carrier.
func New(cfg Config) IEstimator {
	est := cfg.Carrier
	if est == nil {
		est = NewStubCarrier(&StubOptions{Delay: cfg.Delay})
	}
	if cfg.Retries > 0 {
		est = NewRetryingEstimator(est, retry.Config{
			MaxAttempts: cfg.Retries + 1,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
			MaxDelay:    time.Second,
		})
	}
	if cfg.Strict {
		est = NewValidatingEstimator(est)
	}
	return NewMeteredEstimator(NewLatestEstimator(est))
}
