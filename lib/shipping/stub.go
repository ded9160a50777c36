package shipping

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/shopspring/decimal"
)

var log = logger.GetLogger("shipping")

const (
	// DefaultDelay is the simulated carrier latency
	DefaultDelay = 800 * time.Millisecond

	ServicePAC   = "PAC"
	ServiceSEDEX = "SEDEX"
)

var (
	baseFee       = decimal.NewFromInt(15)
	perKg         = decimal.NewFromInt(2)
	expressFactor = decimal.RequireFromString("2.5")
)

// StubOptions configures the stub carrier
type StubOptions struct {
	Delay       time.Duration // Simulated latency (0 = none)
	Unavailable bool          // Every call fails with ErrCarrierUnavailable
	FailFirst   int           // The first n calls fail with ErrCarrierUnavailable
}

// DefaultStubOptions returns the options of the original simulation
func DefaultStubOptions() *StubOptions {
	return &StubOptions{Delay: DefaultDelay}
}

type stubCarrierImpl struct {
	opts  StubOptions
	calls atomic.Int64
}

// NewStubCarrier creates the fixed formula carrier (nil = defaults).
//
// After the delay it returns no options for postal codes shorter than 8
// characters, otherwise PAC at 15 + 2 per kg with 8 days and SEDEX at 2.5
// times the PAC price with 2 days.
func NewStubCarrier(opts *StubOptions) IEstimator {
	if opts == nil {
		opts = DefaultStubOptions()
	}
	return &stubCarrierImpl{opts: *opts}
}

func (s *stubCarrierImpl) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	call := s.calls.Add(1)

	if s.opts.Delay > 0 {
		timer := time.NewTimer(s.opts.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.opts.Unavailable || call <= int64(s.opts.FailFirst) {
		log.Warningf("carrier unavailable (call %d)", call)
		return nil, ErrCarrierUnavailable
	}

	if len(postalCode) < 8 {
		return []Option{}, nil
	}

	base := baseFee.Add(TotalWeight(items).Mul(perKg))
	return []Option{
		{Service: ServicePAC, Price: base, DeadlineDays: 8},
		{Service: ServiceSEDEX, Price: base.Mul(expressFactor), DeadlineDays: 2},
	}, nil
}
