// Package shipping quotes shipping options for a postal code and a set of
// weighted items.
//
// IEstimator is the strategy interface. Implementations and wrappers:
//
//   - NewStubCarrier: the fixed formula carrier (PAC and SEDEX) with a
//     simulated, cancellable delay. Short postal codes yield no options.
//   - NewValidatingEstimator: rejects malformed postal codes and items with
//     ErrInvalidPostalCode and ErrInvalidItem.
//   - NewRetryingEstimator: retries ErrCarrierUnavailable with backoff.
//   - NewLatestEstimator: a newer call cancels the in-flight one.
//   - NewMeteredEstimator: records latency and outcome metrics.
//
// New composes the chain the CLI uses.
package shipping
