// Package retry calls a function again with backoff until it succeeds, the
// attempts are used up or the context is done. The shop uses it to wait for
// table locks and to retry unavailable shipping carriers.
package retry
