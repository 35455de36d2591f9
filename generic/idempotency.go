/*
idempotency.go - Idempotency cache for mutating operations

PURPOSE:
  Makes any single mutating operation safe to retry under at-least-once
  delivery. The cache is keyed by caller-supplied transaction id and
  memoises the outcome of the wrapped operation.

CONTRACT:
  1. First call for an id: execute, record the outcome (success OR failure),
     return it.
  2. Later call, recorded success: return the cached result. The operation
     is NOT invoked again, whatever the request carries.
  3. Later call, recorded failure: execute again and overwrite the record.
  4. No eviction.

CONCURRENCY:
  Apply is a check-then-act sequence and is NOT safe for concurrent use on
  the same Cache. Exactly one writer at a time: the owning service runs
  every Apply on its Lane.

EXAMPLE:
  deposits := generic.NewCache("bank", store.NewMemory[bank.Bank](), s.deposit)
  change, err := deposits.Apply(ctx, 42, req)   // executes
  change, err = deposits.Apply(ctx, 42, req)    // replayed

SEE ALSO:
  - store.go: RecordStore interface
  - lane.go: single-writer executor
*/
package generic

import (
	"context"
	"fmt"
	"time"
)

// Operation is a mutating call wrapped by a Cache.
type Operation[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// CallOutcome tells how a Cache served a call.
type CallOutcome string

const (
	OutcomeExecuted CallOutcome = "executed"
	OutcomeReplayed CallOutcome = "replayed"
	OutcomeRetried  CallOutcome = "retried"
)

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	observe func(CallOutcome)
	now     func() time.Time
}

// WithObserver registers fn to be told how each call was served.
func WithObserver(fn func(CallOutcome)) CacheOption {
	return func(c *cacheConfig) { c.observe = fn }
}

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) CacheOption {
	return func(c *cacheConfig) { c.now = now }
}

// Cache memoises the outcome of an Operation per transaction id.
type Cache[Req, Res any] struct {
	name    string
	records RecordStore[Res]
	op      Operation[Req, Res]
	cfg     cacheConfig
}

// NewCache wraps op. name is used in error messages only.
func NewCache[Req, Res any](name string, records RecordStore[Res], op Operation[Req, Res], opts ...CacheOption) *Cache[Req, Res] {
	cfg := cacheConfig{
		observe: func(CallOutcome) {},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[Req, Res]{name: name, records: records, op: op, cfg: cfg}
}

// Apply executes or replays the operation for id. Errors returned by the
// operation are passed through unmodified and recorded.
func (c *Cache[Req, Res]) Apply(ctx context.Context, id TransactionID, req Req) (Res, error) {
	var zero Res

	prev, found, err := c.records.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("%s: load record %s: %w", c.name, id, err)
	}

	outcome := OutcomeExecuted
	if found {
		if prev.Succeeded() {
			c.cfg.observe(OutcomeReplayed)
			return prev.Result, nil
		}
		outcome = OutcomeRetried
	}

	res, opErr := c.op(ctx, req)

	rec := Record[Res]{
		TransactionID: id,
		Result:        res,
		Err:           opErr,
		Attempts:      prev.Attempts + 1,
		RecordedAt:    c.cfg.now(),
	}
	if err := c.records.Put(ctx, rec); err != nil {
		// The side effect may have happened; without a record the next
		// delivery re-executes.
		return zero, fmt.Errorf("%s: store record %s: %w", c.name, id, err)
	}

	c.cfg.observe(outcome)
	return res, opErr
}

// Lookup returns the recorded outcome for id without executing anything.
func (c *Cache[Req, Res]) Lookup(ctx context.Context, id TransactionID) (Record[Res], bool, error) {
	return c.records.Get(ctx, id)
}

// Len returns the number of transactions recorded.
func (c *Cache[Req, Res]) Len() int {
	return c.records.Len()
}
