/*
store.go - Persistence interface for transaction records

PURPOSE:
  Defines where an idempotency Cache keeps its records. The cache owns the
  retry/replay policy; the store only maps a transaction id to the latest
  recorded outcome.

CONTRACT:
  - Get returns the latest record for an id, found=false if none exists.
  - Put replaces the record for rec.TransactionID.
  - Records are never evicted. Growth is unbounded for the lifetime of the
    process; this is accepted for a short-lived machine process.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory map (the only backend; state is not
    meant to survive a restart)

SEE ALSO:
  - idempotency.go: Cache built on RecordStore
*/
package generic

import "context"

// RecordStore keeps the latest outcome per transaction id.
type RecordStore[Res any] interface {
	// Get returns the record for id, if any.
	Get(ctx context.Context, id TransactionID) (Record[Res], bool, error)

	// Put stores rec, replacing any previous record with the same id.
	Put(ctx context.Context, rec Record[Res]) error

	// Len returns the number of records held.
	Len() int
}
