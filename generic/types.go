package generic

import (
	"strconv"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// TransactionID is the caller-supplied identifier used to deduplicate retried
// mutating requests.
type TransactionID int64

// Valid reports whether the id may be supplied by a caller. Only positive ids
// are accepted so that Compensation never collides with a caller id.
func (id TransactionID) Valid() bool { return id > 0 }

// Compensation derives the id used for the compensating action of id.
func (id TransactionID) Compensation() TransactionID { return -id }

func (id TransactionID) String() string { return strconv.FormatInt(int64(id), 10) }

// =============================================================================
// TRANSACTION RECORD - Memoised outcome of one mutating call
// =============================================================================

// Record is the outcome of the last execution of a transaction.
// A successful record is permanent; a failed one is replaced by the next retry.
type Record[Res any] struct {
	TransactionID TransactionID
	Result        Res
	Err           error
	Attempts      int
	RecordedAt    time.Time
}

// Succeeded reports whether the recorded outcome is a success.
func (r Record[Res]) Succeeded() bool { return r.Err == nil }
