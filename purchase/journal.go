package purchase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/stock"
)

// CompensationFailure records a stock restore that did not go through after a
// failed payment. Stock and bank are inconsistent for that transaction until
// an operator reconciles them.
type CompensationFailure struct {
	ID             uuid.UUID
	TransactionID  generic.TransactionID
	CompensationID generic.TransactionID
	Deltas         []stock.Delta
	Cause          string // the payment failure that triggered the compensation
	Err            string // why the compensation failed
	At             time.Time
}

// Journal is an append-only, in-memory list of failed compensations.
type Journal struct {
	mu      sync.RWMutex
	entries []CompensationFailure
	now     func() time.Time
}

func NewJournal() *Journal {
	return &Journal{now: time.Now}
}

// Record appends a failure and returns the stored entry.
func (j *Journal) Record(id generic.TransactionID, deltas []stock.Delta, cause, err error) CompensationFailure {
	entry := CompensationFailure{
		ID:             uuid.New(),
		TransactionID:  id,
		CompensationID: id.Compensation(),
		Deltas:         append([]stock.Delta(nil), deltas...),
		Cause:          cause.Error(),
		Err:            err.Error(),
		At:             j.now(),
	}
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
	return entry
}

// Entries returns a copy of every recorded failure, oldest first.
func (j *Journal) Entries() []CompensationFailure {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]CompensationFailure(nil), j.entries...)
}

// Len returns the number of recorded failures.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
