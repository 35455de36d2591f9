// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/vending-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory record map
// =============================================================================

// Memory is a map-backed generic.RecordStore. The mutex only protects the map
// itself; the retry/replay decision made by generic.Cache still requires a
// single writer.
type Memory[Res any] struct {
	mu      sync.RWMutex
	records map[generic.TransactionID]generic.Record[Res]
}

func NewMemory[Res any]() *Memory[Res] {
	return &Memory[Res]{
		records: make(map[generic.TransactionID]generic.Record[Res]),
	}
}

func (m *Memory[Res]) Get(_ context.Context, id generic.TransactionID) (generic.Record[Res], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok, nil
}

func (m *Memory[Res]) Put(_ context.Context, rec generic.Record[Res]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.TransactionID] = rec
	return nil
}

func (m *Memory[Res]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Compile-time check that Memory implements generic.RecordStore
var _ generic.RecordStore[struct{}] = (*Memory[struct{}])(nil)
