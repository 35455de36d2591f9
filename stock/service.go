package stock

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/metrics"
)

// Service owns the machine's current stock. Delta batches run one at a time
// on the service lane, behind an idempotency cache keyed by transaction id.
type Service struct {
	lane   *generic.Lane
	deltas *generic.Cache[[]Delta, struct{}]
	log    *zap.Logger

	mu      sync.RWMutex
	current Stock
}

// NewService creates a stock service starting from initial. The service
// takes ownership of lane and closes it on Close.
func NewService(initial Stock, records generic.RecordStore[struct{}], lane *generic.Lane, log *zap.Logger) *Service {
	s := &Service{
		lane:    lane,
		log:     log.Named("stock"),
		current: initial,
	}
	s.deltas = generic.NewCache("stock deltas", records, s.apply,
		generic.WithObserver(func(o generic.CallOutcome) {
			metrics.IdempotentCalls.WithLabelValues("stock", string(o)).Inc()
		}))
	return s
}

// ApplyDeltas applies a batch of signed deltas under transaction id. The batch
// is all-or-nothing. Repeating a successful id is a no-op.
func (s *Service) ApplyDeltas(ctx context.Context, id generic.TransactionID, deltas []Delta) error {
	metrics.LaneJobs.WithLabelValues(s.lane.Name()).Inc()
	_, err := generic.Submit(ctx, s.lane, func() (struct{}, error) {
		return s.deltas.Apply(ctx, id, deltas)
	})
	return err
}

// apply runs on the lane.
func (s *Service) apply(_ context.Context, deltas []Delta) (struct{}, error) {
	next, err := s.Current().IncLevels(deltas)
	if err != nil {
		s.log.Info("deltas rejected", zap.Int("deltas", len(deltas)), zap.Error(err))
		return struct{}{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.log.Debug("deltas applied", zap.Int("deltas", len(deltas)), zap.Int("units", next.Total()))
	return struct{}{}, nil
}

// Current returns the current stock.
func (s *Service) Current() Stock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Level returns the current quantity of item.
func (s *Service) Level(item Item) int {
	return s.Current().Level(item)
}

// Levels returns a copy of the current levels.
func (s *Service) Levels() map[Item]int {
	return s.Current().Levels()
}

// Recorded returns the number of delta transactions remembered.
func (s *Service) Recorded() int {
	return s.deltas.Len()
}

// Close stops accepting deltas and waits for queued ones.
func (s *Service) Close() {
	s.lane.Close()
}
