package bank

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/metrics"
)

// =============================================================================
// SERVICE - Owner of the current bank
// =============================================================================

// Service owns the machine's current bank. Deposits run one at a time on the
// service lane, behind an idempotency cache keyed by transaction id. Reads
// may run concurrently and see the most recently completed deposit.
type Service struct {
	lane     *generic.Lane
	deposits *generic.Cache[depositRequest, Bank]
	log      *zap.Logger

	mu      sync.RWMutex
	current Bank
}

type depositRequest struct {
	Payment Bank
	Target  int
}

// NewService creates a bank service starting from initial. The service takes
// ownership of lane and closes it on Close.
func NewService(initial Bank, records generic.RecordStore[Bank], lane *generic.Lane, log *zap.Logger) *Service {
	s := &Service{
		lane:    lane,
		log:     log.Named("bank"),
		current: initial,
	}
	s.deposits = generic.NewCache("bank deposit", records, s.deposit,
		generic.WithObserver(func(o generic.CallOutcome) {
			metrics.IdempotentCalls.WithLabelValues("bank", string(o)).Inc()
		}))
	metrics.BankBalance.Set(float64(initial.Total()))
	return s
}

// Deposit accepts payment against target under transaction id and returns
// the change. Repeating a successful id returns the same change without
// touching the bank again.
func (s *Service) Deposit(ctx context.Context, id generic.TransactionID, payment Bank, target int) (Bank, error) {
	metrics.LaneJobs.WithLabelValues(s.lane.Name()).Inc()
	return generic.Submit(ctx, s.lane, func() (Bank, error) {
		return s.deposits.Apply(ctx, id, depositRequest{Payment: payment, Target: target})
	})
}

// deposit runs on the lane.
func (s *Service) deposit(_ context.Context, req depositRequest) (Bank, error) {
	current := s.Current()

	updated, change, err := current.Deposit(req.Payment, req.Target)
	if err != nil {
		s.log.Info("deposit rejected",
			zap.Int("paid", req.Payment.Total()),
			zap.Int("target", req.Target),
			zap.Error(err))
		return Bank{}, err
	}

	s.mu.Lock()
	s.current = updated
	s.mu.Unlock()
	metrics.BankBalance.Set(float64(updated.Total()))

	s.log.Debug("deposit accepted",
		zap.Stringer("payment", req.Payment),
		zap.Int("target", req.Target),
		zap.Stringer("change", change),
		zap.Int("balance", updated.Total()))
	return change, nil
}

// Balance returns the total value currently held.
func (s *Service) Balance() int {
	return s.Current().Total()
}

// Current returns the current bank.
func (s *Service) Current() Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Recorded returns the number of deposit transactions remembered.
func (s *Service) Recorded() int {
	return s.deposits.Len()
}

// Close stops accepting deposits and waits for queued ones.
func (s *Service) Close() {
	s.lane.Close()
}
