/*
coordinator.go - Purchase saga across stock and bank

PURPOSE:
  Executes a sale by calling two independently failing services. There is
  no distributed transaction: the steps run in sequence and a single
  best-effort compensation undoes the stock reservation when payment fails.

STEPS:
  1. Validate  parse items and payment tokens; first error wins, nothing
               downstream is called
  2. Price     stateless lookup, freely retryable, not cached
  3. Reserve   Stock.ApplyDeltas(id, -quantities); on failure stop, nothing
               to compensate
  4. Settle    Bank.Deposit(id, payment, price)
               - success: Receipt{price, change}
               - failure: Stock.ApplyDeltas(-id, +quantities) once, then
                 return the deposit failure whatever the compensation did

FAILURE EXPOSURE:
  A crash between steps 3 and 4, or a failed compensation, leaves stock and
  bank inconsistent. Nothing reconciles them automatically; failed
  compensations are logged and kept in the Journal for an operator.

  Re-delivering a request reuses the same transaction id, so each store
  replays or retries its own step. After a compensated failure, the
  reservation replays as a success without decrementing again.

SEE ALSO:
  - generic/idempotency.go: per-service idempotency
  - journal.go: failed compensations
*/
package purchase

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/metrics"
	"github.com/warp/vending-engine/stock"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// PriceLookup prices a list of lines. Read-only.
type PriceLookup interface {
	Lookup(ctx context.Context, lines []stock.Line) (int, error)
}

// StockLedger applies idempotent delta batches.
type StockLedger interface {
	ApplyDeltas(ctx context.Context, id generic.TransactionID, deltas []stock.Delta) error
}

// Cashier accepts idempotent deposits and returns the change.
type Cashier interface {
	Deposit(ctx context.Context, id generic.TransactionID, payment bank.Bank, target int) (bank.Bank, error)
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator runs purchase sagas. It holds no state of its own besides the
// journal of failed compensations; distinct transactions may run
// concurrently.
type Coordinator struct {
	prices  PriceLookup
	stock   StockLedger
	cashier Cashier
	journal *Journal
	log     *zap.Logger
}

func NewCoordinator(prices PriceLookup, stock StockLedger, cashier Cashier, journal *Journal, log *zap.Logger) *Coordinator {
	return &Coordinator{
		prices:  prices,
		stock:   stock,
		cashier: cashier,
		journal: journal,
		log:     log.Named("purchase"),
	}
}

// Execute runs the saga for req.
func (c *Coordinator) Execute(ctx context.Context, req Request) (Receipt, error) {
	o, err := req.validate()
	if err != nil {
		metrics.Purchases.WithLabelValues("client_input").Inc()
		return Receipt{}, err
	}
	log := c.log.With(zap.Stringer("tx", o.id))

	price, err := c.prices.Lookup(ctx, o.lines)
	if err != nil {
		metrics.Purchases.WithLabelValues("price_failed").Inc()
		log.Info("price lookup failed", zap.Error(err))
		return Receipt{}, &DownstreamError{TransactionID: o.id, Step: StepPrice, Err: err}
	}
	log.Debug("priced", zap.Int("price", price), zap.Int("lines", len(o.lines)))

	reserve := stock.Take(o.lines)
	if err := c.stock.ApplyDeltas(ctx, o.id, reserve); err != nil {
		metrics.Purchases.WithLabelValues("stock_failed").Inc()
		log.Info("stock reservation failed", zap.Error(err))
		return Receipt{}, &DownstreamError{TransactionID: o.id, Step: StepStock, Err: err}
	}
	log.Debug("stock reserved")

	change, err := c.cashier.Deposit(ctx, o.id, o.payment, price)
	if err != nil {
		metrics.Purchases.WithLabelValues("payment_failed").Inc()
		c.compensate(ctx, log, o.id, reserve, err)
		return Receipt{}, &DownstreamError{TransactionID: o.id, Step: StepSettle, Err: err}
	}

	metrics.Purchases.WithLabelValues("success").Inc()
	log.Info("purchase completed", zap.Int("price", price), zap.Stringer("change", change))
	return Receipt{TransactionID: o.id, Price: price, Change: change}, nil
}

// compensate restores the reserved quantities once. Its own failure is
// recorded but never returned.
func (c *Coordinator) compensate(ctx context.Context, log *zap.Logger, id generic.TransactionID, reserve []stock.Delta, cause error) {
	restore := stock.Negate(reserve)
	log.Warn("payment failed, restoring stock", zap.Error(cause))

	// The caller may already be gone; the restore still has to be attempted.
	err := c.stock.ApplyDeltas(context.WithoutCancel(ctx), id.Compensation(), restore)
	if err == nil {
		metrics.Compensations.WithLabelValues("ok").Inc()
		return
	}

	metrics.Compensations.WithLabelValues("failed").Inc()
	entry := c.journal.Record(id, restore, cause, err)
	log.Error("stock restore failed, stock and bank are inconsistent",
		zap.Stringer("entry", entry.ID),
		zap.Stringer("compensation_tx", entry.CompensationID),
		zap.NamedError("cause", cause),
		zap.Error(err))
}

// Journal returns the journal of failed compensations.
func (c *Coordinator) Journal() *Journal {
	return c.journal
}
