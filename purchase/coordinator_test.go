package purchase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/generic/store"
	"github.com/warp/vending-engine/purchase"
	"github.com/warp/vending-engine/stock"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fixedPrices prices every unit of an item from a table.
type fixedPrices struct {
	unit  map[stock.Item]int
	err   error
	calls int
}

func (p *fixedPrices) Lookup(_ context.Context, lines []stock.Line) (int, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	total := 0
	for _, l := range lines {
		total += p.unit[l.Item] * l.Quantity
	}
	return total, nil
}

// flakyStock wraps a real stock service and fails calls for chosen ids.
type flakyStock struct {
	inner  *stock.Service
	failOn map[generic.TransactionID]error
	calls  []generic.TransactionID
}

func (f *flakyStock) ApplyDeltas(ctx context.Context, id generic.TransactionID, deltas []stock.Delta) error {
	f.calls = append(f.calls, id)
	if err, ok := f.failOn[id]; ok {
		return err
	}
	return f.inner.ApplyDeltas(ctx, id, deltas)
}

type fixture struct {
	prices  *fixedPrices
	stock   *stock.Service
	flaky   *flakyStock
	bank    *bank.Service
	journal *purchase.Journal
	coord   *purchase.Coordinator
}

func newFixture(t *testing.T, levels map[stock.Item]int, initial bank.Bank) *fixture {
	t.Helper()
	s, err := stock.New(levels)
	require.NoError(t, err)

	f := &fixture{
		prices: &fixedPrices{unit: map[stock.Item]int{
			stock.Cola:      2,
			stock.Water:     1,
			stock.Chocolate: 3,
		}},
		stock:   stock.NewService(s, store.NewMemory[struct{}](), generic.NewLane("stock", 8), zap.NewNop()),
		bank:    bank.NewService(initial, store.NewMemory[bank.Bank](), generic.NewLane("bank", 8), zap.NewNop()),
		journal: purchase.NewJournal(),
	}
	f.flaky = &flakyStock{inner: f.stock, failOn: map[generic.TransactionID]error{}}
	f.coord = purchase.NewCoordinator(f.prices, f.flaky, f.bank, f.journal, zap.NewNop())
	t.Cleanup(func() {
		f.stock.Close()
		f.bank.Close()
	})
	return f
}

func colaRequest(id generic.TransactionID, qty int, payment ...int) purchase.Request {
	return purchase.Request{
		TransactionID: id,
		Items:         []purchase.ItemRequest{{Item: "cola", Quantity: qty}},
		Payment:       payment,
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestExecute_TwoColasPaidWithFive(t *testing.T) {
	// GIVEN: cola costs 2, 10 colas in stock, bank can give a 1
	// WHEN: buying 2 colas with a 5-note
	// THEN: price 4, change {1}, stock decremented by 2
	initial, err := bank.FromTotal(20)
	require.NoError(t, err)
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, initial)

	receipt, err := f.coord.Execute(context.Background(), colaRequest(1, 2, 5))

	require.NoError(t, err)
	assert.Equal(t, generic.TransactionID(1), receipt.TransactionID)
	assert.Equal(t, 4, receipt.Price)
	assert.Equal(t, []int{1}, receipt.Change.Values())
	assert.Equal(t, 8, f.stock.Level(stock.Cola))
	assert.Equal(t, 24, f.bank.Balance())
}

func TestExecute_RedeliveryIsReplayed(t *testing.T) {
	initial, _ := bank.FromTotal(20)
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, initial)
	ctx := context.Background()

	first, err := f.coord.Execute(ctx, colaRequest(7, 1, 5))
	require.NoError(t, err)
	second, err := f.coord.Execute(ctx, colaRequest(7, 1, 5))
	require.NoError(t, err)

	assert.True(t, first.Change.Equal(second.Change))
	assert.Equal(t, 9, f.stock.Level(stock.Cola), "stock decremented once")
	assert.Equal(t, 22, f.bank.Balance(), "bank credited once")
	assert.Equal(t, 2, f.prices.calls, "price lookup is not cached")
}

func TestExecute_EmptyOrderGivesFullRefund(t *testing.T) {
	f := newFixture(t, nil, bank.Empty())

	receipt, err := f.coord.Execute(context.Background(), purchase.Request{
		TransactionID: 3,
		Payment:       []int{10},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, receipt.Price)
	assert.Equal(t, []int{10}, receipt.Change.Values())
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestExecute_ValidationFailsBeforeAnyDownstreamCall(t *testing.T) {
	for name, req := range map[string]purchase.Request{
		"zero id":              colaRequest(0, 1, 5),
		"negative id":          colaRequest(-4, 1, 5),
		"unknown item":         {TransactionID: 1, Items: []purchase.ItemRequest{{Item: "caviar", Quantity: 1}}},
		"negative quantity":    colaRequest(1, -1, 5),
		"unknown denomination": colaRequest(1, 1, 3),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())

			_, err := f.coord.Execute(context.Background(), req)

			require.Error(t, err)
			assert.True(t, generic.IsClientError(err), "got %v", err)
			assert.Zero(t, f.prices.calls)
			assert.Empty(t, f.flaky.calls)
			assert.Equal(t, 10, f.stock.Level(stock.Cola))
		})
	}
}

func TestExecute_FirstInvalidItemIsReported(t *testing.T) {
	f := newFixture(t, nil, bank.Empty())

	_, err := f.coord.Execute(context.Background(), purchase.Request{
		TransactionID: 1,
		Items: []purchase.ItemRequest{
			{Item: "cola", Quantity: 1},
			{Item: "caviar", Quantity: 1},
			{Item: "truffle", Quantity: 1},
		},
	})

	var unknown *stock.UnknownItemError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "caviar", unknown.Item)
}

// =============================================================================
// FAILURES WITHOUT COMPENSATION
// =============================================================================

func TestExecute_PriceFailurePropagates(t *testing.T) {
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())
	f.prices.err = errors.New("catalog offline")

	_, err := f.coord.Execute(context.Background(), colaRequest(1, 1, 2))

	var down *purchase.DownstreamError
	require.ErrorAs(t, err, &down)
	assert.Equal(t, purchase.StepPrice, down.Step)
	assert.Empty(t, f.flaky.calls)
}

func TestExecute_InsufficientStockAbortsWithoutCompensation(t *testing.T) {
	f := newFixture(t, map[stock.Item]int{stock.Cola: 1}, bank.Empty())

	_, err := f.coord.Execute(context.Background(), colaRequest(1, 2, 5))

	require.ErrorIs(t, err, stock.ErrNegativeStock)
	var down *purchase.DownstreamError
	require.ErrorAs(t, err, &down)
	assert.Equal(t, purchase.StepStock, down.Step)
	assert.Equal(t, []generic.TransactionID{1}, f.flaky.calls, "no compensation")
	assert.Equal(t, 0, f.bank.Balance())
}

// =============================================================================
// PAYMENT FAILURE AND COMPENSATION
// =============================================================================

func TestExecute_PaymentFailureRestoresStock(t *testing.T) {
	// GIVEN: 2 colas cost 4, payment of 2 is short
	// THEN: stock is decremented then restored under the negated id, and
	//       the payment error reaches the caller
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())

	_, err := f.coord.Execute(context.Background(), colaRequest(9, 2, 2))

	require.ErrorIs(t, err, bank.ErrInsufficientPayment)
	var down *purchase.DownstreamError
	require.ErrorAs(t, err, &down)
	assert.Equal(t, purchase.StepSettle, down.Step)

	assert.Equal(t, []generic.TransactionID{9, -9}, f.flaky.calls)
	assert.Equal(t, 10, f.stock.Level(stock.Cola))
	assert.Equal(t, 0, f.journal.Len())
}

func TestExecute_ChangeUnavailableRestoresStock(t *testing.T) {
	// bank {5,5,1}: 4 colas cost 8, paying 10 owes 2 and no 2 can be made
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Of(bank.Five, bank.Five, bank.One))

	_, err := f.coord.Execute(context.Background(), colaRequest(2, 4, 10))

	require.ErrorIs(t, err, bank.ErrChangeUnavailable)
	assert.Equal(t, 10, f.stock.Level(stock.Cola))
	assert.Equal(t, 11, f.bank.Balance())
}

func TestExecute_FailedCompensationIsJournaledAndOriginalErrorReturned(t *testing.T) {
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())
	restoreErr := errors.New("stock unreachable")
	f.flaky.failOn[-4] = restoreErr

	_, err := f.coord.Execute(context.Background(), colaRequest(4, 2, 1))

	require.ErrorIs(t, err, bank.ErrInsufficientPayment, "original failure is surfaced")
	assert.NotErrorIs(t, err, restoreErr)
	assert.Equal(t, 8, f.stock.Level(stock.Cola), "stock left decremented")

	entries := f.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, generic.TransactionID(4), entries[0].TransactionID)
	assert.Equal(t, generic.TransactionID(-4), entries[0].CompensationID)
	assert.Equal(t, []stock.Delta{{Item: stock.Cola, Delta: 2}}, entries[0].Deltas)
	assert.Contains(t, entries[0].Err, "stock unreachable")
	assert.Contains(t, entries[0].Cause, "insufficient payment")
}

func TestExecute_CompensationRunsEvenIfCallerCancelled(t *testing.T) {
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())
	cancelling := &cancelOnDeposit{inner: f.bank}
	coord := purchase.NewCoordinator(f.prices, f.flaky, cancelling, f.journal, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancelling.cancel = cancel
	_, err := coord.Execute(ctx, colaRequest(6, 1, 1))

	require.ErrorIs(t, err, bank.ErrInsufficientPayment)
	assert.Equal(t, 10, f.stock.Level(stock.Cola))
}

// cancelOnDeposit cancels the caller's context while the deposit runs.
type cancelOnDeposit struct {
	inner  *bank.Service
	cancel context.CancelFunc
}

func (c *cancelOnDeposit) Deposit(ctx context.Context, id generic.TransactionID, payment bank.Bank, target int) (bank.Bank, error) {
	change, err := c.inner.Deposit(ctx, id, payment, target)
	c.cancel()
	return change, err
}

func TestExecute_RedeliveryAfterCompensationReplaysReservation(t *testing.T) {
	// Known exposure: after a compensated payment failure, re-delivering the
	// same id replays the reservation as already done, so a now-successful
	// payment sells without decrementing stock. No hidden reconciliation.
	f := newFixture(t, map[stock.Item]int{stock.Cola: 10}, bank.Empty())
	ctx := context.Background()

	_, err := f.coord.Execute(ctx, colaRequest(5, 1, 1))
	require.ErrorIs(t, err, bank.ErrInsufficientPayment)

	receipt, err := f.coord.Execute(ctx, colaRequest(5, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Price)
	assert.Equal(t, 10, f.stock.Level(stock.Cola))
}
