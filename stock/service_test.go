package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/generic/store"
	"github.com/warp/vending-engine/stock"
)

func newTestService(t *testing.T, levels map[stock.Item]int) *stock.Service {
	svc := stock.NewService(mustStock(t, levels), store.NewMemory[struct{}](), generic.NewLane("stock", 8), zap.NewNop())
	t.Cleanup(svc.Close)
	return svc
}

func TestService_ApplyDeltas(t *testing.T) {
	svc := newTestService(t, map[stock.Item]int{stock.Cola: 4})

	err := svc.ApplyDeltas(context.Background(), 1, []stock.Delta{{Item: stock.Cola, Delta: -3}})

	require.NoError(t, err)
	assert.Equal(t, 1, svc.Level(stock.Cola))
}

func TestService_RedeliveryIsNoOp(t *testing.T) {
	// GIVEN: transaction 5 decremented cola by 2
	// WHEN: transaction 5 is delivered again
	// THEN: cola is not decremented a second time
	ctx := context.Background()
	svc := newTestService(t, map[stock.Item]int{stock.Cola: 4})
	deltas := []stock.Delta{{Item: stock.Cola, Delta: -2}}

	require.NoError(t, svc.ApplyDeltas(ctx, 5, deltas))
	require.NoError(t, svc.ApplyDeltas(ctx, 5, deltas))

	assert.Equal(t, 2, svc.Level(stock.Cola))
	assert.Equal(t, 1, svc.Recorded())
}

func TestService_FailureIsRetriedAfterRestock(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, map[stock.Item]int{stock.Water: 1})
	take := []stock.Delta{{Item: stock.Water, Delta: -2}}

	err := svc.ApplyDeltas(ctx, 10, take)
	require.ErrorIs(t, err, stock.ErrNegativeStock)
	assert.Equal(t, 1, svc.Level(stock.Water))

	require.NoError(t, svc.ApplyDeltas(ctx, 11, []stock.Delta{{Item: stock.Water, Delta: 5}}))

	require.NoError(t, svc.ApplyDeltas(ctx, 10, take), "failed transaction is re-executed")
	assert.Equal(t, 4, svc.Level(stock.Water))
}

func TestService_ConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, map[stock.Item]int{stock.Chocolate: 10})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := svc.ApplyDeltas(ctx, generic.TransactionID(id), []stock.Delta{{Item: stock.Chocolate, Delta: -1}})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.Equal(t, 0, svc.Level(stock.Chocolate))
}
