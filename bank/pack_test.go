package bank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
)

func TestPackValues(t *testing.T) {
	assert.Equal(t, []int{1, 3, 8, 18, 38, 88}, bank.PackValues())
}

func TestFromTotal_ExactTotal(t *testing.T) {
	for n := 0; n <= 1000; n++ {
		b, err := bank.FromTotal(n)
		require.NoError(t, err)
		require.Equal(t, n, b.Total(), "FromTotal(%d)", n)
	}
}

func TestFromTotal_NegativeFails(t *testing.T) {
	_, err := bank.FromTotal(-1)

	assert.ErrorIs(t, err, bank.ErrNegativeAmount)
	assert.True(t, generic.IsClientError(err))
}

func TestFromTotal_Examples(t *testing.T) {
	for _, tc := range []struct {
		total int
		want  []int
	}{
		{0, nil},
		{1, []int{1}},
		// P2 then P1 twice
		{5, []int{2, 1, 1, 1}},
		{8, []int{5, 2, 1}},
		{88, []int{50, 20, 10, 5, 2, 1}},
		// P6 (88), P3 (8), P2 (3), P1 (1)
		{100, []int{50, 20, 10, 5, 5, 2, 2, 2, 1, 1, 1, 1}},
	} {
		b, err := bank.FromTotal(tc.total)
		require.NoError(t, err)
		if tc.want == nil {
			assert.True(t, b.IsEmpty(), "FromTotal(%d)", tc.total)
			continue
		}
		assert.Equal(t, tc.want, b.Values(), "FromTotal(%d)", tc.total)
	}
}

func TestFromTotal_MonotonicSpread(t *testing.T) {
	// Every pack contains all lower denominations, so token counts never
	// increase with value.
	denoms := bank.Denominations()
	for n := 0; n <= 500; n++ {
		b, err := bank.FromTotal(n)
		require.NoError(t, err)
		counts := b.Counts()
		for i := 1; i < len(denoms); i++ {
			require.LessOrEqual(t, counts[denoms[i]], counts[denoms[i-1]],
				"FromTotal(%d): more %v than %v", n, denoms[i], denoms[i-1])
		}
	}
}

func TestFromTotal_NoHigherDenominationBelowItsPack(t *testing.T) {
	// A denomination only appears once remaining reaches the pack that
	// introduces it; below 88 there is never a 50, below 38 never a 20, ...
	values := bank.PackValues()
	denoms := bank.Denominations()
	for k := 1; k < len(values); k++ {
		for n := 0; n < values[k]; n++ {
			b, err := bank.FromTotal(n)
			require.NoError(t, err)
			for _, d := range denoms[k:] {
				require.Zero(t, b.Count(d), "FromTotal(%d) holds a %v", n, d)
			}
		}
	}
}

func TestFromTotal_SingleTokenAboveRemainderTier(t *testing.T) {
	// 95 = P6 + P2 + P2 + P1: denominations above the remainder's tier (3)
	// appear exactly once.
	b, err := bank.FromTotal(95)
	require.NoError(t, err)

	assert.Equal(t, 1, b.Count(bank.Fifty))
	assert.Equal(t, 1, b.Count(bank.Twenty))
	assert.Equal(t, 1, b.Count(bank.Ten))
	assert.Equal(t, 1, b.Count(bank.Five))
	assert.Equal(t, 3, b.Count(bank.Two))
	assert.Equal(t, 4, b.Count(bank.One))
}
