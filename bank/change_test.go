package bank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
)

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestDeposit_TenAgainstEightWithTwoOnHand(t *testing.T) {
	// GIVEN: bank {5,5,2,1} (13)
	// WHEN: a 10-note is deposited against a target of 8
	// THEN: bank becomes {10,5,5,1}, change is {2}
	b := bank.Of(bank.Five, bank.Five, bank.One, bank.Two)

	updated, change, err := b.Deposit(bank.Of(bank.Ten), 8)

	require.NoError(t, err)
	assert.Equal(t, []int{10, 5, 5, 1}, updated.Values())
	assert.Equal(t, 21, updated.Total())
	assert.Equal(t, []int{2}, change.Values())
}

func TestDeposit_TenAgainstEightWithoutTwo(t *testing.T) {
	// GIVEN: bank {5,5,1} (11)
	// WHEN: a 10-note is deposited against a target of 8
	// THEN: change of 2 cannot be made: the 10 and both 5s are too large and
	//       the single 1 leaves 1 uncovered
	b := bank.Of(bank.Five, bank.Five, bank.One)

	_, _, err := b.Deposit(bank.Of(bank.Ten), 8)

	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrChangeUnavailable)
	assert.True(t, generic.IsResourceExhausted(err))

	var unavailable *bank.ChangeUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 2, unavailable.Owed)
	assert.Equal(t, 1, unavailable.Remaining)

	// the value is immutable, but make the point explicit
	assert.Equal(t, []int{5, 5, 1}, b.Values())
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestDeposit_Exactness(t *testing.T) {
	payments := [][]bank.Denomination{
		{bank.Fifty},
		{bank.Twenty, bank.Five},
		{bank.Ten, bank.Ten, bank.Two},
		{bank.One, bank.One, bank.One},
		{bank.Fifty, bank.Twenty, bank.Ten, bank.Five, bank.Two, bank.One},
	}
	for total := 0; total <= 200; total += 7 {
		prior, err := bank.FromTotal(total)
		require.NoError(t, err)
		for _, tokens := range payments {
			added := bank.Of(tokens...)
			for target := 0; target <= added.Total(); target++ {
				updated, change, err := prior.Deposit(added, target)
				if err != nil {
					require.ErrorIs(t, err, bank.ErrChangeUnavailable)
					continue
				}
				require.Equal(t, prior.Total()+target, updated.Total())
				require.Equal(t, added.Total()-target, change.Total())
				require.True(t, prior.Add(added).Equal(updated.Add(change)),
					"no token created or lost")
			}
		}
	}
}

func TestDeposit_InsufficientPayment(t *testing.T) {
	b := bank.Of(bank.Ten, bank.Five)

	updated, change, err := b.Deposit(bank.Of(bank.Two, bank.One), 4)

	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrInsufficientPayment)
	assert.True(t, generic.IsPrecondition(err))
	assert.True(t, updated.IsEmpty())
	assert.True(t, change.IsEmpty())
	assert.Equal(t, []int{10, 5}, b.Values())

	var short *bank.InsufficientPaymentError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 3, short.Paid)
	assert.Equal(t, 4, short.Target)
}

func TestDeposit_NegativeTarget(t *testing.T) {
	_, _, err := bank.Empty().Deposit(bank.Of(bank.One), -1)

	assert.ErrorIs(t, err, bank.ErrNegativeAmount)
	assert.True(t, generic.IsClientError(err))
}

func TestDeposit_ExactPaymentGivesNoChange(t *testing.T) {
	b := bank.Of(bank.Two, bank.One)

	updated, change, err := b.Deposit(bank.Of(bank.Five, bank.Two), 7)

	require.NoError(t, err)
	assert.True(t, change.IsEmpty())
	assert.Equal(t, []int{5, 2, 2, 1}, updated.Values())
}

func TestDeposit_ChangeMayComeFromPayment(t *testing.T) {
	// An empty bank can still give change out of the deposited tokens.
	updated, change, err := bank.Empty().Deposit(bank.Of(bank.Five, bank.One), 5)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, change.Values())
	assert.Equal(t, []int{5}, updated.Values())
}

func TestDeposit_ZeroTargetReturnsEverything(t *testing.T) {
	b := bank.Of(bank.Ten)

	updated, change, err := b.Deposit(bank.Of(bank.Five, bank.Two), 0)

	require.NoError(t, err)
	assert.Equal(t, 7, change.Total())
	assert.Equal(t, 10, updated.Total())
}

func TestDeposit_PrefersLargestFittingToken(t *testing.T) {
	b := bank.Of(bank.Five, bank.Two, bank.Two, bank.One, bank.One, bank.One)

	_, change, err := b.Deposit(bank.Of(bank.Ten), 4)

	require.NoError(t, err)
	assert.Equal(t, []int{5, 1}, change.Values())
}

// =============================================================================
// KNOWN POLICY LIMITATION
// =============================================================================

func TestDeposit_GreedyRejectsFeasibleChange(t *testing.T) {
	// Known limitation of the greedy, no-backtrack selection. Owing 6 from a
	// pool of {5,5,2,2,2}: the 5 is taken first, leaving 1 that no token can
	// cover, although 2+2+2 would have worked. The deposit is rejected; this
	// is the accepted policy, not a defect.
	b := bank.Of(bank.Two, bank.Two, bank.Two)

	_, _, err := b.Deposit(bank.Of(bank.Five, bank.Five), 4)

	assert.ErrorIs(t, err, bank.ErrChangeUnavailable)
}
