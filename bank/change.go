package bank

// =============================================================================
// DEPOSIT - Accept a payment and select change
// =============================================================================

// Deposit accepts added against target and returns the updated bank and the
// change handed back. On any error b is unchanged (it is immutable anyway)
// and no partial result is returned.
//
// Change is selected greedily in a single pass over the pooled tokens,
// largest first, without backtracking: a token larger than what is still
// owed is skipped for good (the amount owed only decreases), and the first
// token that fits is taken. This can reject a deposit for which another
// selection of tokens would have worked, e.g. owing 6 from {5,2,2,2}.
func (b Bank) Deposit(added Bank, target int) (updated Bank, change Bank, err error) {
	if target < 0 {
		return Bank{}, Bank{}, &NegativeAmountError{Field: "target", Amount: target}
	}
	if added.Total() < target {
		return Bank{}, Bank{}, &InsufficientPaymentError{Paid: added.Total(), Target: target}
	}

	pool := b.Add(added)
	owed := added.Total() - target

	kept := make([]Denomination, 0, pool.Len())
	var given []Denomination
	remaining := owed
	for _, t := range pool.tokens {
		if remaining > 0 && t.Value() <= remaining {
			given = append(given, t)
			remaining -= t.Value()
			continue
		}
		kept = append(kept, t)
	}
	if remaining > 0 {
		return Bank{}, Bank{}, &ChangeUnavailableError{Owed: owed, Remaining: remaining}
	}

	// pool is sorted, so kept and given already are.
	return fromSorted(kept), fromSorted(given), nil
}

func fromSorted(tokens []Denomination) Bank {
	if len(tokens) == 0 {
		return Bank{}
	}
	total := 0
	for _, t := range tokens {
		total += t.Value()
	}
	return Bank{tokens: tokens, total: total}
}
