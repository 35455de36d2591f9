package bank

// =============================================================================
// PACK CONSTRUCTION - Seed a bank from a target total
// =============================================================================

// pack holds one token of every catalog denomination up to a cutoff.
type pack struct {
	tokens []Denomination
	value  int
}

// packs are P1..P6, ascending by value: 1, 3, 8, 18, 38, 88.
var packs = buildPacks()

func buildPacks() []pack {
	out := make([]pack, len(catalog))
	for k := range catalog {
		tokens := append([]Denomination(nil), catalog[:k+1]...)
		value := 0
		for _, d := range tokens {
			value += d.Value()
		}
		out[k] = pack{tokens: tokens, value: value}
	}
	return out
}

// packFor returns the pack to use while remaining is left to build: the
// largest pack whose value does not exceed remaining. remaining must be >= 1.
func packFor(remaining int) pack {
	chosen := packs[0]
	for _, p := range packs[1:] {
		if remaining < p.value {
			break
		}
		chosen = p
	}
	return chosen
}

// FromTotal builds a bank worth exactly total.
//
// The bank is assembled from packs rather than from the fewest tokens: it
// favours many low-value tokens so the machine can give change later. The
// resulting token counts never increase with denomination value.
func FromTotal(total int) (Bank, error) {
	if total < 0 {
		return Bank{}, &NegativeAmountError{Field: "total", Amount: total}
	}

	var tokens []Denomination
	for remaining := total; remaining > 0; {
		p := packFor(remaining)
		tokens = append(tokens, p.tokens...)
		remaining -= p.value
	}
	return fromOwned(tokens), nil
}

// PackValues returns the value of each pack, P1 first.
func PackValues() []int {
	out := make([]int, len(packs))
	for i, p := range packs {
		out[i] = p.value
	}
	return out
}
