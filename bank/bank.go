/*
bank.go - Immutable multiset of denomination tokens

PURPOSE:
  A Bank is the change inventory of the machine: a multiset of tokens kept
  sorted by value, largest first. Every operation returns a new Bank; the
  slice backing a Bank is never modified after construction.

INVARIANTS:
  1. Total() == sum of token values
  2. tokens are sorted descending; two banks are equal iff their sorted
     token sequences are equal
  3. every token belongs to the denomination catalog

CONSTRUCTION:
  Empty()             no tokens
  Of(d...)            from a list of tokens (one token is a list of one)
  Parse(values)       from external face values, first unknown value fails
  a.Add(b)            composition: concatenation then re-sort
  FromTotal(n)        pack construction, see pack.go

SEE ALSO:
  - pack.go: FromTotal
  - change.go: Deposit and the greedy change algorithm
  - service.go: owner of the current bank
*/
package bank

import (
	"sort"
	"strings"
)

// Bank is an immutable, descending-sorted multiset of tokens.
type Bank struct {
	tokens []Denomination
	total  int
}

// Empty returns a bank holding nothing.
func Empty() Bank { return Bank{} }

// Of builds a bank from tokens. Tokens are trusted to be catalog members;
// use Parse for external input.
func Of(tokens ...Denomination) Bank {
	return fromOwned(append([]Denomination(nil), tokens...))
}

// Parse builds a bank from external face values. The first value outside
// the catalog fails the whole list.
func Parse(values []int) (Bank, error) {
	tokens := make([]Denomination, 0, len(values))
	for _, v := range values {
		d, err := ParseDenomination(v)
		if err != nil {
			return Bank{}, err
		}
		tokens = append(tokens, d)
	}
	return fromOwned(tokens), nil
}

// fromOwned sorts tokens in place and takes ownership of the slice.
func fromOwned(tokens []Denomination) Bank {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] > tokens[j] })
	total := 0
	for _, t := range tokens {
		total += t.Value()
	}
	if len(tokens) == 0 {
		tokens = nil
	}
	return Bank{tokens: tokens, total: total}
}

// Add returns the composition of b and other.
func (b Bank) Add(other Bank) Bank {
	merged := make([]Denomination, 0, len(b.tokens)+len(other.tokens))
	merged = append(merged, b.tokens...)
	merged = append(merged, other.tokens...)
	return fromOwned(merged)
}

// Total returns the summed value of all tokens.
func (b Bank) Total() int { return b.total }

// Len returns the number of tokens.
func (b Bank) Len() int { return len(b.tokens) }

// IsEmpty reports whether the bank holds no tokens.
func (b Bank) IsEmpty() bool { return len(b.tokens) == 0 }

// Tokens returns a copy of the tokens, largest first.
func (b Bank) Tokens() []Denomination {
	return append([]Denomination(nil), b.tokens...)
}

// Values returns the face values, largest first.
func (b Bank) Values() []int {
	out := make([]int, len(b.tokens))
	for i, t := range b.tokens {
		out[i] = t.Value()
	}
	return out
}

// Count returns how many tokens of d the bank holds.
func (b Bank) Count(d Denomination) int {
	n := 0
	for _, t := range b.tokens {
		if t == d {
			n++
		}
	}
	return n
}

// Counts returns the number of tokens per catalog denomination.
func (b Bank) Counts() map[Denomination]int {
	out := make(map[Denomination]int, len(catalog))
	for _, d := range catalog {
		out[d] = 0
	}
	for _, t := range b.tokens {
		out[t]++
	}
	return out
}

// Equal reports whether both banks hold the same tokens.
func (b Bank) Equal(other Bank) bool {
	if len(b.tokens) != len(other.tokens) {
		return false
	}
	for i := range b.tokens {
		if b.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

// String renders the bank as {50,10,1}.
func (b Bank) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, t := range b.tokens {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
