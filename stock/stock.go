/*
stock.go - Immutable per-item quantity ledger

PURPOSE:
  Stock maps each catalog item to a non-negative quantity. Like bank.Bank it
  is a value: IncLevel and IncLevels return a new Stock and never modify the
  receiver.

INVARIANTS:
  1. No level is ever negative
  2. IncLevels is all-or-nothing: if any delta in the batch would drive its
     item negative, the whole batch fails and no change is observable

BATCH SEMANTICS:
  Deltas are applied in order against a working copy, so two deltas on the
  same item compose (e.g. [-2, +1] on a level of 1 fails at the first delta).
  The first failing delta is reported.

SEE ALSO:
  - service.go: owner of the current levels
*/
package stock

import (
	"sort"
)

// Stock is an immutable item → quantity ledger.
type Stock struct {
	levels map[Item]int
}

// New builds a stock from starting levels. Catalog items missing from
// levels start at zero.
func New(levels map[Item]int) (Stock, error) {
	out := make(map[Item]int, len(items))
	for _, item := range items {
		out[item] = 0
	}
	for item, qty := range levels {
		if !item.Valid() {
			return Stock{}, &UnknownItemError{Item: string(item)}
		}
		if qty < 0 {
			return Stock{}, &NegativeStockError{Item: item, Available: 0, Delta: qty}
		}
		out[item] = qty
	}
	return Stock{levels: out}, nil
}

// Uniform builds a stock holding qty of every catalog item.
func Uniform(qty int) (Stock, error) {
	levels := make(map[Item]int, len(items))
	for _, item := range items {
		levels[item] = qty
	}
	return New(levels)
}

// Level returns the quantity of item.
func (s Stock) Level(item Item) int {
	return s.levels[item]
}

// Levels returns a copy of every level.
func (s Stock) Levels() map[Item]int {
	out := make(map[Item]int, len(s.levels))
	for item, qty := range s.levels {
		out[item] = qty
	}
	return out
}

// Total returns the number of units across all items.
func (s Stock) Total() int {
	n := 0
	for _, qty := range s.levels {
		n += qty
	}
	return n
}

// Equal reports whether both stocks hold the same levels.
func (s Stock) Equal(other Stock) bool {
	for _, item := range items {
		if s.levels[item] != other.levels[item] {
			return false
		}
	}
	return true
}

// Sorted returns the levels ordered by item name.
func (s Stock) Sorted() []Line {
	out := make([]Line, 0, len(s.levels))
	for item, qty := range s.levels {
		out = append(out, Line{Item: item, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// IncLevel returns a stock with delta applied to item.
func (s Stock) IncLevel(item Item, delta int) (Stock, error) {
	next := s.Levels()
	if err := apply(next, item, delta); err != nil {
		return s, err
	}
	return Stock{levels: next}, nil
}

// IncLevels applies every delta to a working copy. On the first failure the
// receiver is returned unchanged together with the error.
func (s Stock) IncLevels(deltas []Delta) (Stock, error) {
	working := s.Levels()
	for _, d := range deltas {
		if err := apply(working, d.Item, d.Delta); err != nil {
			return s, err
		}
	}
	return Stock{levels: working}, nil
}

func apply(levels map[Item]int, item Item, delta int) error {
	if !item.Valid() {
		return &UnknownItemError{Item: string(item)}
	}
	current := levels[item]
	if current+delta < 0 {
		return &NegativeStockError{Item: item, Available: current, Delta: delta}
	}
	levels[item] = current + delta
	return nil
}
