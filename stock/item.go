// Package stock implements the machine's item stock: the closed item
// catalog, the immutable quantity ledger with batched all-or-nothing deltas,
// and the Service that owns the current levels.
package stock

import "strings"

// =============================================================================
// ITEM - Closed catalog of products
// =============================================================================

// Item identifies one product slot of the machine.
type Item string

const (
	Cola      Item = "cola"
	Water     Item = "water"
	Juice     Item = "juice"
	Chips     Item = "chips"
	Chocolate Item = "chocolate"
)

var items = [...]Item{Cola, Water, Juice, Chips, Chocolate}

// Items returns every catalog item.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items[:])
	return out
}

// Valid reports whether i belongs to the catalog.
func (i Item) Valid() bool {
	switch i {
	case Cola, Water, Juice, Chips, Chocolate:
		return true
	default:
		return false
	}
}

func (i Item) String() string { return string(i) }

// ParseItem converts an external item identifier. Matching ignores case and
// surrounding spaces; anything outside the catalog fails.
func ParseItem(s string) (Item, error) {
	item := Item(strings.ToLower(strings.TrimSpace(s)))
	if !item.Valid() {
		return "", &UnknownItemError{Item: s}
	}
	return item, nil
}

// Line is a requested quantity of one item.
type Line struct {
	Item     Item
	Quantity int
}

// Delta is a signed change of one item's quantity: negative for purchases,
// positive for restocks.
type Delta struct {
	Item  Item
	Delta int
}

// Negate returns the deltas with every sign flipped.
func Negate(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = Delta{Item: d.Item, Delta: -d.Delta}
	}
	return out
}

// Take converts requested lines into decrementing deltas.
func Take(lines []Line) []Delta {
	out := make([]Delta, len(lines))
	for i, l := range lines {
		out[i] = Delta{Item: l.Item, Delta: -l.Quantity}
	}
	return out
}
