// Package bank implements the machine's money bank: the closed set of
// denominations, the immutable Bank value with its change-making algorithm,
// and the Service that owns the current bank.
package bank

import "fmt"

// =============================================================================
// DENOMINATION - Closed set of face values
// =============================================================================

// Kind tells coins from notes.
type Kind int

const (
	Coin Kind = iota + 1
	Note
)

func (k Kind) String() string {
	switch k {
	case Coin:
		return "coin"
	case Note:
		return "note"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Denomination is one coin or note face value.
type Denomination int

const (
	One    Denomination = 1
	Two    Denomination = 2
	Five   Denomination = 5
	Ten    Denomination = 10
	Twenty Denomination = 20
	Fifty  Denomination = 50
)

// catalog lists every denomination in ascending order.
var catalog = [...]Denomination{One, Two, Five, Ten, Twenty, Fifty}

// Denominations returns the catalog in ascending order.
func Denominations() []Denomination {
	out := make([]Denomination, len(catalog))
	copy(out, catalog[:])
	return out
}

// Value returns the face value.
func (d Denomination) Value() int { return int(d) }

// Kind returns whether d is a coin or a note. It returns 0 for values
// outside the catalog.
func (d Denomination) Kind() Kind {
	switch d {
	case One, Two:
		return Coin
	case Five, Ten, Twenty, Fifty:
		return Note
	default:
		return 0
	}
}

// Valid reports whether d belongs to the catalog.
func (d Denomination) Valid() bool { return d.Kind() != 0 }

func (d Denomination) String() string { return fmt.Sprintf("%d", int(d)) }

// ParseDenomination converts an external face value. Values outside the
// catalog fail, there is no default.
func ParseDenomination(value int) (Denomination, error) {
	d := Denomination(value)
	if !d.Valid() {
		return 0, &UnknownDenominationError{Value: value}
	}
	return d, nil
}
