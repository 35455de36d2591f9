package stock

import (
	"errors"
	"fmt"

	"github.com/warp/vending-engine/generic"
)

var (
	// ErrUnknownItem is returned for identifiers outside the item catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNegativeStock is returned when a delta would drive a level below zero.
	ErrNegativeStock = errors.New("negative stock")
)

// UnknownItemError carries the rejected identifier.
type UnknownItemError struct {
	Item string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item: %q", e.Item)
}

func (e *UnknownItemError) Unwrap() []error {
	return []error{ErrUnknownItem, generic.ErrClientInput}
}

// NegativeStockError provides details about a rejected delta.
type NegativeStockError struct {
	Item      Item
	Available int
	Delta     int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("negative stock: %s has %d, delta %d", e.Item, e.Available, e.Delta)
}

func (e *NegativeStockError) Unwrap() []error {
	return []error{ErrNegativeStock, generic.ErrResourceExhausted}
}
