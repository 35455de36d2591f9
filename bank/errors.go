package bank

import (
	"errors"
	"fmt"

	"github.com/warp/vending-engine/generic"
)

var (
	// ErrUnknownDenomination is returned when parsing a value outside the catalog.
	ErrUnknownDenomination = errors.New("unknown denomination")

	// ErrNegativeAmount is returned for a negative target or total.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInsufficientPayment is returned when the deposited tokens are worth
	// less than the target amount. Not retried: the caller must pay more.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrChangeUnavailable is returned when the greedy selection cannot make
	// exact change from the tokens on hand.
	ErrChangeUnavailable = errors.New("change unavailable")
)

// UnknownDenominationError carries the rejected face value.
type UnknownDenominationError struct {
	Value int
}

func (e *UnknownDenominationError) Error() string {
	return fmt.Sprintf("unknown denomination: %d", e.Value)
}

func (e *UnknownDenominationError) Unwrap() []error {
	return []error{ErrUnknownDenomination, generic.ErrClientInput}
}

// NegativeAmountError carries the rejected amount.
type NegativeAmountError struct {
	Field  string
	Amount int
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("negative %s: %d", e.Field, e.Amount)
}

func (e *NegativeAmountError) Unwrap() []error {
	return []error{ErrNegativeAmount, generic.ErrClientInput}
}

// InsufficientPaymentError provides details about a payment shortfall.
type InsufficientPaymentError struct {
	Paid   int
	Target int
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: paid %d, target %d, shortfall %d",
		e.Paid, e.Target, e.Target-e.Paid)
}

func (e *InsufficientPaymentError) Unwrap() []error {
	return []error{ErrInsufficientPayment, generic.ErrPrecondition}
}

// ChangeUnavailableError provides details about a failed change selection.
type ChangeUnavailableError struct {
	Owed      int // change owed to the customer
	Remaining int // part of Owed that could not be covered
}

func (e *ChangeUnavailableError) Error() string {
	return fmt.Sprintf("change unavailable: owed %d, could not cover %d", e.Owed, e.Remaining)
}

func (e *ChangeUnavailableError) Unwrap() []error {
	return []error{ErrChangeUnavailable, generic.ErrResourceExhausted}
}
