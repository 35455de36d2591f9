package purchase

import (
	"fmt"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/stock"
)

// ItemRequest is one requested line as received from a caller.
type ItemRequest struct {
	Item     string
	Quantity int
}

// Request is a purchase as received from a caller. It is validated by
// Execute before anything downstream is called.
type Request struct {
	TransactionID generic.TransactionID
	Items         []ItemRequest
	Payment       []int // face values of the tokens inserted
}

// Receipt is the result of a successful purchase.
type Receipt struct {
	TransactionID generic.TransactionID
	Price         int
	Change        bank.Bank
}

// order is a validated Request.
type order struct {
	id      generic.TransactionID
	lines   []stock.Line
	payment bank.Bank
}

// validate parses every field of r. The first error wins.
func (r Request) validate() (order, error) {
	if !r.TransactionID.Valid() {
		return order{}, &generic.InputError{
			Field:  "transaction_id",
			Value:  int64(r.TransactionID),
			Reason: "must be positive",
		}
	}

	lines := make([]stock.Line, 0, len(r.Items))
	for i, it := range r.Items {
		item, err := stock.ParseItem(it.Item)
		if err != nil {
			return order{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		if it.Quantity < 0 {
			return order{}, &generic.InputError{
				Field:  fmt.Sprintf("items[%d].quantity", i),
				Value:  it.Quantity,
				Reason: "must not be negative",
			}
		}
		lines = append(lines, stock.Line{Item: item, Quantity: it.Quantity})
	}

	payment, err := bank.Parse(r.Payment)
	if err != nil {
		return order{}, fmt.Errorf("payment: %w", err)
	}

	return order{id: r.TransactionID, lines: lines, payment: payment}, nil
}
