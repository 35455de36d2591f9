/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Purchase:
    PurchaseRequest, ItemDTO, ReceiptDTO, SaleDTO

  Bank:
    BankDTO, CashInRequest, CashInResponse

  Stock:
    StockDTO, RestockRequest, DeltaDTO

  Catalog:
    PriceDTO, SetPriceRequest

  Operations:
    CompensationDTO

VALIDATION:
  Struct tags check the shape of a request (required fields, positive
  tokens). Domain rules such as the item catalog and the denomination
  catalog are checked by the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"strconv"
	"time"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/purchase"
	"github.com/warp/vending-engine/stock"
	"github.com/warp/vending-engine/store/sqlite"
)

// =============================================================================
// PURCHASE
// =============================================================================

// PurchaseRequest is the body of POST /api/purchases.
type PurchaseRequest struct {
	TransactionID int64     `json:"transaction_id" validate:"required"`
	Items         []ItemDTO `json:"items" validate:"dive"`
	Payment       []int     `json:"payment" validate:"dive,gt=0"`
}

// ItemDTO is one requested line.
type ItemDTO struct {
	Item     string `json:"item" validate:"required"`
	Quantity int    `json:"quantity"`
}

// ReceiptDTO is returned by a successful purchase.
type ReceiptDTO struct {
	TransactionID int64 `json:"transaction_id"`
	Price         int   `json:"price"`
	Change        []int `json:"change"`
}

// SaleDTO is one entry of the sales log.
type SaleDTO struct {
	TransactionID int64     `json:"transaction_id"`
	Items         []ItemDTO `json:"items"`
	Price         int       `json:"price"`
	Paid          []int     `json:"paid"`
	Change        []int     `json:"change"`
	CreatedAt     string    `json:"created_at"`
}

// =============================================================================
// BANK
// =============================================================================

// BankDTO describes the bank contents.
type BankDTO struct {
	Total  int            `json:"total"`
	Tokens []int          `json:"tokens"`
	Counts map[string]int `json:"counts"`
}

// CashInRequest is the body of POST /api/bank/deposits. Target defaults to
// the value of the tokens, i.e. no change.
type CashInRequest struct {
	TransactionID int64 `json:"transaction_id" validate:"required"`
	Tokens        []int `json:"tokens" validate:"required,min=1,dive,gt=0"`
	Target        *int  `json:"target,omitempty" validate:"omitempty,gte=0"`
}

// CashInResponse is returned by a successful deposit.
type CashInResponse struct {
	Change  []int `json:"change"`
	Balance int   `json:"balance"`
}

// =============================================================================
// STOCK
// =============================================================================

// StockDTO describes the stock levels.
type StockDTO struct {
	Total  int            `json:"total"`
	Levels map[string]int `json:"levels"`
}

// RestockRequest is the body of POST /api/stock/deltas.
type RestockRequest struct {
	TransactionID int64      `json:"transaction_id" validate:"required"`
	Deltas        []DeltaDTO `json:"deltas" validate:"required,min=1,dive"`
}

// DeltaDTO is one signed stock change.
type DeltaDTO struct {
	Item  string `json:"item" validate:"required"`
	Delta int    `json:"delta"`
}

// =============================================================================
// CATALOG
// =============================================================================

// PriceDTO is one catalog entry.
type PriceDTO struct {
	Item      string `json:"item"`
	UnitPrice string `json:"unit_price"`
	UpdatedAt string `json:"updated_at"`
}

// SetPriceRequest is the body of PUT /api/prices/{item}.
type SetPriceRequest struct {
	UnitPrice string `json:"unit_price" validate:"required,numeric"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CompensationDTO is one failed compensation.
type CompensationDTO struct {
	ID             string     `json:"id"`
	TransactionID  int64      `json:"transaction_id"`
	CompensationID int64      `json:"compensation_id"`
	Deltas         []DeltaDTO `json:"deltas"`
	Cause          string     `json:"cause"`
	Error          string     `json:"error"`
	At             string     `json:"at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Details  string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPurchase(req PurchaseRequest) purchase.Request {
	items := make([]purchase.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = purchase.ItemRequest{Item: it.Item, Quantity: it.Quantity}
	}
	return purchase.Request{
		TransactionID: generic.TransactionID(req.TransactionID),
		Items:         items,
		Payment:       req.Payment,
	}
}

func toReceiptDTO(r purchase.Receipt) ReceiptDTO {
	return ReceiptDTO{
		TransactionID: int64(r.TransactionID),
		Price:         r.Price,
		Change:        r.Change.Values(),
	}
}

func toSaleDTO(s sqlite.Sale) SaleDTO {
	items := make([]ItemDTO, len(s.Lines))
	for i, l := range s.Lines {
		items[i] = ItemDTO{Item: string(l.Item), Quantity: l.Quantity}
	}
	return SaleDTO{
		TransactionID: int64(s.TransactionID),
		Items:         items,
		Price:         s.Price,
		Paid:          s.Paid,
		Change:        s.Change,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func toBankDTO(b bank.Bank) BankDTO {
	counts := make(map[string]int)
	for d, n := range b.Counts() {
		counts[strconv.Itoa(d.Value())] = n
	}
	return BankDTO{Total: b.Total(), Tokens: b.Values(), Counts: counts}
}

func toStockDTO(levels map[stock.Item]int) StockDTO {
	dto := StockDTO{Levels: make(map[string]int, len(levels))}
	for item, qty := range levels {
		dto.Levels[string(item)] = qty
		dto.Total += qty
	}
	return dto
}

func toPriceDTO(p sqlite.Price) PriceDTO {
	return PriceDTO{
		Item:      string(p.Item),
		UnitPrice: p.UnitPrice.String(),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func toCompensationDTO(c purchase.CompensationFailure) CompensationDTO {
	deltas := make([]DeltaDTO, len(c.Deltas))
	for i, d := range c.Deltas {
		deltas[i] = DeltaDTO{Item: string(d.Item), Delta: d.Delta}
	}
	return CompensationDTO{
		ID:             c.ID.String(),
		TransactionID:  int64(c.TransactionID),
		CompensationID: int64(c.CompensationID),
		Deltas:         deltas,
		Cause:          c.Cause,
		Error:          c.Err,
		At:             c.At.Format(time.RFC3339),
	}
}
