/*
handlers.go - HTTP API handlers for the vending machine

PURPOSE:
  Exposes the purchase saga and the machine's services via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  domain packages.

ENDPOINTS:
  Purchases:
    POST   /api/purchases              Run a purchase saga
    GET    /api/purchases              Sales log, newest first (?limit=)

  Bank:
    GET    /api/bank                   Bank contents
    POST   /api/bank/deposits          Cash-in (idempotent per transaction id)

  Stock:
    GET    /api/stock                  Stock levels
    POST   /api/stock/deltas           Restock or adjust (idempotent)

  Catalog:
    GET    /api/prices                 Price catalog
    PUT    /api/prices/{item}          Set a unit price

  Operations:
    GET    /api/compensations          Failed compensations
    GET    /healthz                    Liveness
    GET    /metrics                    Prometheus metrics

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error
  category (see generic.Category):
  - 400: client_input        invalid request, unknown item or denomination
  - 402: precondition        payment below price
  - 409: resource_exhausted  not enough stock, change unavailable
  - 503: service lanes closed during shutdown
  - 500: anything else

REDELIVERY:
  Every mutating endpoint takes a caller-chosen transaction id. Sending the
  same request again returns the recorded result. Purchases, cash-ins and
  restocks share the per-service id space, so callers must not reuse an id
  across endpoints.

SECURITY NOTE:
  No authentication. The operator endpoints (cash-in, restock, prices)
  must sit behind a trusted network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/purchase"
	"github.com/warp/vending-engine/stock"
	"github.com/warp/vending-engine/store/sqlite"
)

const defaultSalesLimit = 50

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Purchases *purchase.Coordinator
	Bank      *bank.Service
	Stock     *stock.Service
	Catalog   *sqlite.Store

	validate *validator.Validate
	log      *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(purchases *purchase.Coordinator, bankSvc *bank.Service, stockSvc *stock.Service, catalog *sqlite.Store, log *zap.Logger) *Handler {
	return &Handler{
		Purchases: purchases,
		Bank:      bankSvc,
		Stock:     stockSvc,
		Catalog:   catalog,
		validate:  validator.New(),
		log:       log.Named("api"),
	}
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// Purchase runs a purchase saga.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	receipt, err := h.Purchases.Execute(r.Context(), toPurchase(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.recordSale(r, req, receipt)
	writeJSON(w, http.StatusOK, toReceiptDTO(receipt))
}

// recordSale appends the sale to the log. A failure here does not undo the
// purchase; it is logged and the receipt is still returned.
func (h *Handler) recordSale(r *http.Request, req PurchaseRequest, receipt purchase.Receipt) {
	lines := make([]stock.Line, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := stock.ParseItem(it.Item)
		if err != nil {
			continue
		}
		lines = append(lines, stock.Line{Item: item, Quantity: it.Quantity})
	}

	err := h.Catalog.RecordSale(r.Context(), sqlite.Sale{
		TransactionID: receipt.TransactionID,
		Lines:         lines,
		Price:         receipt.Price,
		Paid:          req.Payment,
		Change:        receipt.Change.Values(),
	})
	switch {
	case err == nil:
	case errors.Is(err, sqlite.ErrDuplicateSale):
		h.log.Debug("sale already recorded", zap.Stringer("tx", receipt.TransactionID))
	default:
		h.log.Error("failed to record sale", zap.Stringer("tx", receipt.TransactionID), zap.Error(err))
	}
}

// ListPurchases returns the sales log.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	limit := defaultSalesLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	sales, err := h.Catalog.ListSales(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BANK HANDLERS
// =============================================================================

// GetBank returns the bank contents.
func (h *Handler) GetBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toBankDTO(h.Bank.Current()))
}

// CashIn deposits tokens into the bank.
func (h *Handler) CashIn(w http.ResponseWriter, r *http.Request) {
	var req CashInRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := generic.TransactionID(req.TransactionID)
	if !id.Valid() {
		writeDomainError(w, &generic.InputError{Field: "transaction_id", Value: req.TransactionID, Reason: "must be positive"})
		return
	}
	tokens, err := bank.Parse(req.Tokens)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	target := tokens.Total()
	if req.Target != nil {
		target = *req.Target
	}

	change, err := h.Bank.Deposit(r.Context(), id, tokens, target)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CashInResponse{Change: change.Values(), Balance: h.Bank.Balance()})
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

// GetStock returns the stock levels.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStockDTO(h.Stock.Levels()))
}

// Restock applies a batch of stock deltas.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := generic.TransactionID(req.TransactionID)
	if !id.Valid() {
		writeDomainError(w, &generic.InputError{Field: "transaction_id", Value: req.TransactionID, Reason: "must be positive"})
		return
	}
	deltas := make([]stock.Delta, len(req.Deltas))
	for i, d := range req.Deltas {
		item, err := stock.ParseItem(d.Item)
		if err != nil {
			writeDomainError(w, fmt.Errorf("deltas[%d]: %w", i, err))
			return
		}
		deltas[i] = stock.Delta{Item: item, Delta: d.Delta}
	}

	if err := h.Stock.ApplyDeltas(r.Context(), id, deltas); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStockDTO(h.Stock.Levels()))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListPrices returns the price catalog.
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.Catalog.ListPrices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list prices", err)
		return
	}

	dtos := make([]PriceDTO, len(prices))
	for i, p := range prices {
		dtos[i] = toPriceDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetPrice creates or replaces the unit price of one item.
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	item, err := stock.ParseItem(chi.URLParam(r, "item"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req SetPriceRequest
	if !h.decode(w, r, &req) {
		return
	}
	unit, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit price", err)
		return
	}

	ctx := r.Context()
	if err := h.Catalog.SetPrice(ctx, item, unit); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.Catalog.Price(ctx, item)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPriceDTO(p))
}

// =============================================================================
// OPERATIONS HANDLERS
// =============================================================================

// ListCompensations returns every failed compensation, oldest first.
func (h *Handler) ListCompensations(w http.ResponseWriter, r *http.Request) {
	entries := h.Purchases.Journal().Entries()
	dtos := make([]CompensationDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toCompensationDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"failed_compensations": h.Purchases.Journal().Len(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body into dst. On failure it writes the
// response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps err to a status by category.
func writeDomainError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Error:    message,
		Category: generic.Category(err),
		Details:  err.Error(),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrLaneClosed):
		return http.StatusServiceUnavailable, "Service shutting down"
	case generic.IsClientError(err):
		return http.StatusBadRequest, "Invalid request"
	case generic.IsPrecondition(err):
		return http.StatusPaymentRequired, "Insufficient payment"
	case generic.IsResourceExhausted(err):
		return http.StatusConflict, "Request cannot be served"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
