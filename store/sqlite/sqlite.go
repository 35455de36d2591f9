/*
Package sqlite provides the SQLite-backed price catalog and sales log.

PURPOSE:
  Holds the data that is configuration rather than machine state: the unit
  price of every item, and an append-only log of completed sales. The bank
  and stock live in their own services; nothing here takes part in the
  purchase saga besides the read-only price lookup.

INTERFACES IMPLEMENTED:
  purchase.PriceLookup: Lookup(ctx, lines) prices a list of lines

KEY TABLES:
  prices: item → unit price, stored as a decimal string
  sales:  one row per completed purchase, keyed by transaction id

PRICING:
  Unit prices are decimals so a preset may carry fractional prices (e.g.
  "0.5" for a bulk item). The bank only handles whole units, so Lookup sums
  quantity × unit price exactly and fails when the total is not integral.

APPEND-ONLY ENFORCEMENT:
  The sales table is never updated or deleted from. A second insert for the
  same transaction id is rejected with ErrDuplicateSale; redelivered
  purchases hit this and callers treat it as already recorded.

CONCURRENCY:
  Uses sync.RWMutex around the handle. ":memory:" databases are pinned to a
  single connection, otherwise every pooled connection gets its own empty
  database.

USAGE:
  catalog, err := sqlite.New("./data/vending.db")
  if err != nil {
      log.Fatal(err)
  }
  defer catalog.Close()

  price, err := catalog.Lookup(ctx, lines)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - purchase/coordinator.go: PriceLookup
  - factory/machine.go: seeds the catalog from a machine preset
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/stock"
)

var (
	// ErrPriceNotFound is returned when an item has no catalog price.
	ErrPriceNotFound = errors.New("price not found")

	// ErrNegativePrice is returned when saving a price below zero.
	ErrNegativePrice = errors.New("negative price")

	// ErrFractionalTotal is returned when a priced order is not a whole
	// number of units.
	ErrFractionalTotal = errors.New("fractional total")

	// ErrDuplicateSale is returned when a sale is recorded twice.
	ErrDuplicateSale = errors.New("duplicate sale")
)

// PriceNotFoundError names the item without a price.
type PriceNotFoundError struct {
	Item stock.Item
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("price not found: %s", e.Item)
}

func (e *PriceNotFoundError) Unwrap() []error {
	return []error{ErrPriceNotFound, generic.ErrClientInput}
}

// FractionalTotalError carries the exact total that could not be charged.
type FractionalTotalError struct {
	Total decimal.Decimal
}

func (e *FractionalTotalError) Error() string {
	return fmt.Sprintf("fractional total: %s is not a whole number of units", e.Total)
}

func (e *FractionalTotalError) Unwrap() []error {
	return []error{ErrFractionalTotal, generic.ErrClientInput}
}

// Store is the SQLite catalog.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prices (
		item TEXT PRIMARY KEY,
		unit_price TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Sales (append-only)
	CREATE TABLE IF NOT EXISTS sales (
		transaction_id INTEGER PRIMARY KEY,
		lines_json TEXT NOT NULL,
		price INTEGER NOT NULL,
		paid_json TEXT NOT NULL,
		change_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_created_at
		ON sales(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PRICE CATALOG
// =============================================================================

// Price is one catalog entry.
type Price struct {
	Item      stock.Item
	UnitPrice decimal.Decimal
	UpdatedAt time.Time
}

// SetPrice creates or replaces the unit price of item.
func (s *Store) SetPrice(ctx context.Context, item stock.Item, unit decimal.Decimal) error {
	if !item.Valid() {
		return &stock.UnknownItemError{Item: string(item)}
	}
	if unit.IsNegative() {
		return &generic.InputError{Field: "unit_price", Value: unit.String(), Reason: ErrNegativePrice.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO prices (item, unit_price, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item) DO UPDATE SET
			unit_price = excluded.unit_price,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(item),
		unit.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save price: %w", err)
	}
	return nil
}

// Price returns the catalog entry for item.
func (s *Store) Price(ctx context.Context, item stock.Item) (Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price(ctx, item)
}

func (s *Store) price(ctx context.Context, item stock.Item) (Price, error) {
	var unit, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT unit_price, updated_at FROM prices WHERE item = ?",
		string(item),
	).Scan(&unit, &updatedAt)

	if err == sql.ErrNoRows {
		return Price{}, &PriceNotFoundError{Item: item}
	}
	if err != nil {
		return Price{}, fmt.Errorf("failed to load price: %w", err)
	}

	p := Price{Item: item}
	if p.UnitPrice, err = decimal.NewFromString(unit); err != nil {
		return Price{}, fmt.Errorf("corrupt price for %s: %w", item, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// ListPrices returns every catalog entry ordered by item.
func (s *Store) ListPrices(ctx context.Context) ([]Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT item, unit_price, updated_at FROM prices ORDER BY item",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []Price
	for rows.Next() {
		var item, unit, updatedAt string
		if err := rows.Scan(&item, &unit, &updatedAt); err != nil {
			return nil, err
		}
		p := Price{Item: stock.Item(item)}
		if p.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, fmt.Errorf("corrupt price for %s: %w", item, err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Lookup prices lines: the sum of quantity × unit price. An item without a
// price fails the whole lookup, as does a total that is not integral.
func (s *Store) Lookup(ctx context.Context, lines []stock.Line) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity == 0 {
			continue
		}
		p, err := s.price(ctx, l.Item)
		if err != nil {
			return 0, err
		}
		total = total.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if !total.IsInteger() {
		return 0, &FractionalTotalError{Total: total}
	}
	return int(total.IntPart()), nil
}

// =============================================================================
// SALES LOG
// =============================================================================

// saleTimeLayout is fixed width so created_at sorts as text in time order.
// Always formatted in UTC.
const saleTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Sale is one completed purchase.
type Sale struct {
	TransactionID generic.TransactionID
	Lines         []stock.Line
	Price         int
	Paid          []int
	Change        []int
	CreatedAt     time.Time
}

// RecordSale appends a completed purchase. Recording the same transaction
// twice returns ErrDuplicateSale.
func (s *Store) RecordSale(ctx context.Context, sale Sale) error {
	linesJSON, err := json.Marshal(sale.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode lines: %w", err)
	}
	paidJSON, _ := json.Marshal(nonNil(sale.Paid))
	changeJSON, _ := json.Marshal(nonNil(sale.Change))

	createdAt := sale.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sales (transaction_id, lines_json, price, paid_json, change_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		int64(sale.TransactionID),
		string(linesJSON),
		sale.Price,
		string(paidJSON),
		string(changeJSON),
		createdAt.UTC().Format(saleTimeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateSale
		}
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

// ListSales returns the most recent sales, newest first. limit <= 0 means
// no limit.
func (s *Store) ListSales(ctx context.Context, limit int) ([]Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT transaction_id, lines_json, price, paid_json, change_json, created_at
		FROM sales
		ORDER BY created_at DESC, transaction_id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var (
			sale                          Sale
			id                            int64
			linesJSON, paidJSON, changeJS string
			createdAt                     string
		)
		if err := rows.Scan(&id, &linesJSON, &sale.Price, &paidJSON, &changeJS, &createdAt); err != nil {
			return nil, err
		}
		sale.TransactionID = generic.TransactionID(id)
		if err := json.Unmarshal([]byte(linesJSON), &sale.Lines); err != nil {
			return nil, fmt.Errorf("corrupt sale %d: %w", id, err)
		}
		if err := json.Unmarshal([]byte(paidJSON), &sale.Paid); err != nil {
			return nil, fmt.Errorf("corrupt sale %d: %w", id, err)
		}
		if err := json.Unmarshal([]byte(changeJS), &sale.Change); err != nil {
			return nil, fmt.Errorf("corrupt sale %d: %w", id, err)
		}
		if sale.CreatedAt, err = time.Parse(saleTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt sale %d: %w", id, err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// Reset clears every table.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"sales", "prices"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
