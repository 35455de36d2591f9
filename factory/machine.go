/*
Package factory provides JSON to Go machine conversion.

PURPOSE:
  Converts a JSON machine preset into the starting state of a vending
  machine: its price catalog, its stock levels and its change bank. This
  lets an operator describe a machine without code changes.

JSON SCHEMA:
  {
    "name": "lobby",
    "prices": {"cola": "2", "chips": "1.5"},
    "stock": {"cola": 10, "chips": 4},
    "bank_total": 100
  }

  "bank" may replace "bank_total" with explicit face values, e.g.
  [20, 5, 5, 1]. When both are present the explicit tokens win.

KEY FEATURES:
  - Every item and denomination is validated against its catalog
  - Prices are decimals and must not be negative
  - bank_total is expanded with bank.FromTotal, favouring small tokens
  - Items missing from "stock" start at zero

USAGE:
  factory := NewMachineFactory()

  machine, err := factory.Load("default")          // built-in preset
  machine, err := factory.Load("./lobby.json")     // preset file

  err = factory.Seed(ctx, catalog, machine)        // write prices

SEE ALSO:
  - bank/pack.go: FromTotal
  - store/sqlite/sqlite.go: price catalog
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/stock"
)

// DefaultPreset names the built-in machine.
const DefaultPreset = "default"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// MachineJSON is the JSON representation of a machine preset.
type MachineJSON struct {
	Name      string            `json:"name"`
	Prices    map[string]string `json:"prices"`
	Stock     map[string]int    `json:"stock,omitempty"`
	BankTotal int               `json:"bank_total,omitempty"`
	Bank      []int             `json:"bank,omitempty"`
}

// Machine is a parsed preset.
type Machine struct {
	Name   string
	Prices map[stock.Item]decimal.Decimal
	Stock  stock.Stock
	Bank   bank.Bank
}

// PriceWriter receives the catalog of a machine.
type PriceWriter interface {
	SetPrice(ctx context.Context, item stock.Item, unit decimal.Decimal) error
}

// =============================================================================
// MACHINE FACTORY
// =============================================================================

// MachineFactory converts JSON presets to machines.
type MachineFactory struct{}

// NewMachineFactory creates a new machine factory.
func NewMachineFactory() *MachineFactory {
	return &MachineFactory{}
}

// Load returns the built-in preset for "" or DefaultPreset, and otherwise
// reads preset as a file path.
func (f *MachineFactory) Load(preset string) (*Machine, error) {
	if preset == "" || preset == DefaultPreset {
		return f.ParseMachine(DefaultMachineJSON())
	}
	return f.LoadFile(preset)
}

// LoadFile parses the preset stored at path.
func (f *MachineFactory) LoadFile(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine preset: %w", err)
	}
	return f.ParseMachine(string(data))
}

// ParseMachine parses a JSON string into a Machine.
func (f *MachineFactory) ParseMachine(jsonStr string) (*Machine, error) {
	var mj MachineJSON
	if err := json.Unmarshal([]byte(jsonStr), &mj); err != nil {
		return nil, fmt.Errorf("failed to parse machine JSON: %w", err)
	}
	return f.FromJSON(mj)
}

// FromJSON converts MachineJSON to a Machine.
func (f *MachineFactory) FromJSON(mj MachineJSON) (*Machine, error) {
	prices, err := parsePrices(mj.Prices)
	if err != nil {
		return nil, err
	}

	levels := make(map[stock.Item]int, len(mj.Stock))
	for name, qty := range mj.Stock {
		item, err := stock.ParseItem(name)
		if err != nil {
			return nil, fmt.Errorf("stock: %w", err)
		}
		levels[item] = qty
	}
	st, err := stock.New(levels)
	if err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}

	var b bank.Bank
	if len(mj.Bank) > 0 {
		b, err = bank.Parse(mj.Bank)
	} else {
		b, err = bank.FromTotal(mj.BankTotal)
	}
	if err != nil {
		return nil, fmt.Errorf("bank: %w", err)
	}

	return &Machine{Name: mj.Name, Prices: prices, Stock: st, Bank: b}, nil
}

// ToJSON converts a Machine back to its preset form. The bank is written as
// explicit tokens.
func (f *MachineFactory) ToJSON(m *Machine) MachineJSON {
	mj := MachineJSON{
		Name:   m.Name,
		Prices: make(map[string]string, len(m.Prices)),
		Stock:  make(map[string]int),
		Bank:   m.Bank.Values(),
	}
	for item, p := range m.Prices {
		mj.Prices[string(item)] = p.String()
	}
	for _, line := range m.Stock.Sorted() {
		if line.Quantity > 0 {
			mj.Stock[string(line.Item)] = line.Quantity
		}
	}
	return mj
}

// Seed writes every price of m to the catalog, in item order.
func (f *MachineFactory) Seed(ctx context.Context, catalog PriceWriter, m *Machine) error {
	items := make([]stock.Item, 0, len(m.Prices))
	for item := range m.Prices {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	for _, item := range items {
		if err := catalog.SetPrice(ctx, item, m.Prices[item]); err != nil {
			return fmt.Errorf("seed price %s: %w", item, err)
		}
	}
	return nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parsePrices(raw map[string]string) (map[stock.Item]decimal.Decimal, error) {
	prices := make(map[stock.Item]decimal.Decimal, len(raw))
	for name, s := range raw {
		item, err := stock.ParseItem(name)
		if err != nil {
			return nil, fmt.Errorf("prices: %w", err)
		}
		unit, err := decimal.NewFromString(s)
		if err != nil {
			return nil, &generic.InputError{Field: "prices." + name, Value: s, Reason: "not a decimal"}
		}
		if unit.IsNegative() {
			return nil, &generic.InputError{Field: "prices." + name, Value: s, Reason: "must not be negative"}
		}
		prices[item] = unit
	}
	return prices, nil
}

// =============================================================================
// PRESETS
// =============================================================================

// DefaultMachineJSON returns the built-in preset: every item priced and
// stocked, and a bank of 100 built from packs.
func DefaultMachineJSON() string {
	return `{
  "name": "default",
  "prices": {
    "cola": "2",
    "water": "1",
    "juice": "3",
    "chips": "1.5",
    "chocolate": "2"
  },
  "stock": {
    "cola": 10,
    "water": 10,
    "juice": 10,
    "chips": 10,
    "chocolate": 10
  },
  "bank_total": 100
}`
}
