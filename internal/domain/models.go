package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// Numeric is a float64 that accepts either a JSON number or a numeric string.
// Form-driven clients submit quantities and prices as text; values are stored
// as numbers regardless of how they arrived.
type Numeric float64

func (n *Numeric) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		return nil
	}
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = bytes.TrimSpace(trimmed[1 : len(trimmed)-1])
	}
	if len(trimmed) == 0 {
		return nil
	}
	parsed, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s", data)
	}
	*n = Numeric(parsed)
	return nil
}

func (n Numeric) Float64() float64 {
	return float64(n)
}

type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	SupplierID  string  `json:"supplierId,omitempty"`
	GodownID    string  `json:"godownId,omitempty"`
	BagCount    float64 `json:"bagCount,omitempty"`
	LastUpdated string  `json:"lastUpdated"`
}

type ItemCreateRequest struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Quantity   *Numeric `json:"quantity"`
	Unit       string   `json:"unit"`
	Price      *Numeric `json:"price"`
	SupplierID string   `json:"supplierId"`
	GodownID   string   `json:"godownId"`
	BagCount   *Numeric `json:"bagCount"`
}

// ItemUpdateRequest carries a partial update: only non-nil fields are written,
// omitted fields keep their stored values.
type ItemUpdateRequest struct {
	Name       *string  `json:"name,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Quantity   *Numeric `json:"quantity,omitempty"`
	Unit       *string  `json:"unit,omitempty"`
	Price      *Numeric `json:"price,omitempty"`
	SupplierID *string  `json:"supplierId,omitempty"`
	GodownID   *string  `json:"godownId,omitempty"`
	BagCount   *Numeric `json:"bagCount,omitempty"`
}

type ItemFilter struct {
	Category string
	Search   string
}

type Transaction struct {
	ID          string  `json:"id"`
	ItemID      string  `json:"itemId"`
	Type        string  `json:"type"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	TotalAmount float64 `json:"totalAmount"`
	Date        string  `json:"date"`
}

type TransactionCreateRequest struct {
	ItemID   string   `json:"itemId"`
	Type     string   `json:"type"`
	Quantity *Numeric `json:"quantity"`
	Price    *Numeric `json:"price"`
	Date     string   `json:"date"`
}

type TransactionFilter struct {
	ItemID    string
	Type      string
	StartDate string
	EndDate   string
}

type Expense struct {
	ID          string  `json:"id"`
	ItemID      string  `json:"itemId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

type ExpenseCreateRequest struct {
	ItemID      string   `json:"itemId"`
	Description string   `json:"description"`
	Amount      *Numeric `json:"amount"`
	Date        string   `json:"date"`
}

type ExpenseFilter struct {
	ItemID    string
	StartDate string
	EndDate   string
}

type Supplier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
}

type SupplierCreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// Godown is a storage location (warehouse) referenced by items.
type Godown struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Capacity string `json:"capacity,omitempty"`
}

type GodownCreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity string `json:"capacity"`
}

type ReportSettings struct {
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	Email       string `json:"email"`
	GSTIN       string `json:"gstin"`
}

// Settings is the singleton application configuration document, keyed by the
// fixed SettingsType discriminator.
type Settings struct {
	Type              string         `json:"type"`
	Theme             string         `json:"theme"`
	LowStockThreshold float64        `json:"lowStockThreshold"`
	DefaultCurrency   string         `json:"defaultCurrency"`
	Notifications     bool           `json:"notifications"`
	ReportSettings    ReportSettings `json:"reportSettings"`
}

const SettingsType = "appSettings"

// DefaultSettings returns the document materialized on first read.
func DefaultSettings() Settings {
	return Settings{
		Type:              SettingsType,
		Theme:             "light",
		LowStockThreshold: 30,
		DefaultCurrency:   "INR",
		Notifications:     true,
		ReportSettings: ReportSettings{
			CompanyName: "Vegetable Inventory Management",
		},
	}
}

type ReportFilter struct {
	StartDate string
	EndDate   string
	Category  string
	ItemID    string
}

// ReportSummary holds the financial totals for a report slice. Profit is
// always totalSales - totalPurchases - totalExpenses.
type ReportSummary struct {
	TotalItems     int     `json:"totalItems,omitempty"`
	TotalQuantity  float64 `json:"totalQuantity"`
	TotalValue     float64 `json:"totalValue"`
	TotalPurchases float64 `json:"totalPurchases"`
	TotalSales     float64 `json:"totalSales"`
	TotalExpenses  float64 `json:"totalExpenses"`
	Profit         float64 `json:"profit"`
}

// Report is the fleet-wide report shape; single-item reports set Item and
// leave Items empty.
type Report struct {
	Item         *Item         `json:"item,omitempty"`
	Items        []Item        `json:"items,omitempty"`
	Transactions []Transaction `json:"transactions"`
	Expenses     []Expense     `json:"expenses"`
	Summary      ReportSummary `json:"summary"`
}

// Document is a rendered report artifact ready to stream as an attachment.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

const (
	TxTypePurchase = "purchase"
	TxTypeSale     = "sale"
)
