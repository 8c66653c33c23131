// Package entity defines the five import destinations and the typed records
// the pipeline produces for each of them. Raw spreadsheet cells are converted
// to these records exactly once, inside the transform package; everything
// downstream (payload storage, chunked imports) works on typed data.
package entity

// ImportType identifies one of the supported import destinations.
type ImportType string

const (
	Inventory ImportType = "inventory"
	Customers ImportType = "customers"
	Suppliers ImportType = "suppliers"
	Sales     ImportType = "sales"
	Expenses  ImportType = "expenses"
)

// CanonicalOrder is the order entity types are imported in. Inventory and
// customers must precede sales because sales rows reference them by SKU and
// customer name.
var CanonicalOrder = []ImportType{Inventory, Customers, Suppliers, Sales, Expenses}

// Valid reports whether t is one of the supported import types.
func (t ImportType) Valid() bool {
	switch t {
	case Inventory, Customers, Suppliers, Sales, Expenses:
		return true
	}
	return false
}

// Fields returns the importable field names for an import type, in a fixed
// order. The column mapper is constrained to this list; anything else an AI
// response proposes is discarded.
func (t ImportType) Fields() []string {
	switch t {
	case Inventory:
		return []string{
			"name", "sku", "hsn_code", "category", "unit",
			"purchase_price", "selling_price", "mrp", "stock_quantity",
			"gst_rate", "description",
		}
	case Customers, Suppliers:
		return []string{"name", "phone", "email", "address", "gstin", "opening_balance"}
	case Sales:
		return []string{
			"invoice_no", "date", "customer_name", "sku", "item_name",
			"quantity", "unit_price", "amount", "gst_amount", "total_amount",
			"payment_mode",
		}
	case Expenses:
		return []string{"date", "category", "description", "amount", "payment_mode", "paid_to"}
	}
	return nil
}

// RequiredField returns the single field a record of this type cannot be
// imported without.
func (t ImportType) RequiredField() string {
	switch t {
	case Inventory, Customers, Suppliers:
		return "name"
	case Sales:
		return "sku"
	case Expenses:
		return "amount"
	}
	return ""
}

// InventoryRow is one catalog item.
type InventoryRow struct {
	Name          string  `json:"name"`
	SKU           string  `json:"sku,omitempty"`
	HSNCode       string  `json:"hsn_code,omitempty"`
	Category      string  `json:"category,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	PurchasePrice float64 `json:"purchase_price,omitempty"`
	SellingPrice  float64 `json:"selling_price,omitempty"`
	MRP           float64 `json:"mrp,omitempty"`
	StockQuantity float64 `json:"stock_quantity,omitempty"`
	GSTRate       float64 `json:"gst_rate,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// PartyRow is one customer or supplier.
type PartyRow struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone,omitempty"`
	Email          string  `json:"email,omitempty"`
	Address        string  `json:"address,omitempty"`
	GSTIN          string  `json:"gstin,omitempty"`
	OpeningBalance float64 `json:"opening_balance,omitempty"`
}

// SalesRow is one sale line from an invoice or sales register.
type SalesRow struct {
	InvoiceNo    string  `json:"invoice_no,omitempty"`
	Date         string  `json:"date,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	SKU          string  `json:"sku"`
	ItemName     string  `json:"item_name,omitempty"`
	Quantity     float64 `json:"quantity,omitempty"`
	UnitPrice    float64 `json:"unit_price,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	GSTAmount    float64 `json:"gst_amount,omitempty"`
	TotalAmount  float64 `json:"total_amount,omitempty"`
	PaymentMode  string  `json:"payment_mode,omitempty"`
}

// ExpenseRow is one recorded expense.
type ExpenseRow struct {
	Date        string  `json:"date,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode,omitempty"`
	PaidTo      string  `json:"paid_to,omitempty"`
}

// Payload is the fully transformed data set for one import job, grouped per
// entity type. Once persisted it is immutable shared read state for every
// subsequent job step.
type Payload struct {
	Inventory []InventoryRow `json:"inventory,omitempty"`
	Customers []PartyRow     `json:"customers,omitempty"`
	Suppliers []PartyRow     `json:"suppliers,omitempty"`
	Sales     []SalesRow     `json:"sales,omitempty"`
	Expenses  []ExpenseRow   `json:"expenses,omitempty"`
}

// Len returns the number of transformed rows for one type.
func (p *Payload) Len(t ImportType) int {
	switch t {
	case Inventory:
		return len(p.Inventory)
	case Customers:
		return len(p.Customers)
	case Suppliers:
		return len(p.Suppliers)
	case Sales:
		return len(p.Sales)
	case Expenses:
		return len(p.Expenses)
	}
	return 0
}

// Total returns the number of transformed rows across all types.
func (p *Payload) Total() int {
	n := 0
	for _, t := range CanonicalOrder {
		n += p.Len(t)
	}
	return n
}

// ActiveTypes returns the types that have at least one row, in canonical
// order. The job cursor's type index is a position in this slice.
func (p *Payload) ActiveTypes() []ImportType {
	var active []ImportType
	for _, t := range CanonicalOrder {
		if p.Len(t) > 0 {
			active = append(active, t)
		}
	}
	return active
}
