// Package transform applies a consensus schema to raw sheet rows and
// produces cleaned, typed records per entity. This is the only place raw
// strings become typed data; everything downstream works on entity records.
package transform

import (
	"errors"
	"fmt"

	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/mapping"
)

// Result is the outcome of transforming one classified sheet.
type Result struct {
	Rows     entity.Payload // only the transformed type's slice is populated
	Skipped  int            // rows with no meaningful data after mapping
	Cleaned  int            // individual values normalized during conversion
	Warnings []string
}

// row reads mapped fields out of one raw row and keeps the clean tally.
type row struct {
	raw     map[string]string
	schema  mapping.Schema
	cleaned *int
	warn    func(string)
}

func (r row) text(field string) string {
	col, ok := r.schema[field]
	if !ok {
		return ""
	}
	v, changed := parseText(r.raw[col])
	if changed {
		*r.cleaned++
	}
	return v
}

func (r row) number(field string) float64 {
	col, ok := r.schema[field]
	if !ok {
		return 0
	}
	raw := r.raw[col]
	v, ok, changed := parseNumber(raw)
	if !ok {
		if s, _ := cleanCell(raw); s != "" {
			r.warn(fmt.Sprintf("unparseable number %q in column %q", s, col))
		}
		return 0
	}
	if changed {
		*r.cleaned++
	}
	return v
}

func (r row) date(field string) string {
	col, ok := r.schema[field]
	if !ok {
		return ""
	}
	raw := r.raw[col]
	v, ok, changed := parseDate(raw)
	if !ok {
		if s, _ := cleanCell(raw); s != "" {
			r.warn(fmt.Sprintf("unparseable date %q in column %q", s, col))
		}
		return ""
	}
	if changed {
		*r.cleaned++
	}
	return v
}

// empty reports whether the row carries no data in any mapped column.
func (r row) empty() bool {
	for _, col := range r.schema {
		if v, _ := cleanCell(r.raw[col]); v != "" {
			return false
		}
	}
	return true
}

// Apply transforms raw rows into typed records for one entity type. A single
// bad row never fails the call; an unusable schema does, scoped to the sheet
// that produced it.
func Apply(t entity.ImportType, rows []map[string]string, schema mapping.Schema) (*Result, error) {
	if len(schema) == 0 {
		return nil, &entity.Failure{
			Kind:  entity.FailureDegraded,
			Stage: fmt.Sprintf("transform %s", t),
			Err:   errors.New("empty schema"),
		}
	}

	res := &Result{}
	const maxWarnings = 50
	warn := func(msg string) {
		if len(res.Warnings) < maxWarnings {
			res.Warnings = append(res.Warnings, msg)
		}
	}

	for _, raw := range rows {
		r := row{raw: raw, schema: schema, cleaned: &res.Cleaned, warn: warn}
		if r.empty() {
			res.Skipped++
			continue
		}

		switch t {
		case entity.Inventory:
			res.Rows.Inventory = append(res.Rows.Inventory, entity.InventoryRow{
				Name:          r.text("name"),
				SKU:           r.text("sku"),
				HSNCode:       r.text("hsn_code"),
				Category:      r.text("category"),
				Unit:          r.text("unit"),
				PurchasePrice: r.number("purchase_price"),
				SellingPrice:  r.number("selling_price"),
				MRP:           r.number("mrp"),
				StockQuantity: r.number("stock_quantity"),
				GSTRate:       r.number("gst_rate"),
				Description:   r.text("description"),
			})
		case entity.Customers:
			res.Rows.Customers = append(res.Rows.Customers, partyFromRow(r))
		case entity.Suppliers:
			res.Rows.Suppliers = append(res.Rows.Suppliers, partyFromRow(r))
		case entity.Sales:
			res.Rows.Sales = append(res.Rows.Sales, entity.SalesRow{
				InvoiceNo:    r.text("invoice_no"),
				Date:         r.date("date"),
				CustomerName: r.text("customer_name"),
				SKU:          r.text("sku"),
				ItemName:     r.text("item_name"),
				Quantity:     r.number("quantity"),
				UnitPrice:    r.number("unit_price"),
				Amount:       r.number("amount"),
				GSTAmount:    r.number("gst_amount"),
				TotalAmount:  r.number("total_amount"),
				PaymentMode:  r.text("payment_mode"),
			})
		case entity.Expenses:
			res.Rows.Expenses = append(res.Rows.Expenses, entity.ExpenseRow{
				Date:        r.date("date"),
				Category:    r.text("category"),
				Description: r.text("description"),
				Amount:      r.number("amount"),
				PaymentMode: r.text("payment_mode"),
				PaidTo:      r.text("paid_to"),
			})
		default:
			return nil, fmt.Errorf("transform: unsupported type %q", t)
		}
	}
	return res, nil
}

func partyFromRow(r row) entity.PartyRow {
	return entity.PartyRow{
		Name:           r.text("name"),
		Phone:          r.text("phone"),
		Email:          r.text("email"),
		Address:        r.text("address"),
		GSTIN:          r.text("gstin"),
		OpeningBalance: r.number("opening_balance"),
	}
}
