package transform

import (
	"fmt"

	"github.com/rkotak/bookimport/internal/entity"
)

// Validate checks transformed records for one entity type. It returns
// human-readable error and warning strings; a bad row never aborts
// validation of the rest.
//
// The hard rule per type is required-field presence: inventory, customers
// and suppliers need a name, sales need a sku, expenses need an amount.
func Validate(t entity.ImportType, p *entity.Payload) (errs, warnings []string) {
	switch t {
	case entity.Inventory:
		for i, r := range p.Inventory {
			if r.Name == "" {
				errs = append(errs, rowErr(t, i, "missing name"))
			}
			if r.SellingPrice < 0 || r.PurchasePrice < 0 {
				warnings = append(warnings, rowErr(t, i, "negative price"))
			}
			if r.GSTRate > 28 {
				warnings = append(warnings, rowErr(t, i, fmt.Sprintf("GST rate %.0f%% above highest slab", r.GSTRate)))
			}
		}
	case entity.Customers:
		for i, r := range p.Customers {
			if r.Name == "" {
				errs = append(errs, rowErr(t, i, "missing name"))
			}
		}
	case entity.Suppliers:
		for i, r := range p.Suppliers {
			if r.Name == "" {
				errs = append(errs, rowErr(t, i, "missing name"))
			}
		}
	case entity.Sales:
		for i, r := range p.Sales {
			if r.SKU == "" {
				errs = append(errs, rowErr(t, i, "missing sku"))
			}
			if r.Quantity < 0 {
				warnings = append(warnings, rowErr(t, i, "negative quantity"))
			}
			if r.TotalAmount != 0 && r.Amount != 0 && r.TotalAmount < r.Amount {
				warnings = append(warnings, rowErr(t, i, "total below taxable amount"))
			}
		}
	case entity.Expenses:
		for i, r := range p.Expenses {
			if r.Amount == 0 {
				errs = append(errs, rowErr(t, i, "missing amount"))
			}
		}
	}
	return errs, warnings
}

func rowErr(t entity.ImportType, idx int, msg string) string {
	return fmt.Sprintf("%s row %d: %s", t, idx+1, msg)
}
