package importer

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rkotak/bookimport/internal/entity"
)

// nullText maps empty strings to SQL NULL for optional columns.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullDate maps empty ISO dates to SQL NULL.
func nullDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ImportInventory(ctx context.Context, db DB, orgID string, p *entity.Payload, offset, limit int) (Result, error) {
	start, end := chunkBounds(len(p.Inventory), offset, limit)
	rows := p.Inventory[start:end]
	return runChunk(ctx, db, start, len(rows), func(ctx context.Context, tx pgx.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_items
				(org_id, name, sku, hsn_code, category, unit,
				 purchase_price, selling_price, mrp, stock_quantity, gst_rate, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			orgID, r.Name, nullText(r.SKU), nullText(r.HSNCode), nullText(r.Category),
			nullText(r.Unit), r.PurchasePrice, r.SellingPrice, r.MRP,
			r.StockQuantity, r.GSTRate, nullText(r.Description))
		return err
	})
}

// importParties builds the customer and supplier import functions; both
// write the parties table with a different kind.
func importParties(kind string) Func {
	return func(ctx context.Context, db DB, orgID string, p *entity.Payload, offset, limit int) (Result, error) {
		rows := p.Customers
		if kind == "supplier" {
			rows = p.Suppliers
		}
		start, end := chunkBounds(len(rows), offset, limit)
		chunk := rows[start:end]
		return runChunk(ctx, db, start, len(chunk), func(ctx context.Context, tx pgx.Tx, i int) error {
			r := chunk[i]
			_, err := tx.Exec(ctx, `
				INSERT INTO parties
					(org_id, kind, name, phone, email, address, gstin, opening_balance)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				orgID, kind, r.Name, nullText(r.Phone), nullText(r.Email),
				nullText(r.Address), nullText(r.GSTIN), r.OpeningBalance)
			return err
		})
	}
}

func ImportSales(ctx context.Context, db DB, orgID string, p *entity.Payload, offset, limit int) (Result, error) {
	start, end := chunkBounds(len(p.Sales), offset, limit)
	rows := p.Sales[start:end]
	return runChunk(ctx, db, start, len(rows), func(ctx context.Context, tx pgx.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO sales_entries
				(org_id, invoice_no, entry_date, customer_name, sku, item_name,
				 quantity, unit_price, amount, gst_amount, total_amount, payment_mode)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			orgID, nullText(r.InvoiceNo), nullDate(r.Date), nullText(r.CustomerName),
			r.SKU, nullText(r.ItemName), r.Quantity, r.UnitPrice, r.Amount,
			r.GSTAmount, r.TotalAmount, nullText(r.PaymentMode))
		return err
	})
}

func ImportExpenses(ctx context.Context, db DB, orgID string, p *entity.Payload, offset, limit int) (Result, error) {
	start, end := chunkBounds(len(p.Expenses), offset, limit)
	rows := p.Expenses[start:end]
	return runChunk(ctx, db, start, len(rows), func(ctx context.Context, tx pgx.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO expenses
				(org_id, entry_date, category, description, amount, payment_mode, paid_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orgID, nullDate(r.Date), nullText(r.Category), nullText(r.Description),
			r.Amount, nullText(r.PaymentMode), nullText(r.PaidTo))
		return err
	})
}
