package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the import target tables.
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	org_id         TEXT NOT NULL,
	name           TEXT NOT NULL,
	sku            TEXT,
	hsn_code       TEXT,
	category       TEXT,
	unit           TEXT,
	purchase_price NUMERIC(14,2),
	selling_price  NUMERIC(14,2),
	mrp            NUMERIC(14,2),
	stock_quantity NUMERIC(14,3),
	gst_rate       NUMERIC(5,2),
	description    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS inventory_items_org_idx ON inventory_items (org_id);

CREATE TABLE IF NOT EXISTS parties (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	org_id          TEXT NOT NULL,
	kind            TEXT NOT NULL CHECK (kind IN ('customer', 'supplier')),
	name            TEXT NOT NULL,
	phone           TEXT,
	email           TEXT,
	address         TEXT,
	gstin           TEXT,
	opening_balance NUMERIC(14,2),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS parties_org_kind_idx ON parties (org_id, kind);

CREATE TABLE IF NOT EXISTS sales_entries (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	org_id        TEXT NOT NULL,
	invoice_no    TEXT,
	entry_date    DATE,
	customer_name TEXT,
	sku           TEXT NOT NULL,
	item_name     TEXT,
	quantity      NUMERIC(14,3),
	unit_price    NUMERIC(14,2),
	amount        NUMERIC(14,2),
	gst_amount    NUMERIC(14,2),
	total_amount  NUMERIC(14,2),
	payment_mode  TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sales_entries_org_idx ON sales_entries (org_id, entry_date);

CREATE TABLE IF NOT EXISTS expenses (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	org_id       TEXT NOT NULL,
	entry_date   DATE,
	category     TEXT,
	description  TEXT,
	amount       NUMERIC(14,2) NOT NULL,
	payment_mode TEXT,
	paid_to      TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS expenses_org_idx ON expenses (org_id, entry_date);
`

// EnsureSchema creates the target tables if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure import target schema: %w", err)
	}
	return nil
}
