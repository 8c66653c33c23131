// Package importer writes transformed payload chunks into the target tables.
// Each chunk runs in one transaction with a savepoint per row, so a bad row
// is rolled back and recorded without poisoning the rest of the chunk.
package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rkotak/bookimport/internal/entity"
)

// DB begins transactions. Satisfied by *pgxpool.Pool.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Result is the outcome of importing one chunk.
type Result struct {
	Inserted int
	Failed   int
	Errors   []string
}

// Func imports payload rows [offset, offset+limit) of one entity type.
type Func func(ctx context.Context, db DB, orgID string, p *entity.Payload, offset, limit int) (Result, error)

// Registry maps each entity type to its import function.
type Registry map[entity.ImportType]Func

// Default returns the full registry.
func Default() Registry {
	return Registry{
		entity.Inventory: ImportInventory,
		entity.Customers: importParties("customer"),
		entity.Suppliers: importParties("supplier"),
		entity.Sales:     ImportSales,
		entity.Expenses:  ImportExpenses,
	}
}

// chunkBounds clamps [offset, offset+limit) to the slice length.
func chunkBounds(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if limit <= 0 || end > n {
		end = n
	}
	return offset, end
}

// runChunk drives the savepoint-per-row insert loop. insert is called with
// the index into the chunk; offset is only used for error messages so they
// name the absolute payload row.
func runChunk(ctx context.Context, db DB, offset, count int, insert func(ctx context.Context, tx pgx.Tx, i int) error) (Result, error) {
	var res Result
	if count == 0 {
		return res, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("cancelled at row %d: %w", offset+i+1, err)
		}

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return res, fmt.Errorf("savepoint at row %d: %w", offset+i+1, err)
		}

		if err := insert(ctx, tx, i); err != nil {
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return res, fmt.Errorf("rollback savepoint at row %d: %w", offset+i+1, rbErr)
			}
			fail := entity.Failure{
				Kind:  entity.FailureRow,
				Stage: fmt.Sprintf("row %d", offset+i+1),
				Err:   err,
			}
			res.Failed++
			res.Errors = append(res.Errors, fail.Error())
			continue
		}

		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return res, fmt.Errorf("release savepoint at row %d: %w", offset+i+1, err)
		}
		res.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}
