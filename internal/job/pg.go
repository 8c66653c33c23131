package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Schema is the DDL for the jobs table.
const Schema = `
CREATE TABLE IF NOT EXISTS import_jobs (
	id                UUID PRIMARY KEY,
	org_id            TEXT NOT NULL,
	status            TEXT NOT NULL,
	files             JSONB NOT NULL,
	payload_bucket    TEXT,
	payload_key       TEXT,
	active_types      JSONB NOT NULL DEFAULT '[]',
	total_records     INTEGER NOT NULL DEFAULT 0,
	processed_records INTEGER NOT NULL DEFAULT 0,
	total_steps       INTEGER NOT NULL DEFAULT 0,
	completed_steps   INTEGER NOT NULL DEFAULT 0,
	cursor_type       INTEGER NOT NULL DEFAULT 0,
	cursor_offset     INTEGER NOT NULL DEFAULT 0,
	success_rows      INTEGER NOT NULL DEFAULT 0,
	failed_rows       INTEGER NOT NULL DEFAULT 0,
	errors            JSONB NOT NULL DEFAULT '[]',
	result            JSONB,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS import_jobs_org_idx ON import_jobs (org_id, created_at DESC);
CREATE INDEX IF NOT EXISTS import_jobs_active_idx ON import_jobs (status) WHERE status IN ('queued', 'running');
`

// PgStore is the Postgres-backed job store.
type PgStore struct {
	db DBTX
}

// NewPgStore wraps a pool or transaction.
func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

// EnsureSchema creates the jobs table if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure import_jobs schema: %w", err)
	}
	return nil
}

const jobColumns = `id, org_id, status, files, payload_bucket, payload_key,
	active_types,
	total_records, processed_records, total_steps, completed_steps,
	cursor_type, cursor_offset, success_rows, failed_rows,
	errors, result, error_message, created_at, updated_at`

func (s *PgStore) Create(ctx context.Context, j *ImportJob) error {
	files, err := json.Marshal(j.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO import_jobs (id, org_id, status, files)
		VALUES ($1, $2, $3, $4::jsonb)`,
		j.ID, j.OrgID, string(j.Status), files)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*ImportJob, error) {
	row := s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (s *PgStore) ListByOrg(ctx context.Context, orgID string, limit int) ([]*ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+jobColumns+` FROM import_jobs
		WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2`,
		orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*ImportJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PgStore) ListActive(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id FROM import_jobs
		WHERE status IN ('queued', 'running')
		ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PgStore) MarkRunning(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE import_jobs SET status = 'running', updated_at = now()
		WHERE id = $1 AND status = 'queued'`, id)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return nil
}

func (s *PgStore) SetPayload(ctx context.Context, id string, ref PayloadRef, meta PayloadMeta) error {
	types, err := json.Marshal(meta.ActiveTypes)
	if err != nil {
		return fmt.Errorf("marshal active types: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		UPDATE import_jobs
		SET payload_bucket = $2, payload_key = $3,
		    total_records = $4, total_steps = $5,
		    active_types = $6::jsonb, updated_at = now()
		WHERE id = $1 AND payload_key IS NULL`,
		id, ref.Bucket, ref.Key, meta.TotalRecords, meta.TotalSteps, types)
	if err != nil {
		return fmt.Errorf("set payload: %w", err)
	}
	return nil
}

// CommitStep is a single guarded UPDATE: the cursor columns in the WHERE
// clause are the optimistic check. Zero rows affected means a concurrent
// step already advanced the job.
func (s *PgStore) CommitStep(ctx context.Context, id string, prev Cursor, upd StepUpdate) (bool, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	merged, err := json.Marshal(appendCapped(j.Errors, upd.Errors))
	if err != nil {
		return false, fmt.Errorf("marshal errors: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE import_jobs
		SET cursor_type = $4, cursor_offset = $5,
		    processed_records = processed_records + $6,
		    success_rows = success_rows + $7,
		    failed_rows = failed_rows + $8,
		    completed_steps = completed_steps + $9,
		    errors = $10::jsonb,
		    updated_at = now()
		WHERE id = $1 AND status = 'running'
		  AND cursor_type = $2 AND cursor_offset = $3`,
		id, prev.TypeIndex, prev.Offset,
		upd.Cursor.TypeIndex, upd.Cursor.Offset,
		upd.ProcessedDelta, upd.SuccessDelta, upd.FailedDelta,
		upd.CompletedStepsDelta, merged)
	if err != nil {
		return false, fmt.Errorf("commit step: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) Complete(ctx context.Context, id string, result Result) error {
	res, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		UPDATE import_jobs
		SET status = 'completed', result = $2::jsonb, updated_at = now()
		WHERE id = $1 AND status = 'running'`, id, res)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

func (s *PgStore) Fail(ctx context.Context, id string, message string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE import_jobs
		SET status = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`, id, message)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// scanJob reads one job row. pgx.Row and pgx.Rows share the Scan signature.
func scanJob(row interface{ Scan(...any) error }) (*ImportJob, error) {
	var (
		j             ImportJob
		status        string
		files, errs   []byte
		activeTypes   []byte
		payloadBucket *string
		payloadKey    *string
		result        []byte
		errorMessage  *string
		createdAt     time.Time
		updatedAt     time.Time
	)
	err := row.Scan(
		&j.ID, &j.OrgID, &status, &files, &payloadBucket, &payloadKey,
		&activeTypes,
		&j.TotalRecords, &j.ProcessedRecords, &j.TotalSteps, &j.CompletedSteps,
		&j.Cursor.TypeIndex, &j.Cursor.Offset, &j.SuccessRows, &j.FailedRows,
		&errs, &result, &errorMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	j.Status = Status(status)
	j.CreatedAt = createdAt
	j.UpdatedAt = updatedAt
	if err := json.Unmarshal(files, &j.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	if err := json.Unmarshal(errs, &j.Errors); err != nil {
		return nil, fmt.Errorf("decode errors: %w", err)
	}
	if err := json.Unmarshal(activeTypes, &j.ActiveTypes); err != nil {
		return nil, fmt.Errorf("decode active types: %w", err)
	}
	if payloadKey != nil {
		bucket := ""
		if payloadBucket != nil {
			bucket = *payloadBucket
		}
		j.Payload = &PayloadRef{Bucket: bucket, Key: *payloadKey}
	}
	if len(result) > 0 {
		j.Result = &Result{}
		if err := json.Unmarshal(result, j.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	if errorMessage != nil {
		j.ErrorMessage = *errorMessage
	}
	return &j, nil
}
