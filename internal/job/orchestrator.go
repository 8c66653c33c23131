package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/importer"
)

// DefaultChunkSize bounds the rows imported per step.
const DefaultChunkSize = 5000

// Orchestrator executes one bounded unit of job work per Step call. The
// first step builds and persists the payload; every later step imports one
// chunk and advances the cursor through its store's compare-and-set.
// FileStore is the file access the orchestrator needs. Satisfied by
// *filestore.Store.
type FileStore interface {
	FileReader
	FileWriter
}

type Orchestrator struct {
	Store     Store
	Files     FileStore
	Builder   *Builder
	Importers importer.Registry
	DB        importer.DB
	ChunkSize int
}

func (o *Orchestrator) chunk() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}

// Step advances the job by at most one chunk and returns its status
// afterwards. It is safe to call concurrently for the same job: overlapping
// executions import the same chunk, but only one commit lands.
func (o *Orchestrator) Step(ctx context.Context, id string) (Status, error) {
	j, err := o.Store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if j.Status.Terminal() {
		return j.Status, nil
	}

	if err := o.Store.MarkRunning(ctx, id); err != nil {
		return "", err
	}

	if j.Payload == nil {
		if err := o.buildPayload(ctx, j); err != nil {
			msg := fmt.Sprintf("payload build failed: %v", err)
			slog.Error("import job failed", "job", id, "error", err)
			if failErr := o.Store.Fail(ctx, id, msg); failErr != nil {
				return "", failErr
			}
			return StatusFailed, nil
		}
		j, err = o.Store.Get(ctx, id)
		if err != nil {
			return "", err
		}
	}

	payload, err := LoadPayload(o.Files, *j.Payload)
	if err != nil {
		slog.Error("import job failed", "job", id, "error", err)
		if failErr := o.Store.Fail(ctx, id, fmt.Sprintf("load payload: %v", err)); failErr != nil {
			return "", failErr
		}
		return StatusFailed, nil
	}

	active := payload.ActiveTypes()
	if j.Cursor.TypeIndex >= len(active) {
		return o.complete(ctx, j, payload, active)
	}

	t := active[j.Cursor.TypeIndex]
	fn, ok := o.Importers[t]
	if !ok {
		msg := fmt.Sprintf("no importer for type %s", t)
		if failErr := o.Store.Fail(ctx, id, msg); failErr != nil {
			return "", failErr
		}
		return StatusFailed, nil
	}

	res, err := fn(ctx, o.DB, j.OrgID, payload, j.Cursor.Offset, o.chunk())
	if err != nil {
		slog.Error("import job failed", "job", id, "type", t, "offset", j.Cursor.Offset, "error", err)
		if failErr := o.Store.Fail(ctx, id, fmt.Sprintf("import %s at offset %d: %v", t, j.Cursor.Offset, err)); failErr != nil {
			return "", failErr
		}
		return StatusFailed, nil
	}

	processed := res.Inserted + res.Failed
	next := Cursor{TypeIndex: j.Cursor.TypeIndex, Offset: j.Cursor.Offset + processed}
	if next.Offset >= payload.Len(t) {
		next = Cursor{TypeIndex: j.Cursor.TypeIndex + 1, Offset: 0}
	}

	// a step completes only when the cursor leaves the current type
	stepsDone := 0
	if next.TypeIndex > j.Cursor.TypeIndex {
		stepsDone = 1
	}

	committed, err := o.Store.CommitStep(ctx, id, j.Cursor, StepUpdate{
		Cursor:              next,
		ProcessedDelta:      processed,
		SuccessDelta:        res.Inserted,
		FailedDelta:         res.Failed,
		CompletedStepsDelta: stepsDone,
		Errors:              prefixErrors(t, res.Errors),
	})
	if err != nil {
		return "", err
	}
	if !committed {
		slog.Warn("discarding step result, cursor moved concurrently", "job", id, "type", t, "offset", j.Cursor.Offset)
		return StatusRunning, nil
	}

	slog.Info("import step committed",
		"job", id, "type", t,
		"offset", j.Cursor.Offset, "inserted", res.Inserted, "failed", res.Failed)
	return StatusRunning, nil
}

// buildPayload runs classification, mapping and transform for every uploaded
// file, persists the result and records it on the job exactly once.
func (o *Orchestrator) buildPayload(ctx context.Context, j *ImportJob) error {
	payload, report, err := o.Builder.Build(ctx, j.Files)
	if err != nil {
		// only structural failures surface here; degraded and row
		// failures were folded into the report
		return err
	}
	if payload.Total() == 0 {
		if len(report.Errors) > 0 {
			return fmt.Errorf("no importable data: %s", report.Errors[0])
		}
		return fmt.Errorf("no importable data found in %d sheet(s)", report.SheetsSeen)
	}

	ref, err := SavePayload(o.Files, j.ID, payload)
	if err != nil {
		return err
	}

	active := payload.ActiveTypes()
	meta := PayloadMeta{
		TotalRecords: payload.Total(),
		TotalSteps:   len(active),
		ActiveTypes:  active,
	}
	if err := o.Store.SetPayload(ctx, j.ID, ref, meta); err != nil {
		return err
	}

	if len(report.Errors) > 0 || len(report.Warnings) > 0 {
		msgs := append(append([]string(nil), report.Errors...), report.Warnings...)
		if _, err := o.Store.CommitStep(ctx, j.ID, j.Cursor, StepUpdate{Cursor: j.Cursor, Errors: msgs}); err != nil {
			return err
		}
	}

	slog.Info("payload built",
		"job", j.ID, "records", payload.Total(), "types", len(active),
		"sheets", report.SheetsSeen, "skipped_sheets", report.SheetsSkipped,
		"cleaned_values", report.ValuesCleaned)
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, j *ImportJob, payload *entity.Payload, active []entity.ImportType) (Status, error) {
	perType := make(map[entity.ImportType]int, len(active))
	for _, t := range active {
		perType[t] = payload.Len(t)
	}
	result := Result{
		TotalRecords: j.TotalRecords,
		SuccessRows:  j.SuccessRows,
		FailedRows:   j.FailedRows,
		PerType:      perType,
	}
	if err := o.Store.Complete(ctx, j.ID, result); err != nil {
		return "", err
	}
	slog.Info("import job completed",
		"job", j.ID, "records", result.TotalRecords,
		"success", result.SuccessRows, "failed", result.FailedRows)
	return StatusCompleted, nil
}

func prefixErrors(t entity.ImportType, errs []string) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = fmt.Sprintf("%s %s", t, e)
	}
	return out
}
