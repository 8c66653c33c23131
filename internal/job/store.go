package job

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("job not found")

// StepUpdate carries one step's worth of progress. Deltas are applied on top
// of the stored counters inside the same atomic commit as the cursor move.
type StepUpdate struct {
	Cursor              Cursor // the new cursor position
	ProcessedDelta      int
	SuccessDelta        int
	FailedDelta         int
	CompletedStepsDelta int
	Errors              []string
}

// Store persists import jobs.
//
// CommitStep is the concurrency control point: two overlapping step
// executions for the same job both read the same cursor, but only the first
// commit succeeds; the second sees committed=false and must discard its
// work. This gives at-least-once semantics at the chunk level.
type Store interface {
	Create(ctx context.Context, j *ImportJob) error
	Get(ctx context.Context, id string) (*ImportJob, error)
	ListByOrg(ctx context.Context, orgID string, limit int) ([]*ImportJob, error)

	// ListActive returns ids of non-terminal jobs for the runner to drive.
	ListActive(ctx context.Context, limit int) ([]string, error)

	// MarkRunning moves a queued job to running; running stays running and
	// terminal jobs are left untouched.
	MarkRunning(ctx context.Context, id string) error

	// SetPayload records the payload location and build-time totals. It is a
	// no-op when a payload is already set: the location is written at most
	// once per job.
	SetPayload(ctx context.Context, id string, ref PayloadRef, meta PayloadMeta) error

	// CommitStep atomically advances the cursor from prev and applies upd.
	// It returns false without changing anything when the stored cursor no
	// longer matches prev or the job is not running.
	CommitStep(ctx context.Context, id string, prev Cursor, upd StepUpdate) (bool, error)

	Complete(ctx context.Context, id string, result Result) error
	Fail(ctx context.Context, id string, message string) error
}
