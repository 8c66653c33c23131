// Package job owns the durable import-job state machine. A job advances
// through many short step executions, each persisting its cursor before the
// next runs, so a crashed or rate-limited execution loses at most one chunk
// of progress.
package job

import (
	"time"

	"github.com/rkotak/bookimport/internal/entity"
)

// Status is the lifecycle state of an import job. Transitions are monotonic:
// queued → running → completed or failed. Nothing leaves a terminal state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrorCap bounds the stored error list. The oldest entries are preserved;
// once the cap is reached new errors are dropped after a truncation marker.
const ErrorCap = 500

// FileRef points at one uploaded temp file.
type FileRef struct {
	Location string `json:"location"` // bucket; only "imports" is valid
	Path     string `json:"path"`
	Name     string `json:"name"`
}

// PayloadRef points at the persisted transformed data sets. It is set at
// most once per job and is immutable afterwards.
type PayloadRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// PayloadMeta is the build-time summary persisted alongside the payload
// reference. ActiveTypes fixes the cursor's type ordering for the life of
// the job and lets status reads name the current type without loading the
// payload file.
type PayloadMeta struct {
	TotalRecords int
	TotalSteps   int
	ActiveTypes  []entity.ImportType
}

// Cursor is the sole resumption state: a position in the ordered list of
// active entity types and a row offset within the current type.
type Cursor struct {
	TypeIndex int `json:"type_index"`
	Offset    int `json:"offset"`
}

// Less orders cursors lexicographically.
func (c Cursor) Less(o Cursor) bool {
	if c.TypeIndex != o.TypeIndex {
		return c.TypeIndex < o.TypeIndex
	}
	return c.Offset < o.Offset
}

// Result is the final summary stored on completion.
type Result struct {
	TotalRecords int                       `json:"total_records"`
	SuccessRows  int                       `json:"success_rows"`
	FailedRows   int                       `json:"failed_rows"`
	PerType      map[entity.ImportType]int `json:"per_type,omitempty"`
}

// ImportJob is the persisted unit of durable state.
type ImportJob struct {
	ID    string
	OrgID string

	Status Status
	Files  []FileRef

	// Payload is nil until the first successful transform pass.
	Payload *PayloadRef

	// ActiveTypes is the canonical-ordered list of types with rows, set
	// together with Payload.
	ActiveTypes []entity.ImportType

	TotalRecords     int
	ProcessedRecords int

	// TotalSteps counts the active entity types; a step completes when
	// the cursor leaves its type, however many chunks that took.
	TotalSteps     int
	CompletedSteps int

	Cursor Cursor

	SuccessRows int
	FailedRows  int
	Errors      []string

	Result       *Result
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentType names the entity type the cursor points at. It is empty once
// the cursor has walked past the last active type or before the payload is
// built.
func (j *ImportJob) CurrentType() (entity.ImportType, bool) {
	if j.Payload == nil || j.Cursor.TypeIndex >= len(j.ActiveTypes) {
		return "", false
	}
	return j.ActiveTypes[j.Cursor.TypeIndex], true
}

// Percent reports completion as a 0-100 integer.
func (j *ImportJob) Percent() int {
	if j.Status == StatusCompleted {
		return 100
	}
	if j.TotalRecords == 0 {
		return 0
	}
	p := j.ProcessedRecords * 100 / j.TotalRecords
	if p > 100 {
		p = 100
	}
	return p
}

// appendCapped appends errors up to ErrorCap, keeping the oldest entries and
// marking the truncation once.
func appendCapped(existing, incoming []string) []string {
	for _, e := range incoming {
		if len(existing) >= ErrorCap {
			if existing[len(existing)-1] != truncationMarker {
				existing[len(existing)-1] = truncationMarker
			}
			break
		}
		existing = append(existing, e)
	}
	return existing
}

const truncationMarker = "... further errors truncated"
