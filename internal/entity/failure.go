package entity

import (
	"errors"
	"fmt"
)

// FailureKind classifies a pipeline failure by how much of the job it
// invalidates. Callers branch on it: structural failures abort the job,
// everything else is recorded against the job and the pipeline moves on.
type FailureKind int

const (
	// FailureStructural means an uploaded file is unreadable or
	// unparseable. No payload can be produced and the job must fail.
	FailureStructural FailureKind = iota
	// FailureDegraded means one sheet could not be mapped or transformed.
	// The sheet is skipped; the rest of the job proceeds.
	FailureDegraded
	// FailureRow means a single row was rejected. Never fatal.
	FailureRow
)

func (k FailureKind) String() string {
	switch k {
	case FailureStructural:
		return "structural"
	case FailureDegraded:
		return "degraded"
	case FailureRow:
		return "row"
	default:
		return "unknown"
	}
}

// Failure attaches a FailureKind to the error of one pipeline stage.
type Failure struct {
	Kind  FailureKind
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) FailureKind() FailureKind { return f.Kind }

// KindOf reports the FailureKind carried by err, or FailureStructural when
// the error carries none. Unclassified failures are assumed to invalidate
// the whole job.
func KindOf(err error) FailureKind {
	var k interface{ FailureKind() FailureKind }
	if errors.As(err, &k) {
		return k.FailureKind()
	}
	return FailureStructural
}
