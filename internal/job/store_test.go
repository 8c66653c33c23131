package job

import (
	"context"
	"fmt"
	"testing"

	"github.com/rkotak/bookimport/internal/entity"
)

func newRunningJob(t *testing.T, store *MemoryStore, id string) {
	t.Helper()
	ctx := context.Background()
	if err := store.Create(ctx, &ImportJob{ID: id, OrgID: "org-1", Status: StatusQueued}); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkRunning(ctx, id); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStore_CommitStepCAS(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	newRunningJob(t, store, "j1")

	upd := StepUpdate{
		Cursor:              Cursor{TypeIndex: 0, Offset: 5000},
		ProcessedDelta:      5000,
		SuccessDelta:        4990,
		FailedDelta:         10,
		CompletedStepsDelta: 1,
	}

	committed, err := store.CommitStep(ctx, "j1", Cursor{}, upd)
	if err != nil {
		t.Fatalf("CommitStep() error = %v", err)
	}
	if !committed {
		t.Fatal("first commit = false, want true")
	}

	// A concurrent execution that read the old cursor must be rejected.
	committed, err = store.CommitStep(ctx, "j1", Cursor{}, upd)
	if err != nil {
		t.Fatalf("CommitStep() error = %v", err)
	}
	if committed {
		t.Fatal("stale commit = true, want false")
	}

	j, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if j.ProcessedRecords != 5000 {
		t.Errorf("ProcessedRecords = %d, want 5000 (stale commit must not apply)", j.ProcessedRecords)
	}
	if j.Cursor != upd.Cursor {
		t.Errorf("Cursor = %+v, want %+v", j.Cursor, upd.Cursor)
	}
}

func TestMemoryStore_CommitStepRequiresRunning(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Create(ctx, &ImportJob{ID: "j2", OrgID: "org-1", Status: StatusQueued}); err != nil {
		t.Fatal(err)
	}

	committed, err := store.CommitStep(ctx, "j2", Cursor{}, StepUpdate{Cursor: Cursor{Offset: 1}})
	if err != nil {
		t.Fatalf("CommitStep() error = %v", err)
	}
	if committed {
		t.Error("commit on a queued job = true, want false")
	}
}

func TestMemoryStore_MarkRunningOnlyFromQueued(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	newRunningJob(t, store, "j3")
	if err := store.Complete(ctx, "j3", Result{}); err != nil {
		t.Fatal(err)
	}

	if err := store.MarkRunning(ctx, "j3"); err != nil {
		t.Fatalf("MarkRunning() error = %v", err)
	}
	j, _ := store.Get(ctx, "j3")
	if j.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed to stay terminal", j.Status)
	}
}

func TestMemoryStore_SetPayloadOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	newRunningJob(t, store, "j4")

	first := PayloadRef{Bucket: "imports", Key: "payloads/a.json"}
	meta := PayloadMeta{TotalRecords: 10, TotalSteps: 1, ActiveTypes: []entity.ImportType{entity.Sales}}
	if err := store.SetPayload(ctx, "j4", first, meta); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPayload(ctx, "j4", PayloadRef{Bucket: "imports", Key: "payloads/b.json"}, meta); err != nil {
		t.Fatal(err)
	}

	j, _ := store.Get(ctx, "j4")
	if j.Payload == nil || j.Payload.Key != first.Key {
		t.Errorf("Payload = %+v, want the first reference kept", j.Payload)
	}
}

func TestMemoryStore_ListActiveOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("j%d", i)
		if err := store.Create(ctx, &ImportJob{ID: id, OrgID: "org-1", Status: StatusQueued}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.MarkRunning(ctx, "j1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Complete(ctx, "j1", Result{}); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ListActive(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d active jobs, want 2", len(ids))
	}
	for _, id := range ids {
		if id == "j1" {
			t.Error("completed job listed as active")
		}
	}
}

func TestAppendCapped(t *testing.T) {
	var errs []string
	for i := 0; i < ErrorCap; i++ {
		errs = append(errs, "e")
	}

	got := appendCapped(errs, []string{"late 1", "late 2"})
	if len(got) != ErrorCap {
		t.Fatalf("len = %d, want cap %d", len(got), ErrorCap)
	}
	if got[len(got)-1] != truncationMarker {
		t.Errorf("last entry = %q, want truncation marker", got[len(got)-1])
	}
	if got[0] != "e" {
		t.Errorf("first entry = %q, oldest errors must be preserved", got[0])
	}
}

func TestAppendCapped_UnderCap(t *testing.T) {
	got := appendCapped([]string{"a"}, []string{"b", "c"})
	if len(got) != 3 || got[2] != "c" {
		t.Errorf("appendCapped() = %v, want [a b c]", got)
	}
}

func TestJobPercentAndCurrentType(t *testing.T) {
	j := &ImportJob{
		Status:           StatusRunning,
		TotalRecords:     200,
		ProcessedRecords: 50,
		Payload:          &PayloadRef{Bucket: "imports", Key: "k"},
		ActiveTypes:      []entity.ImportType{entity.Inventory, entity.Sales},
		Cursor:           Cursor{TypeIndex: 1, Offset: 10},
	}
	if got := j.Percent(); got != 25 {
		t.Errorf("Percent() = %d, want 25", got)
	}
	cur, ok := j.CurrentType()
	if !ok || cur != entity.Sales {
		t.Errorf("CurrentType() = %q/%v, want sales/true", cur, ok)
	}

	j.Cursor.TypeIndex = 2
	if _, ok := j.CurrentType(); ok {
		t.Error("CurrentType() ok = true past the last type, want false")
	}

	j.Status = StatusCompleted
	if got := j.Percent(); got != 100 {
		t.Errorf("Percent() = %d, want 100 on completion", got)
	}
}
