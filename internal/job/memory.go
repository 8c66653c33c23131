package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rkotak/bookimport/internal/entity"
)

// MemoryStore is an in-process Store for tests and local development. It
// honors the same cursor compare-and-set contract as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*ImportJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*ImportJob)}
}

func (s *MemoryStore) Create(_ context.Context, j *ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.jobs[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	cp.Errors = append([]string(nil), j.Errors...)
	cp.Files = append([]FileRef(nil), j.Files...)
	cp.ActiveTypes = append([]entity.ImportType(nil), j.ActiveTypes...)
	return &cp, nil
}

func (s *MemoryStore) ListByOrg(_ context.Context, orgID string, limit int) ([]*ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ImportJob
	for _, j := range s.jobs {
		if j.OrgID == orgID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListActive(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*ImportJob
	for _, j := range s.jobs {
		if !j.Status.Terminal() {
			active = append(active, j)
		}
	}
	sort.Slice(active, func(i, k int) bool { return active[i].CreatedAt.Before(active[k].CreatedAt) })
	var ids []string
	for _, j := range active {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, j.ID)
	}
	return ids, nil
}

func (s *MemoryStore) MarkRunning(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status == StatusQueued {
		j.Status = StatusRunning
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) SetPayload(_ context.Context, id string, ref PayloadRef, meta PayloadMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Payload != nil {
		return nil
	}
	j.Payload = &ref
	j.ActiveTypes = meta.ActiveTypes
	j.TotalRecords = meta.TotalRecords
	j.TotalSteps = meta.TotalSteps
	j.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CommitStep(_ context.Context, id string, prev Cursor, upd StepUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false, ErrNotFound
	}
	if j.Status != StatusRunning || j.Cursor != prev {
		return false, nil
	}
	j.Cursor = upd.Cursor
	j.ProcessedRecords += upd.ProcessedDelta
	j.SuccessRows += upd.SuccessDelta
	j.FailedRows += upd.FailedDelta
	j.CompletedSteps += upd.CompletedStepsDelta
	j.Errors = appendCapped(j.Errors, upd.Errors)
	j.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status != StatusRunning {
		return nil
	}
	j.Status = StatusCompleted
	j.Result = &result
	j.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return nil
	}
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.UpdatedAt = time.Now()
	return nil
}
