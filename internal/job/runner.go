package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner discovers active jobs and drives them step by step until they reach
// a terminal state. Progress is made durable after every step, so jobs a
// crashed process left behind are picked up again on the next poll.
type Runner struct {
	Store    Store
	Orch     *Orchestrator
	Interval time.Duration

	wake chan struct{}

	mu      sync.Mutex
	driving map[string]bool
	wg      sync.WaitGroup
}

func NewRunner(store Store, orch *Orchestrator, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Runner{
		Store:    store,
		Orch:     orch,
		Interval: interval,
		wake:     make(chan struct{}, 1),
		driving:  make(map[string]bool),
	}
}

// Wake nudges the runner to poll immediately, typically right after a job is
// created. It never blocks.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Start runs the poll loop until ctx is cancelled, then waits for in-flight
// jobs to finish their current step.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return
		case <-ticker.C:
			r.poll(ctx)
		case <-r.wake:
			r.poll(ctx)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	ids, err := r.Store.ListActive(ctx, 100)
	if err != nil {
		slog.Error("list active jobs", "error", err)
		return
	}
	for _, id := range ids {
		if !r.acquire(id) {
			continue
		}
		r.wg.Add(1)
		go func(id string) {
			defer r.wg.Done()
			defer r.release(id)
			r.drive(ctx, id)
		}(id)
	}
}

// drive steps one job to a terminal state. Each Step call re-reads the
// stored cursor, so even if another process advances the same job the loop
// converges rather than double-importing.
func (r *Runner) drive(ctx context.Context, id string) {
	for {
		if ctx.Err() != nil {
			return
		}
		status, err := r.Orch.Step(ctx, id)
		if err != nil {
			slog.Error("job step", "job", id, "error", err)
			return
		}
		if status.Terminal() {
			return
		}
	}
}

func (r *Runner) acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.driving[id] {
		return false
	}
	r.driving[id] = true
	return true
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.driving, id)
}
