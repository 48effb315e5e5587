// Package jobstore holds conversion job state for the lifetime of the
// process. The store is the only shared mutable state between a job's
// background run and status polls; entries are never evicted.
package jobstore

import (
	"errors"
	"sync"

	"github.com/seolyze/imageaudit/internal/entities"
)

// ErrNotFound is returned for lookups of unknown job ids, distinct from a
// job that exists but has not progressed yet.
var ErrNotFound = errors.New("job not found")

// Store abstracts job persistence so tests can substitute a fake and a
// durable backend can be swapped in without touching the scheduler.
type Store interface {
	Create(job entities.Job)
	Get(id string) (entities.Job, error)
	Update(id string, fn func(*entities.Job)) error
}

// Memory is the in-process Store. One writer per job (that job's scheduler
// run), many readers (status polls).
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]*entities.Job
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*entities.Job)}
}

func (m *Memory) Create(job entities.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := job
	m.jobs[job.ID] = &stored
}

// Get returns a copy of the job so readers never observe a mid-update state.
func (m *Memory) Get(id string) (entities.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return entities.Job{}, ErrNotFound
	}
	return snapshot(job), nil
}

// Update applies fn to the stored job under the write lock. Jobs in a
// terminal status are left untouched, which keeps status transitions
// monotonic no matter what a late-running goroutine attempts.
func (m *Memory) Update(id string, fn func(*entities.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}

	fn(job)
	return nil
}

func snapshot(job *entities.Job) entities.Job {
	out := *job
	out.Results = make([]entities.ConversionResult, len(job.Results))
	copy(out.Results, job.Results)
	if job.Error != nil {
		msg := *job.Error
		out.Error = &msg
	}
	return out
}
