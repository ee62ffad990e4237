package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fretline/fretline/pkg/errors"
)

// DefaultRetention is how long finished jobs are kept before Cleanup
// removes them.
const DefaultRetention = 24 * time.Hour

// MemoryStore is an in-process job store for development and
// single-instance servers. Jobs vanish on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	retention time.Duration
}

// NewMemoryStore creates an in-memory store. A zero retention uses
// DefaultRetention.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention == 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		jobs:      make(map[string]*Job),
		retention: retention,
	}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "job %s already exists", job.ID)
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	return clone(job), nil
}

func (s *MemoryStore) Update(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return errors.New(errors.ErrCodeJobNotFound, "job %s not found", job.ID)
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, clone(job))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Cleanup removes terminal jobs older than the retention window.
func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-s.retention)
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// clone copies a job so callers cannot mutate stored state.
func clone(j *Job) *Job {
	c := *j
	if j.Artifacts != nil {
		c.Artifacts = make(map[string]string, len(j.Artifacts))
		for k, v := range j.Artifacts {
			c.Artifacts[k] = v
		}
	}
	return &c
}

var _ Store = (*MemoryStore)(nil)
