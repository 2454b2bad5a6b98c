package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"field-route-service/internal/domain"
)

// In-memory implementation of the JobStore port.
//
// Mirrors the Postgres store's compare-and-set semantics under a mutex.
// Used by tests and single-process deployments without a database.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.PlanningJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*domain.PlanningJob)}
}

func (s *MemoryJobStore) Create(_ context.Context, req domain.PlanRequest) (*domain.PlanningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &domain.PlanningJob{
		ID:        uuid.NewString(),
		Status:    domain.JobPending,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[job.ID] = job

	out := *job
	return &out, nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*domain.PlanningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	out := *job
	return &out, nil
}

func (s *MemoryJobStore) MarkProcessing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.JobPending {
		return domain.ErrJobAlreadyClaimed
	}

	now := time.Now().UTC()
	job.Status = domain.JobProcessing
	job.StartedAt = &now
	return nil
}

func (s *MemoryJobStore) MarkCompleted(_ context.Context, id string, result *domain.RoutePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.JobProcessing {
		return domain.ErrJobAlreadyClaimed
	}

	now := time.Now().UTC()
	job.Status = domain.JobCompleted
	job.Result = result
	job.CompletedAt = &now
	return nil
}

func (s *MemoryJobStore) MarkFailed(_ context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.JobProcessing {
		return domain.ErrJobAlreadyClaimed
	}

	now := time.Now().UTC()
	job.Status = domain.JobFailed
	job.ErrorMessage = message
	job.CompletedAt = &now
	return nil
}
