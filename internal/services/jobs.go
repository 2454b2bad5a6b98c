package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// expectedJobDuration calibrates the polling progress heuristic. Progress is
// advisory wall-clock guesswork, not a real completion percentage.
const expectedJobDuration = 30 * time.Second

// JobRunner owns the asynchronous planning job lifecycle.
//
// Submit records a pending job and returns immediately; the planning run is
// dispatched detached and flips the job through processing to a terminal
// state. Wait blocks until every in-flight job finishes so the process never
// exits with work in progress.
type JobRunner struct {
	store   ports.JobStore
	planner *Planner
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

func NewJobRunner(store ports.JobStore, planner *Planner, logger zerolog.Logger) *JobRunner {
	return &JobRunner{
		store:   store,
		planner: planner,
		logger:  logger,
	}
}

// Submit validates the request, records a pending job and launches the
// planning run in the background.
func (r *JobRunner) Submit(ctx context.Context, req domain.PlanRequest) (*domain.PlanningJob, error) {
	if err := ValidatePlanRequest(&req); err != nil {
		return nil, err
	}

	job, err := r.store.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go r.run(job.ID, req)

	return job, nil
}

// Get returns the current job record for polling.
func (r *JobRunner) Get(ctx context.Context, id string) (*domain.PlanningJob, error) {
	return r.store.Get(ctx, id)
}

// Wait blocks until all in-flight jobs reach a terminal state.
func (r *JobRunner) Wait() {
	r.wg.Wait()
}

// run executes one job detached from the submitting request. It is the only
// writer of the job's state after claiming it, so the one-directional state
// machine needs no further locking.
func (r *JobRunner) run(id string, req domain.PlanRequest) {
	defer r.wg.Done()

	// Deliberately not the request context: the job outlives the HTTP
	// response that created it.
	ctx := context.Background()

	if err := r.store.MarkProcessing(ctx, id); err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			r.logger.Warn().Str("job_id", id).Msg("job already claimed, skipping")
			return
		}
		r.logger.Error().Err(err).Str("job_id", id).Msg("claim job failed")
		return
	}

	plan, err := r.planner.Plan(ctx, req)
	if err != nil {
		r.logger.Error().Err(err).Str("job_id", id).Msg("planning job failed")
		if merr := r.store.MarkFailed(ctx, id, err.Error()); merr != nil {
			r.logger.Error().Err(merr).Str("job_id", id).Msg("record job failure failed")
		}
		return
	}

	if err := r.store.MarkCompleted(ctx, id, plan); err != nil {
		r.logger.Error().Err(err).Str("job_id", id).Msg("record job result failed")
		return
	}

	r.logger.Info().Str("job_id", id).Msg("planning job completed")
}

// JobProgress estimates completion percent for a polling client from elapsed
// processing time.
func JobProgress(job *domain.PlanningJob, now time.Time) int {
	switch job.Status {
	case domain.JobPending:
		return 0
	case domain.JobProcessing:
		if job.StartedAt == nil {
			return 10
		}
		elapsed := now.Sub(*job.StartedAt)
		pct := 10 + int(float64(elapsed)/float64(expectedJobDuration)*80)
		if pct > 90 {
			pct = 90
		}
		return pct
	default:
		return 100
	}
}
