package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Port: persistence for planning jobs.
//
// MarkProcessing must be a compare-and-set on the pending status so that
// multiple workers never double-claim a job; it returns
// domain.ErrJobAlreadyClaimed when the job is not pending.
type JobStore interface {
	// Create persists a new pending job and returns it.
	Create(ctx context.Context, req domain.PlanRequest) (*domain.PlanningJob, error)

	// Get returns the job or domain.ErrJobNotFound.
	Get(ctx context.Context, id string) (*domain.PlanningJob, error)

	// MarkProcessing transitions pending -> processing and records StartedAt.
	MarkProcessing(ctx context.Context, id string) error

	// MarkCompleted transitions processing -> completed with the result.
	MarkCompleted(ctx context.Context, id string, result *domain.RoutePlan) error

	// MarkFailed transitions processing -> failed with a human-readable message.
	MarkFailed(ctx context.Context, id string, message string) error
}
