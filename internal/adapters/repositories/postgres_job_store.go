package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"field-route-service/internal/domain"
)

// Postgres-backed implementation of the JobStore port.
//
// The pending->processing transition is a conditional UPDATE so concurrent
// workers can never double-claim a job.
type PostgresJobStore struct {
	DB *sql.DB
}

func NewPostgresJobStore(db *sql.DB) *PostgresJobStore {
	return &PostgresJobStore{DB: db}
}

func (s *PostgresJobStore) Create(ctx context.Context, req domain.PlanRequest) (*domain.PlanningJob, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("create job: marshal request: %w", err)
	}

	job := &domain.PlanningJob{
		ID:        uuid.NewString(),
		Status:    domain.JobPending,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	query := `
	INSERT INTO planning_jobs (id, status, request, created_at)
	VALUES ($1, $2, $3, $4);
	`
	if _, err := s.DB.ExecContext(ctx, query, job.ID, job.Status, payload, job.CreatedAt); err != nil {
		return nil, fmt.Errorf("create job: insert: %w", err)
	}

	return job, nil
}

func (s *PostgresJobStore) Get(ctx context.Context, id string) (*domain.PlanningJob, error) {
	query := `
	SELECT id, status, request, result, error_message, created_at, started_at, completed_at
	FROM planning_jobs
	WHERE id = $1;
	`

	var job domain.PlanningJob
	var request []byte
	var result []byte
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Status, &request, &result, &errMsg,
		&job.CreatedAt, &startedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %q: %w", id, err)
	}

	if err := json.Unmarshal(request, &job.Request); err != nil {
		return nil, fmt.Errorf("get job %q: decode request: %w", id, err)
	}
	if len(result) > 0 {
		job.Result = &domain.RoutePlan{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("get job %q: decode result: %w", id, err)
		}
	}
	if errMsg.Valid {
		job.ErrorMessage = errMsg.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return &job, nil
}

func (s *PostgresJobStore) MarkProcessing(ctx context.Context, id string) error {
	query := `
	UPDATE planning_jobs
	SET status = $1, started_at = $2
	WHERE id = $3 AND status = $4;
	`

	res, err := s.DB.ExecContext(ctx, query, domain.JobProcessing, time.Now().UTC(), id, domain.JobPending)
	if err != nil {
		return fmt.Errorf("mark job %q processing: %w", id, err)
	}

	return s.checkTransition(ctx, res, id, domain.ErrJobAlreadyClaimed)
}

func (s *PostgresJobStore) MarkCompleted(ctx context.Context, id string, result *domain.RoutePlan) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("mark job %q completed: marshal result: %w", id, err)
	}

	query := `
	UPDATE planning_jobs
	SET status = $1, result = $2, completed_at = $3
	WHERE id = $4 AND status = $5;
	`

	res, err := s.DB.ExecContext(ctx, query, domain.JobCompleted, payload, time.Now().UTC(), id, domain.JobProcessing)
	if err != nil {
		return fmt.Errorf("mark job %q completed: %w", id, err)
	}

	return s.checkTransition(ctx, res, id, fmt.Errorf("job %q is not processing", id))
}

func (s *PostgresJobStore) MarkFailed(ctx context.Context, id string, message string) error {
	query := `
	UPDATE planning_jobs
	SET status = $1, error_message = $2, completed_at = $3
	WHERE id = $4 AND status = $5;
	`

	res, err := s.DB.ExecContext(ctx, query, domain.JobFailed, message, time.Now().UTC(), id, domain.JobProcessing)
	if err != nil {
		return fmt.Errorf("mark job %q failed: %w", id, err)
	}

	return s.checkTransition(ctx, res, id, fmt.Errorf("job %q is not processing", id))
}

// checkTransition distinguishes a missing job from a lost state-machine race
// when a conditional update matched no rows.
func (s *PostgresJobStore) checkTransition(ctx context.Context, res sql.Result, id string, conflictErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job %q transition: rows affected: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM planning_jobs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("job %q transition: existence check: %w", id, err)
	}
	if !exists {
		return domain.ErrJobNotFound
	}
	return conflictErr
}
