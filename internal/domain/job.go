package domain

import "time"

// JobStatus is the planning job state machine. Transitions are
// one-directional: pending -> processing -> completed | failed.
// No job is ever reopened.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// BalanceMode selects the load-balancing strategy.
type BalanceMode string

const (
	BalanceGeography BalanceMode = "geography"
	BalanceWorkload  BalanceMode = "workload"
	BalanceHybrid    BalanceMode = "balanced"
)

// PlanRequest is the versioned payload a planning job is created with.
// Exactly one of Date or WaypointIDs determines the working set.
type PlanRequest struct {
	Date          string      `json:"date,omitempty"`
	WaypointIDs   []string    `json:"waypoint_ids,omitempty"`
	DepotID       string      `json:"depot_id"`
	MaxPerRoute   int         `json:"max_per_route"`
	StartTime     Clock       `json:"start_time"`
	AllowOvertime bool        `json:"allow_overtime"`
	BalanceMode   BalanceMode `json:"balance_mode"`
	SplitRoutes   bool        `json:"split_routes"`
}

// PlanningJob is the persisted record of one asynchronous planning run.
// Owned exclusively by the job manager; planning code returns results and
// errors, it never mutates job state.
type PlanningJob struct {
	ID           string
	Status       JobStatus
	Request      PlanRequest
	Result       *RoutePlan
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
