package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// AssistantRequest carries one route's inputs to the AI assistant.
//
// Simulate lets the assistant's tool loop evaluate a candidate ordering with
// the caller's timing rules without the adapter depending on the scheduling
// package.
type AssistantRequest struct {
	Depot     domain.Depot
	Waypoints []domain.Waypoint
	StartTime domain.Clock
	Simulate  func(order []int) []domain.Stop
}

// AssistantResult is a finalized ordering with free-text reasoning.
// Order holds indices into AssistantRequest.Waypoints and must be a
// permutation; Suggestions are advisory only.
type AssistantResult struct {
	Order       []int
	Reasoning   string
	Suggestions []domain.TimeSuggestion
}

// Optional AI tool-calling assistant.
//
// Implementations must terminate with a concrete permutation within a bounded
// number of tool rounds or return domain.ErrAssistantUnavailable; the caller
// then falls back to deterministic ordering.
type RouteAssistant interface {
	OptimizeRoute(ctx context.Context, req AssistantRequest) (*AssistantResult, error)
}
