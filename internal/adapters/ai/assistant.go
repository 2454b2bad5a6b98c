package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// maxToolRounds bounds the tool-calling conversation. An assistant that has
// not finalized within the budget is treated as unavailable and the caller
// falls back to deterministic ordering.
const maxToolRounds = 5

const systemPrompt = `You are a route planner for field-service technicians.
Order the given waypoints into a single efficient route from the depot,
respecting appointment windows. Use the tools to inspect distances and
verify timing, then call finalize_route exactly once with the complete
visiting order (every waypoint index exactly once) and your reasoning.`

// OpenAIAssistant implements the RouteAssistant port against any
// OpenAI-compatible chat completions endpoint.
type OpenAIAssistant struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	logger      zerolog.Logger
}

type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string // default gpt-4o-mini
	Temperature float64
}

func NewOpenAIAssistant(cfg Config, logger zerolog.Logger) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("assistant api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	return &OpenAIAssistant{
		session:     &http.Client{Timeout: 60 * time.Second},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// OptimizeRoute runs the bounded tool-calling loop. Any transport error,
// malformed reply, or exhausted budget maps to domain.ErrAssistantUnavailable
// so callers treat the assistant as absent rather than failing the plan.
func (a *OpenAIAssistant) OptimizeRoute(ctx context.Context, req ports.AssistantRequest) (*ports.AssistantResult, error) {
	exec := &toolExecutor{req: req}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: describeRoute(req)},
	}

	for round := 0; round < maxToolRounds; round++ {
		msg, err := a.complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
		}

		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			// Plain text without finalize burns a round; remind and continue.
			messages = append(messages, chatMessage{
				Role:    "user",
				Content: "Use the tools, and finish by calling finalize_route with the full order.",
			})
			continue
		}

		for _, tc := range msg.ToolCalls {
			call, err := parseToolCall(tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				a.logger.Warn().Err(err).Msg("assistant sent malformed tool call")
				messages = append(messages, toolResult(tc.ID, fmt.Sprintf("error: %v", err)))
				continue
			}

			if fin, ok := call.(finalizeArgs); ok {
				return &ports.AssistantResult{
					Order:       fin.Order,
					Reasoning:   fin.Reasoning,
					Suggestions: exec.suggestions,
				}, nil
			}

			messages = append(messages, toolResult(tc.ID, exec.execute(call)))
		}
	}

	return nil, fmt.Errorf("%w: no finalize within %d rounds", domain.ErrAssistantUnavailable, maxToolRounds)
}

func (a *OpenAIAssistant) complete(ctx context.Context, messages []chatMessage) (chatMessage, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       routeToolDefs(),
		Temperature: a.temperature,
		MaxTokens:   2000,
	})
	if err != nil {
		return chatMessage{}, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return chatMessage{}, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.session.Do(httpReq)
	if err != nil {
		return chatMessage{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chatMessage{}, fmt.Errorf("chat request: status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return chatMessage{}, fmt.Errorf("decode chat response: %w", err)
	}
	if decoded.Error != nil {
		return chatMessage{}, fmt.Errorf("chat response: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return chatMessage{}, fmt.Errorf("chat response has no choices")
	}

	return decoded.Choices[0].Message, nil
}

func toolResult(id, content string) chatMessage {
	return chatMessage{Role: "tool", ToolCallID: id, Content: content}
}

// describeRoute renders the planning inputs as the opening user message.
func describeRoute(req ports.AssistantRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Depot: %s at (%.5f, %.5f). Route starts at %s.\n\nWaypoints:\n",
		req.Depot.Name, req.Depot.Coordinates.Lat, req.Depot.Coordinates.Lng, req.StartTime)

	for i, wp := range req.Waypoints {
		fmt.Fprintf(&b, "[%d] %s (%.5f, %.5f), work %d min", i, wp.SiteName, wp.Coordinates.Lat, wp.Coordinates.Lng, wp.WorkDurationMinutes)
		if w := wp.Appointment; w != nil {
			fmt.Fprintf(&b, ", appointment %s-%s", w.Start, w.End)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// toolExecutor evaluates non-terminal tool calls against one route's inputs.
type toolExecutor struct {
	req         ports.AssistantRequest
	suggestions []domain.TimeSuggestion
}

func (e *toolExecutor) execute(call toolCall) string {
	switch args := call.(type) {
	case distanceArgs:
		return e.distance(args)
	case feasibilityArgs:
		return e.feasibility(args)
	case simulateArgs:
		return e.simulate(args)
	case suggestArgs:
		return e.suggest(args)
	default:
		return "error: unsupported tool"
	}
}

func (e *toolExecutor) coords(index int) (domain.Coordinates, bool) {
	if index == -1 {
		return e.req.Depot.Coordinates, true
	}
	if index < 0 || index >= len(e.req.Waypoints) {
		return domain.Coordinates{}, false
	}
	return e.req.Waypoints[index].Coordinates, true
}

func (e *toolExecutor) distance(args distanceArgs) string {
	from, okFrom := e.coords(args.FromIndex)
	to, okTo := e.coords(args.ToIndex)
	if !okFrom || !okTo {
		return "error: waypoint index out of range"
	}

	leg := domain.EstimateLeg(from, to)
	return fmt.Sprintf(`{"distance_meters": %d, "duration_minutes": %d}`, leg.DistanceMeters, leg.DurationMinutes)
}

func (e *toolExecutor) feasibility(args feasibilityArgs) string {
	if args.WaypointIndex < 0 || args.WaypointIndex >= len(e.req.Waypoints) {
		return "error: waypoint index out of range"
	}

	arrival, err := domain.ParseClock(args.ArrivalTime)
	if err != nil {
		return "error: arrival_time must be HH:MM"
	}

	w := e.req.Waypoints[args.WaypointIndex].Appointment
	if w == nil {
		return `{"feasible": true, "status": "no_window"}`
	}

	switch {
	case arrival.Before(w.Start):
		return fmt.Sprintf(`{"feasible": true, "status": "early_wait", "wait_minutes": %d}`, w.Start.Sub(arrival))
	case arrival.After(w.End):
		return fmt.Sprintf(`{"feasible": false, "status": "late", "late_minutes": %d}`, arrival.Sub(w.End))
	default:
		return `{"feasible": true, "status": "on_time"}`
	}
}

func (e *toolExecutor) simulate(args simulateArgs) string {
	if e.req.Simulate == nil {
		return "error: simulation unavailable"
	}

	stops := e.req.Simulate(args.Order)
	if stops == nil {
		return "error: order must be a permutation of all waypoint indices"
	}

	type stopView struct {
		WaypointID string `json:"waypoint_id"`
		Arrival    string `json:"arrival"`
		Departure  string `json:"departure"`
		Status     string `json:"appointment_status"`
		Overtime   bool   `json:"overtime"`
	}

	views := make([]stopView, len(stops))
	for i, s := range stops {
		views[i] = stopView{
			WaypointID: s.WaypointID,
			Arrival:    s.EstimatedArrival.String(),
			Departure:  s.EstimatedDeparture.String(),
			Status:     string(s.AppointmentStatus),
			Overtime:   s.IsOvertime,
		}
	}

	raw, err := json.Marshal(views)
	if err != nil {
		return "error: encode simulation"
	}
	return string(raw)
}

func (e *toolExecutor) suggest(args suggestArgs) string {
	if args.WaypointIndex < 0 || args.WaypointIndex >= len(e.req.Waypoints) {
		return "error: waypoint index out of range"
	}

	e.suggestions = append(e.suggestions, domain.TimeSuggestion{
		WaypointID:     e.req.Waypoints[args.WaypointIndex].ID,
		CurrentTime:    args.CurrentTime,
		SuggestedTime:  args.SuggestedTime,
		Reason:         args.Reason,
		SavingsMinutes: args.SavingsMinutes,
	})

	return `{"recorded": true}`
}
