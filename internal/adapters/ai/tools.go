package ai

import (
	"encoding/json"
	"fmt"
)

// The assistant's action surface is a closed set of tool calls with explicit
// argument structs; unknown names or malformed arguments are rejected rather
// than dispatched by string.

const (
	toolDistance    = "distance_between"
	toolFeasibility = "check_time_feasibility"
	toolSimulate    = "simulate_route"
	toolSuggest     = "suggest_time_change"
	toolFinalize    = "finalize_route"
)

type toolCall interface{ isToolCall() }

// distanceArgs asks for the travel cost between two waypoints; index -1 is
// the depot.
type distanceArgs struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// feasibilityArgs asks whether arriving at a waypoint at the given time
// satisfies its appointment window.
type feasibilityArgs struct {
	WaypointIndex int    `json:"waypoint_index"`
	ArrivalTime   string `json:"arrival_time"`
}

// simulateArgs asks for a full timing simulation of a candidate ordering.
type simulateArgs struct {
	Order []int `json:"order"`
}

// suggestArgs records an advisory appointment-time change.
type suggestArgs struct {
	WaypointIndex  int    `json:"waypoint_index"`
	CurrentTime    string `json:"current_time"`
	SuggestedTime  string `json:"suggested_time"`
	Reason         string `json:"reason"`
	SavingsMinutes int    `json:"savings_minutes"`
}

// finalizeArgs terminates the session with a concrete permutation.
type finalizeArgs struct {
	Order     []int  `json:"order"`
	Reasoning string `json:"reasoning"`
}

func (distanceArgs) isToolCall()    {}
func (feasibilityArgs) isToolCall() {}
func (simulateArgs) isToolCall()    {}
func (suggestArgs) isToolCall()     {}
func (finalizeArgs) isToolCall()    {}

func parseToolCall(name, arguments string) (toolCall, error) {
	switch name {
	case toolDistance:
		var args distanceArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("parse %s arguments: %w", name, err)
		}
		return args, nil
	case toolFeasibility:
		var args feasibilityArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("parse %s arguments: %w", name, err)
		}
		return args, nil
	case toolSimulate:
		var args simulateArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("parse %s arguments: %w", name, err)
		}
		return args, nil
	case toolSuggest:
		var args suggestArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("parse %s arguments: %w", name, err)
		}
		return args, nil
	case toolFinalize:
		var args finalizeArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("parse %s arguments: %w", name, err)
		}
		return args, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

func mustParams(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

type paramSchema struct {
	Type       string                `json:"type"`
	Properties map[string]paramField `json:"properties"`
	Required   []string              `json:"required,omitempty"`
}

type paramField struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Items       *paramField `json:"items,omitempty"`
}

func routeToolDefs() []toolDef {
	intField := func(desc string) paramField { return paramField{Type: "integer", Description: desc} }
	strField := func(desc string) paramField { return paramField{Type: "string", Description: desc} }
	orderField := paramField{
		Type:        "array",
		Description: "zero-based waypoint indices in visit order",
		Items:       &paramField{Type: "integer"},
	}

	return []toolDef{
		{Type: "function", Function: functionDef{
			Name:        toolDistance,
			Description: "Travel distance and duration between two waypoints. Index -1 is the depot.",
			Parameters: mustParams(paramSchema{
				Type: "object",
				Properties: map[string]paramField{
					"from_index": intField("origin waypoint index, -1 for depot"),
					"to_index":   intField("destination waypoint index"),
				},
				Required: []string{"from_index", "to_index"},
			}),
		}},
		{Type: "function", Function: functionDef{
			Name:        toolFeasibility,
			Description: "Check an arrival time (HH:MM) against a waypoint's appointment window.",
			Parameters: mustParams(paramSchema{
				Type: "object",
				Properties: map[string]paramField{
					"waypoint_index": intField("waypoint index"),
					"arrival_time":   strField("arrival time, HH:MM"),
				},
				Required: []string{"waypoint_index", "arrival_time"},
			}),
		}},
		{Type: "function", Function: functionDef{
			Name:        toolSimulate,
			Description: "Simulate the full schedule for a candidate visiting order.",
			Parameters: mustParams(paramSchema{
				Type:       "object",
				Properties: map[string]paramField{"order": orderField},
				Required:   []string{"order"},
			}),
		}},
		{Type: "function", Function: functionDef{
			Name:        toolSuggest,
			Description: "Record an advisory appointment-time change suggestion (never auto-applied).",
			Parameters: mustParams(paramSchema{
				Type: "object",
				Properties: map[string]paramField{
					"waypoint_index":  intField("waypoint index"),
					"current_time":    strField("current appointment time, HH:MM"),
					"suggested_time":  strField("suggested appointment time, HH:MM"),
					"reason":          strField("why the change helps"),
					"savings_minutes": intField("estimated minutes saved"),
				},
				Required: []string{"waypoint_index", "suggested_time", "reason"},
			}),
		}},
		{Type: "function", Function: functionDef{
			Name:        toolFinalize,
			Description: "Finish with the chosen visiting order and your reasoning. Must be called exactly once to end the session.",
			Parameters: mustParams(paramSchema{
				Type: "object",
				Properties: map[string]paramField{
					"order":     orderField,
					"reasoning": strField("free-text explanation of the ordering"),
				},
				Required: []string{"order", "reasoning"},
			}),
		}},
	}
}
