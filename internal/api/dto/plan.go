package dto

import "field-route-service/internal/domain"

// PlanRequest is the planning request body shared by the synchronous and
// asynchronous endpoints. Exactly one of date or waypoint_ids selects the
// working set.
type PlanRequest struct {
	Date          string   `json:"date,omitempty"`
	WaypointIDs   []string `json:"waypoint_ids,omitempty"`
	DepotID       string   `json:"depot_id"`
	MaxPerRoute   int      `json:"max_per_route,omitempty"`   // default 10
	StartTime     string   `json:"start_time,omitempty"`      // HH:MM, default 08:00
	AllowOvertime *bool    `json:"allow_overtime,omitempty"`  // default true
	BalanceMode   string   `json:"balance_mode,omitempty"`    // default "balanced"
	SplitRoutes   bool     `json:"split_routes,omitempty"`
}

// ToDomain converts the body to the versioned job payload. Start time parse
// errors surface as validation failures.
func (r PlanRequest) ToDomain() (domain.PlanRequest, error) {
	req := domain.PlanRequest{
		Date:          r.Date,
		WaypointIDs:   r.WaypointIDs,
		DepotID:       r.DepotID,
		MaxPerRoute:   r.MaxPerRoute,
		AllowOvertime: true,
		BalanceMode:   domain.BalanceMode(r.BalanceMode),
		SplitRoutes:   r.SplitRoutes,
	}

	if r.AllowOvertime != nil {
		req.AllowOvertime = *r.AllowOvertime
	}

	if r.StartTime != "" {
		start, err := domain.ParseClock(r.StartTime)
		if err != nil {
			return domain.PlanRequest{}, domain.NewValidationError("start_time", "must be HH:MM")
		}
		req.StartTime = start
	}

	return req, nil
}

type LunchBreakResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type StopResponse struct {
	Order              int                 `json:"order"`
	WaypointID         string              `json:"waypoint_id"`
	EstimatedArrival   string              `json:"estimated_arrival"`
	WorkStart          string              `json:"work_start"`
	WorkEnd            string              `json:"work_end"`
	EstimatedDeparture string              `json:"estimated_departure"`
	TravelMinutes      int                 `json:"travel_minutes"`
	WorkMinutes        int                 `json:"work_minutes"`
	WaitMinutes        int                 `json:"wait_minutes"`
	DistanceMeters     int                 `json:"distance_meters"`
	IsOvertime         bool                `json:"is_overtime"`
	LunchBreak         *LunchBreakResponse `json:"lunch_break,omitempty"`
	AppointmentStatus  string              `json:"appointment_status"`
}

type TimeSuggestionResponse struct {
	WaypointID     string `json:"waypoint_id"`
	CurrentTime    string `json:"current_time,omitempty"`
	SuggestedTime  string `json:"suggested_time"`
	Reason         string `json:"reason"`
	SavingsMinutes int    `json:"savings_minutes,omitempty"`
}

type RouteResponse struct {
	RouteNumber       int                      `json:"route_number"`
	Stops             []StopResponse           `json:"stops"`
	DistanceMeters    int                      `json:"distance_meters"`
	TravelMinutes     int                      `json:"travel_minutes"`
	WorkMinutes       int                      `json:"work_minutes"`
	StartTime         string                   `json:"start_time"`
	EndTime           string                   `json:"end_time"`
	OvertimeStopCount int                      `json:"overtime_stop_count"`
	NavigationURL     string                   `json:"navigation_url,omitempty"`
	Reasoning         string                   `json:"reasoning,omitempty"`
	Suggestions       []TimeSuggestionResponse `json:"suggestions,omitempty"`
}

type BalanceMetricsResponse struct {
	CoefficientOfVariation float64   `json:"coefficient_of_variation"`
	IsBalanced             bool      `json:"is_balanced"`
	Workloads              []float64 `json:"workloads"`
	MeanWorkload           float64   `json:"mean_workload"`
	StdDev                 float64   `json:"std_dev"`
}

type SummaryResponse struct {
	TotalStops         int                    `json:"total_stops"`
	TotalDistanceM     int                    `json:"total_distance_meters"`
	TotalTravelMinutes int                    `json:"total_travel_minutes"`
	TotalWorkMinutes   int                    `json:"total_work_minutes"`
	LatestEndTime      string                 `json:"latest_end_time"`
	OvertimeStopCount  int                    `json:"overtime_stop_count"`
	Balance            BalanceMetricsResponse `json:"balance"`
}

type PlanResponse struct {
	Routes  []RouteResponse `json:"routes"`
	Summary SummaryResponse `json:"summary"`
}

func NewPlanResponse(plan *domain.RoutePlan) PlanResponse {
	routes := make([]RouteResponse, 0, len(plan.Routes))
	for _, r := range plan.Routes {
		routes = append(routes, newRouteResponse(r))
	}

	s := plan.Summary
	return PlanResponse{
		Routes: routes,
		Summary: SummaryResponse{
			TotalStops:         s.TotalStops,
			TotalDistanceM:     s.TotalDistanceM,
			TotalTravelMinutes: s.TotalTravelMinutes,
			TotalWorkMinutes:   s.TotalWorkMinutes,
			LatestEndTime:      s.LatestEndTime.String(),
			OvertimeStopCount:  s.OvertimeStopCount,
			Balance: BalanceMetricsResponse{
				CoefficientOfVariation: s.Balance.CoefficientOfVariation,
				IsBalanced:             s.Balance.IsBalanced,
				Workloads:              s.Balance.Workloads,
				MeanWorkload:           s.Balance.MeanWorkload,
				StdDev:                 s.Balance.StdDev,
			},
		},
	}
}

func newRouteResponse(r domain.Route) RouteResponse {
	stops := make([]StopResponse, 0, len(r.Stops))
	for _, s := range r.Stops {
		stop := StopResponse{
			Order:              s.Order,
			WaypointID:         s.WaypointID,
			EstimatedArrival:   s.EstimatedArrival.String(),
			WorkStart:          s.WorkStart.String(),
			WorkEnd:            s.WorkEnd.String(),
			EstimatedDeparture: s.EstimatedDeparture.String(),
			TravelMinutes:      s.TravelMinutes,
			WorkMinutes:        s.WorkMinutes,
			WaitMinutes:        s.WaitMinutes,
			DistanceMeters:     s.DistanceMeters,
			IsOvertime:         s.IsOvertime,
			AppointmentStatus:  string(s.AppointmentStatus),
		}
		if s.LunchBreak != nil {
			stop.LunchBreak = &LunchBreakResponse{
				Start: s.LunchBreak.Start.String(),
				End:   s.LunchBreak.End.String(),
			}
		}
		stops = append(stops, stop)
	}

	suggestions := make([]TimeSuggestionResponse, 0, len(r.Suggestions))
	for _, sg := range r.Suggestions {
		suggestions = append(suggestions, TimeSuggestionResponse{
			WaypointID:     sg.WaypointID,
			CurrentTime:    sg.CurrentTime,
			SuggestedTime:  sg.SuggestedTime,
			Reason:         sg.Reason,
			SavingsMinutes: sg.SavingsMinutes,
		})
	}

	return RouteResponse{
		RouteNumber:       r.RouteNumber,
		Stops:             stops,
		DistanceMeters:    r.DistanceMeters,
		TravelMinutes:     r.TravelMinutes,
		WorkMinutes:       r.WorkMinutes,
		StartTime:         r.StartTime.String(),
		EndTime:           r.EndTime.String(),
		OvertimeStopCount: r.OvertimeStopCount,
		NavigationURL:     r.NavigationURL,
		Reasoning:         r.Reasoning,
		Suggestions:       suggestions,
	}
}
