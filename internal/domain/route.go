package domain

// Leg is the travel cost between two consecutive points in a route.
type Leg struct {
	DistanceMeters  int
	DurationMinutes int
}

// AppointmentStatus describes how a stop's arrival relates to its window.
type AppointmentStatus string

const (
	AppointmentOnTime    AppointmentStatus = "on_time"
	AppointmentEarlyWait AppointmentStatus = "early_wait"
	AppointmentLate      AppointmentStatus = "late"
	AppointmentNoWindow  AppointmentStatus = "no_window"
)

// LunchBreak records where the route's single lunch break was placed.
type LunchBreak struct {
	Start Clock
	End   Clock
}

// Stop is one scheduled visit, derived per planning run from a waypoint and
// its position in a route. Never persisted independently of its parent route.
type Stop struct {
	Order              int
	WaypointID         string
	EstimatedArrival   Clock
	WorkStart          Clock
	WorkEnd            Clock
	EstimatedDeparture Clock
	TravelMinutes      int
	WorkMinutes        int
	WaitMinutes        int
	DistanceMeters     int
	IsOvertime         bool
	LunchBreak         *LunchBreak
	AppointmentStatus  AppointmentStatus
}

// Route is an ordered visit sequence for one technician.
// Its stops are a permutation of exactly the waypoints assigned to it.
type Route struct {
	RouteNumber       int
	Stops             []Stop
	DistanceMeters    int
	TravelMinutes     int
	WorkMinutes       int
	StartTime         Clock
	EndTime           Clock
	OvertimeStopCount int
	NavigationURL     string
	Reasoning         string
	Suggestions       []TimeSuggestion
}

// BalanceMetrics reports workload spread across routes.
// CoefficientOfVariation is a percentage; IsBalanced holds iff it is at or
// under the configured target.
type BalanceMetrics struct {
	CoefficientOfVariation float64
	IsBalanced             bool
	Workloads              []float64
	MeanWorkload           float64
	StdDev                 float64
}

// PlanSummary aggregates all routes of one planning run.
type PlanSummary struct {
	TotalStops         int
	TotalDistanceM     int
	TotalTravelMinutes int
	TotalWorkMinutes   int
	LatestEndTime      Clock
	OvertimeStopCount  int
	Balance            BalanceMetrics
}

// RoutePlan is the complete result of one planning run.
type RoutePlan struct {
	Routes  []Route
	Summary PlanSummary
}

// TimeSuggestion is advisory assistant output proposing an appointment-time
// change. Never auto-applied.
type TimeSuggestion struct {
	WaypointID     string
	CurrentTime    string
	SuggestedTime  string
	Reason         string
	SavingsMinutes int
}
