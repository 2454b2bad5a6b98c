package domain

// AppointmentWindow is the interval a site expects the technician to arrive in.
type AppointmentWindow struct {
	Start Clock
	End   Clock
}

// Waypoint is a single job site to be visited.
//
// Immutable planning input. Both coordinates must be present; the waypoint
// repository excludes records missing either, so planning code may rely on
// valid coordinates and never zero-fills.
type Waypoint struct {
	ID                  string
	Code                string
	SiteID              string
	SiteName            string
	Coordinates         Coordinates
	Address             string
	Appointment         *AppointmentWindow
	WorkTypeName        string
	WorkDurationMinutes int
}

// Depot is the fixed start (and conceptual end) of every route.
type Depot struct {
	ID          string
	Name        string
	Coordinates Coordinates
}
