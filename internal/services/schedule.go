package services

import "field-route-service/internal/domain"

// LunchConfig is the fixed daily lunch window, inserted at most once per route.
type LunchConfig struct {
	Start domain.Clock
	End   domain.Clock
}

// DefaultLunch is the standard 12:00-13:00 break.
var DefaultLunch = LunchConfig{
	Start: domain.MustClock("12:00"),
	End:   domain.MustClock("13:00"),
}

// EndOfDay is the boundary after which a stop's departure counts as overtime.
var EndOfDay = domain.MustClock("17:30")

// minLunchSliceMinutes is the smallest work segment worth keeping on one side
// of the lunch window. A job spanning lunch is split unless both the pre-lunch
// and post-lunch segments would fall under it, in which case lunch comes first
// and the job runs whole afterwards.
const minLunchSliceMinutes = 15

// SimulateStops computes arrival, work and departure times for an ordered
// visit sequence. legs[i] is the travel leg into waypoints[i].
//
// Appointment handling: arriving before a window waits for it to open;
// arriving after its end is reported on the stop as late, never corrected and
// never aborting the route. Overtime is flagged per stop; reacting to it is
// the caller's decision.
func SimulateStops(waypoints []domain.Waypoint, legs []domain.Leg, startTime domain.Clock, lunch LunchConfig) []domain.Stop {
	stops := make([]domain.Stop, 0, len(waypoints))

	current := startTime
	lunchTaken := false

	for i, wp := range waypoints {
		var leg domain.Leg
		if i < len(legs) {
			leg = legs[i]
		}

		arrival := current.Add(leg.DurationMinutes)
		workStart := arrival
		wait := 0
		status := domain.AppointmentNoWindow

		if w := wp.Appointment; w != nil {
			switch {
			case arrival.Before(w.Start):
				wait = w.Start.Sub(arrival)
				workStart = w.Start
				status = domain.AppointmentEarlyWait
			case arrival.After(w.End):
				status = domain.AppointmentLate
			default:
				status = domain.AppointmentOnTime
			}
		}

		work := wp.WorkDurationMinutes
		workEnd := workStart.Add(work)
		var lunchBreak *domain.LunchBreak

		if !lunchTaken {
			switch {
			case !workStart.Before(lunch.Start) && workStart.Before(lunch.End):
				// Arrived inside the window: break now, work after.
				lunchBreak = &domain.LunchBreak{Start: workStart, End: lunch.End}
				workStart = lunch.End
				workEnd = workStart.Add(work)
				lunchTaken = true

			case workStart.Before(lunch.Start) && workEnd.After(lunch.Start):
				before := lunch.Start.Sub(workStart)
				remainder := work - before

				lunchBreak = &domain.LunchBreak{Start: lunch.Start, End: lunch.End}
				lunchTaken = true

				if before >= minLunchSliceMinutes || remainder >= minLunchSliceMinutes {
					// Split: work up to the window, resume after.
					workEnd = lunch.End.Add(remainder)
				} else {
					// Both slivers too small: idle into lunch, run whole after.
					wait += before
					workStart = lunch.End
					workEnd = workStart.Add(work)
				}
			}
		}

		departure := workEnd

		stops = append(stops, domain.Stop{
			Order:              i + 1,
			WaypointID:         wp.ID,
			EstimatedArrival:   arrival,
			WorkStart:          workStart,
			WorkEnd:            workEnd,
			EstimatedDeparture: departure,
			TravelMinutes:      leg.DurationMinutes,
			WorkMinutes:        work,
			WaitMinutes:        wait,
			DistanceMeters:     leg.DistanceMeters,
			IsOvertime:         departure.After(EndOfDay),
			LunchBreak:         lunchBreak,
			AppointmentStatus:  status,
		})

		current = departure
	}

	return stops
}
