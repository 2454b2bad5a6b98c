package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
)

// Postgres-backed implementation of the WaypointRepository port.
//
// Records missing either coordinate are excluded with a warning rather than
// failing the fetch; planning code relies on every returned waypoint having
// valid coordinates.
type PostgresWaypointRepository struct {
	DB     *sql.DB
	Logger zerolog.Logger
}

func NewPostgresWaypointRepository(db *sql.DB, logger zerolog.Logger) *PostgresWaypointRepository {
	return &PostgresWaypointRepository{DB: db, Logger: logger}
}

func (r *PostgresWaypointRepository) GetDepot(ctx context.Context, id string) (*domain.Depot, error) {
	query := `
	SELECT id, name, lat, lng
	FROM garages
	WHERE id = $1;
	`

	var depot domain.Depot
	var lat, lng sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&depot.ID, &depot.Name, &lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDepotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get depot: query garages: %w", err)
	}

	if !lat.Valid || !lng.Valid {
		return nil, fmt.Errorf("get depot %q: depot has no coordinates", id)
	}
	depot.Coordinates = domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}

	return &depot, nil
}

func (r *PostgresWaypointRepository) GetWaypointsForDate(ctx context.Context, date string) ([]domain.Waypoint, error) {
	query := waypointSelect + `
	WHERE scheduled_date = $1
	ORDER BY id;
	`

	rows, err := r.DB.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get waypoints for date %q: query: %w", date, err)
	}
	defer rows.Close()

	return r.scanWaypoints(rows)
}

func (r *PostgresWaypointRepository) GetWaypointsByIDs(ctx context.Context, ids []string) ([]domain.Waypoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := waypointSelect + `
	WHERE id IN (` + strings.Join(placeholders, ", ") + `)
	ORDER BY id;
	`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get waypoints by ids: query: %w", err)
	}
	defer rows.Close()

	return r.scanWaypoints(rows)
}

const waypointSelect = `
	SELECT
		id, code, site_id, site_name,
		lat, lng, address,
		appointment_start, appointment_end,
		work_type, work_duration_minutes
	FROM waypoints`

func (r *PostgresWaypointRepository) scanWaypoints(rows *sql.Rows) ([]domain.Waypoint, error) {
	waypoints := make([]domain.Waypoint, 0, 64)

	for rows.Next() {
		var wp domain.Waypoint
		var lat, lng sql.NullFloat64
		var apptStart, apptEnd sql.NullString

		err := rows.Scan(
			&wp.ID, &wp.Code, &wp.SiteID, &wp.SiteName,
			&lat, &lng, &wp.Address,
			&apptStart, &apptEnd,
			&wp.WorkTypeName, &wp.WorkDurationMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan waypoint row: %w", err)
		}

		if !lat.Valid || !lng.Valid {
			r.Logger.Warn().Str("waypoint_id", wp.ID).Msg("waypoint missing coordinates, excluded from planning")
			continue
		}
		wp.Coordinates = domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}

		if apptStart.Valid && apptEnd.Valid {
			start, errS := domain.ParseClock(apptStart.String)
			end, errE := domain.ParseClock(apptEnd.String)
			if errS != nil || errE != nil {
				r.Logger.Warn().Str("waypoint_id", wp.ID).Msg("waypoint has malformed appointment window, treated as none")
			} else {
				wp.Appointment = &domain.AppointmentWindow{Start: start, End: end}
			}
		}

		waypoints = append(waypoints, wp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("waypoint row iteration: %w", err)
	}

	return waypoints, nil
}
