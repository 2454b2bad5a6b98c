package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the Postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGaragesQuery := `
	CREATE TABLE IF NOT EXISTS garages (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat  DOUBLE PRECISION,
		lng  DOUBLE PRECISION
	);
	`

	createWaypointsQuery := `
	CREATE TABLE IF NOT EXISTS waypoints (
		id                    TEXT PRIMARY KEY,
		code                  TEXT NOT NULL DEFAULT '',
		site_id               TEXT NOT NULL DEFAULT '',
		site_name             TEXT NOT NULL DEFAULT '',
		lat                   DOUBLE PRECISION,
		lng                   DOUBLE PRECISION,
		address               TEXT NOT NULL DEFAULT '',
		appointment_start     TEXT,
		appointment_end       TEXT,
		work_type             TEXT NOT NULL DEFAULT '',
		work_duration_minutes INTEGER NOT NULL DEFAULT 30,
		scheduled_date        TEXT
	);
	`

	createJobsQuery := `
	CREATE TABLE IF NOT EXISTS planning_jobs (
		id            TEXT PRIMARY KEY,
		status        TEXT NOT NULL,
		request       JSONB NOT NULL,
		result        JSONB,
		error_message TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		started_at    TIMESTAMPTZ,
		completed_at  TIMESTAMPTZ
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_waypoints_scheduled_date
	ON waypoints(scheduled_date);
	`

	statements := []string{
		createGaragesQuery,
		createWaypointsQuery,
		createJobsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type GarageSeed struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type WaypointSeed struct {
	ID                  string   `json:"id"`
	Code                string   `json:"code"`
	SiteID              string   `json:"site_id"`
	SiteName            string   `json:"site_name"`
	Lat                 *float64 `json:"lat"`
	Lng                 *float64 `json:"lng"`
	Address             string   `json:"address"`
	AppointmentStart    *string  `json:"appointment_start"`
	AppointmentEnd      *string  `json:"appointment_end"`
	WorkType            string   `json:"work_type"`
	WorkDurationMinutes int      `json:"work_duration_minutes"`
	ScheduledDate       string   `json:"scheduled_date"`
}

type SeedFile struct {
	Garages   []GarageSeed   `json:"garages"`
	Waypoints []WaypointSeed `json:"waypoints"`
}

// Populate the database with demo data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	garageQuery := `
	INSERT INTO garages (id, name, lat, lng)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET name = $2, lat = $3, lng = $4;
	`
	for i, g := range data.Garages {
		if strings.TrimSpace(g.ID) == "" {
			return fmt.Errorf("seed: garage at index %d: id cannot be empty", i)
		}
		if _, err := tx.Exec(garageQuery, g.ID, g.Name, g.Lat, g.Lng); err != nil {
			return fmt.Errorf("seed: insert garage %q: %w", g.ID, err)
		}
	}

	waypointQuery := `
	INSERT INTO waypoints (
		id, code, site_id, site_name, lat, lng, address,
		appointment_start, appointment_end, work_type, work_duration_minutes, scheduled_date
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING;
	`
	for i, wp := range data.Waypoints {
		if strings.TrimSpace(wp.ID) == "" {
			return fmt.Errorf("seed: waypoint at index %d: id cannot be empty", i)
		}
		if wp.WorkDurationMinutes <= 0 {
			return fmt.Errorf("seed: waypoint %q: work_duration_minutes must be positive", wp.ID)
		}

		_, err := tx.Exec(waypointQuery,
			wp.ID, wp.Code, wp.SiteID, wp.SiteName, wp.Lat, wp.Lng, wp.Address,
			wp.AppointmentStart, wp.AppointmentEnd, wp.WorkType, wp.WorkDurationMinutes, wp.ScheduledDate,
		)
		if err != nil {
			return fmt.Errorf("seed: insert waypoint %q: %w", wp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
