package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/platform/db"
)

// dbtool initializes the Postgres schema and optionally loads seed data.
// It is meant for local development and CI database setup.
func main() {
	seedPath := flag.String("seed", "", "path to a JSON seed file (skipped when empty)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	if err := run(databaseURL, *seedPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("dbtool failed")
	}
}

func run(databaseURL, seedPath string, logger zerolog.Logger) error {
	conn, err := db.Open(databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info().Msg("initializing schema")
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization: %w", err)
	}

	if seedPath == "" {
		logger.Info().Msg("schema ready, no seed file given")
		return nil
	}

	logger.Info().Str("path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	logger.Info().Msg("seeding complete")

	return nil
}
