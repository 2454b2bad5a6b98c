package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"field-route-service/internal/adapters/ai"
	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/adapters/routing"
	"field-route-service/internal/api"
	"field-route-service/internal/config"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/ports"
	"field-route-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (Postgres, Redis, Longdo, OpenAI) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema on startup; seed demo data only when configured.
	if err := repositories.InitSchema(conn); err != nil {
		return err
	}
	if cfg.Database.SeedPath != "" {
		if err := repositories.SeedFromJSON(conn, cfg.Database.SeedPath); err != nil {
			return err
		}
	}

	var legCache ports.LegCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, leg cache disabled")
		} else {
			legCache = cache.NewRedisLegCache(client)
		}
	}

	var provider ports.RoutingProvider
	if cfg.Routing.APIKey != "" {
		longdo, err := routing.NewLongdoProvider(cfg.Routing.APIKey, legCache, logger)
		if err != nil {
			return err
		}
		provider = longdo
	} else {
		logger.Warn().Msg("no routing api key, using distance estimates")
	}

	var assistant ports.RouteAssistant
	if cfg.AI.APIKey != "" {
		openai, err := ai.NewOpenAIAssistant(ai.Config{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
		}, logger)
		if err != nil {
			return err
		}
		assistant = openai
	}

	repo := repositories.NewPostgresWaypointRepository(conn, logger)
	jobStore := repositories.NewPostgresJobStore(conn)

	optimizer := services.NewRouteOptimizer(provider, assistant, logger)
	planner := services.NewPlanner(repo, optimizer, logger)
	planner.TargetCV = cfg.Planning.TargetCV
	runner := services.NewJobRunner(jobStore, planner, logger)

	router := api.NewRouter(planner, runner, logger, cfg.Server.AllowedOrigins)

	// Write timeout is generous: synchronous planning can wait on external
	// routing and assistant calls.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	// Let in-flight planning jobs reach a terminal state before exit.
	runner.Wait()
	logger.Info().Msg("shutdown complete")

	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("app", "field-route-service").Logger()
}
