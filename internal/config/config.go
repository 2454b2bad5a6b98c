package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Routing  RoutingConfig
	AI       AIConfig
	Planning PlanningConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	LogLevel       string
}

type DatabaseConfig struct {
	URL      string
	SeedPath string
}

// RedisConfig enables the leg cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RoutingConfig enables the external routing provider when APIKey is set;
// without it the planner runs on haversine estimates.
type RoutingConfig struct {
	APIKey string
}

// PlanningConfig tunes the planner's balance target.
type PlanningConfig struct {
	// TargetCV is the workload coefficient-of-variation target in percent.
	TargetCV float64
}

// AIConfig enables the route assistant when APIKey is set.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func Load() (*Config, error) {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid REDIS_DB: %w", err)
	}

	targetCV, err := strconv.ParseFloat(getEnv("PLANNING_TARGET_CV", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("config: invalid PLANNING_TARGET_CV: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(dbURL) == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}

	return &Config{
		Server: ServerConfig{
			Port:           port,
			AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:      dbURL,
			SeedPath: os.Getenv("SEED_PATH"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Routing: RoutingConfig{
			APIKey: os.Getenv("ROUTING_API_KEY"),
		},
		AI: AIConfig{
			APIKey:  os.Getenv("AI_API_KEY"),
			BaseURL: os.Getenv("AI_BASE_URL"),
			Model:   os.Getenv("AI_MODEL"),
		},
		Planning: PlanningConfig{
			TargetCV: targetCV,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
