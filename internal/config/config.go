package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Planner configuration
	Planner PlannerConfig

	// Route dataset configuration
	Dataset DatasetConfig

	// Search cache configuration
	Cache CacheConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port             string
	Environment      string // development, staging, production
	LogLevel         string // debug, info, warn, error
	EnableRequestLog bool
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // "postgres" or "sqlite"
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// PlannerConfig holds the itinerary search defaults
type PlannerConfig struct {
	MinTransferMinutes int
	LayoverCapsEnabled bool
	DayCapMinutes      int
	NightCapMinutes    int
	DayStart           string // HH:MM, first daytime arrival
	DayEnd             string // HH:MM, first night arrival
	DefaultMaxStops    int
	ResultLimit        int
}

// DatasetConfig controls where the route catalog comes from
type DatasetConfig struct {
	Source     string // "database" or "csv"
	CSVPath    string
	ReloadCron string // six-field cron spec, empty disables scheduled reloads
}

// CacheConfig holds search cache configuration
type CacheConfig struct {
	RedisURL string // empty disables the cache
	TTL      time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	defaultURL := ""
	if driver == "sqlite" {
		defaultURL = "railway.db"
	}

	config := &Config{
		Server: ServerConfig{
			Port:             getEnv("PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
		Database: DatabaseConfig{
			Driver:             driver,
			URL:                getEnv("DATABASE_URL", defaultURL),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Planner: PlannerConfig{
			MinTransferMinutes: getEnvAsInt("MIN_TRANSFER_MINUTES", planner.DefaultMinTransferMinutes),
			LayoverCapsEnabled: getEnvAsBool("LAYOVER_CAPS_ENABLED", true),
			DayCapMinutes:      getEnvAsInt("LAYOVER_DAY_CAP_MINUTES", planner.DefaultDayCapMinutes),
			NightCapMinutes:    getEnvAsInt("LAYOVER_NIGHT_CAP_MINUTES", planner.DefaultNightCapMinutes),
			DayStart:           getEnv("LAYOVER_DAY_START", "06:00"),
			DayEnd:             getEnv("LAYOVER_DAY_END", "22:00"),
			DefaultMaxStops:    getEnvAsInt("DEFAULT_MAX_STOPS", planner.MaxStopsLimit),
			ResultLimit:        getEnvAsInt("SEARCH_RESULT_LIMIT", 50),
		},
		Dataset: DatasetConfig{
			Source:     strings.ToLower(getEnv("ROUTES_SOURCE", "database")),
			CSVPath:    getEnv("ROUTES_CSV_PATH", ""),
			ReloadCron: getEnv("ROUTES_RELOAD_CRON", ""),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      time.Duration(getEnvAsInt("SEARCH_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'sqlite')", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Dataset.Source {
	case "database":
	case "csv":
		if c.Dataset.CSVPath == "" {
			return fmt.Errorf("ROUTES_CSV_PATH is required when ROUTES_SOURCE is csv")
		}
	default:
		return fmt.Errorf("invalid ROUTES_SOURCE: %s (must be 'database' or 'csv')", c.Dataset.Source)
	}

	if c.Planner.DefaultMaxStops < 0 || c.Planner.DefaultMaxStops > planner.MaxStopsLimit {
		return fmt.Errorf("DEFAULT_MAX_STOPS must be between 0 and %d", planner.MaxStopsLimit)
	}

	if _, err := c.Planner.LayoverPolicy(); err != nil {
		return err
	}

	return nil
}

// LayoverPolicy builds the default layover policy from configuration
func (p PlannerConfig) LayoverPolicy() (planner.LayoverPolicy, error) {
	if p.MinTransferMinutes < 0 {
		return planner.LayoverPolicy{}, fmt.Errorf("MIN_TRANSFER_MINUTES cannot be negative")
	}
	if p.DayCapMinutes < 0 || p.NightCapMinutes < 0 {
		return planner.LayoverPolicy{}, fmt.Errorf("layover caps cannot be negative")
	}

	dayStart, err := timetable.ParseTime(p.DayStart)
	if err != nil {
		return planner.LayoverPolicy{}, fmt.Errorf("invalid LAYOVER_DAY_START: %w", err)
	}
	dayEnd, err := timetable.ParseTime(p.DayEnd)
	if err != nil {
		return planner.LayoverPolicy{}, fmt.Errorf("invalid LAYOVER_DAY_END: %w", err)
	}

	return planner.LayoverPolicy{
		MinTransfer: p.MinTransferMinutes,
		Capped:      p.LayoverCapsEnabled,
		DayCap:      p.DayCapMinutes,
		NightCap:    p.NightCapMinutes,
		DayStart:    dayStart,
		DayEnd:      dayEnd,
	}, nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
