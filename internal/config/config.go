// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Weather WeatherConfig
	AI      AIConfig
	Auth    AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `envconfig:"OMARA_ADDR" default:":8080"`
	LogFile         string        `envconfig:"OMARA_LOG_FILE" default:""`
	ShutdownTimeout time.Duration `envconfig:"OMARA_SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig selects and locates the wardrobe backend and image directory.
type StorageConfig struct {
	Backend      string `envconfig:"OMARA_STORAGE_BACKEND" default:"sqlite"` // sqlite or json
	DBPath       string `envconfig:"OMARA_DB_PATH" default:"omara.sqlite3"`
	DocumentPath string `envconfig:"OMARA_DOCUMENT_PATH" default:"wardrobe.json"`
	ImageDir     string `envconfig:"OMARA_IMAGE_DIR" default:"images"`
}

// WeatherConfig holds the forecast endpoint and the deployment's location.
type WeatherConfig struct {
	URL       string        `envconfig:"OMARA_WEATHER_URL" default:"https://api.open-meteo.com/v1/forecast"`
	Latitude  float64       `envconfig:"OMARA_LATITUDE" default:"25.0330"`
	Longitude float64       `envconfig:"OMARA_LONGITUDE" default:"121.5654"`
	Timeout   time.Duration `envconfig:"OMARA_WEATHER_TIMEOUT" default:"5s"`
	Fallback  float64       `envconfig:"OMARA_WEATHER_FALLBACK" default:"25"`
}

// AIConfig holds the image classification settings. An empty key disables
// classification.
type AIConfig struct {
	APIKey  string        `envconfig:"OMARA_AI_API_KEY" default:""`
	Model   string        `envconfig:"OMARA_AI_MODEL" default:""`
	BaseURL string        `envconfig:"OMARA_AI_BASE_URL" default:""`
	Timeout time.Duration `envconfig:"OMARA_AI_TIMEOUT" default:"30s"`
}

// AuthConfig holds token and session settings.
type AuthConfig struct {
	JWTSecret  string        `envconfig:"OMARA_JWT_SECRET" default:""`
	SessionTTL time.Duration `envconfig:"OMARA_SESSION_TTL" default:"24h"`
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.Storage.Backend, BackendSQLite, BackendJSON)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Weather.Longitude)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
