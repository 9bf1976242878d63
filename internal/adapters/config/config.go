package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tripcast/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Artifacts     ArtifactsConfig
	Model         ModelConfig
	Region        RegionConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"tripcast"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`

	// Reload throttle guards the artifact store against scan storms from
	// operator retry loops
	ReloadPerMinute int `envconfig:"RELOAD_PER_MINUTE" default:"6"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

// Enabled reports whether a Postgres endpoint is configured. The serving core
// runs degraded (no trip stats, no prediction log) without one.
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	// TTL for prediction responses cached by feature vector
	PredictionTTL time.Duration `envconfig:"REDIS_PREDICTION_TTL" default:"5m"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// ArtifactsConfig locates the trained model artifact store
type ArtifactsConfig struct {
	// StoreRoot is the directory scanned for candidate model artifacts
	// (one subdirectory per artifact, payload under <dir>/artifacts)
	StoreRoot string `envconfig:"ARTIFACT_STORE_ROOT" default:"./data/models"`

	// RegistryRoot is the run registry used by the registry loading strategy
	// (<root>/<run_id>/artifacts/<payload>)
	RegistryRoot string `envconfig:"ARTIFACT_REGISTRY_ROOT" default:"./data/runs"`

	// LoadAttemptTimeout bounds each individual loading strategy attempt so a
	// corrupt artifact cannot stall resolution
	LoadAttemptTimeout time.Duration `envconfig:"MODEL_LOAD_ATTEMPT_TIMEOUT" default:"15s"`
}

// ModelConfig carries the prediction constants. The fallback rate and the
// confidence values are configuration, not model facts.
type ModelConfig struct {
	BaseConfidence      float64 `envconfig:"MODEL_BASE_CONFIDENCE" default:"0.85"`
	RushHourConfidence  float64 `envconfig:"MODEL_RUSH_HOUR_CONFIDENCE" default:"0.75"`
	LongTripPenalty     float64 `envconfig:"MODEL_LONG_TRIP_PENALTY" default:"0.9"`
	LongTripThresholdKm float64 `envconfig:"MODEL_LONG_TRIP_THRESHOLD_KM" default:"50"`

	FallbackMinutesPerKm float64 `envconfig:"FALLBACK_MINUTES_PER_KM" default:"3.0"`
	FallbackConfidence   float64 `envconfig:"FALLBACK_CONFIDENCE" default:"0.5"`
}

// RegionConfig bounds the serviceable area. Defaults cover NYC.
type RegionConfig struct {
	MinLatitude  float64 `envconfig:"REGION_MIN_LAT" default:"40.5"`
	MaxLatitude  float64 `envconfig:"REGION_MAX_LAT" default:"40.9"`
	MinLongitude float64 `envconfig:"REGION_MIN_LON" default:"-74.3"`
	MaxLongitude float64 `envconfig:"REGION_MAX_LON" default:"-73.7"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	// ModelRefresh re-resolves the best artifact and reloads when it changed
	ModelRefreshInterval time.Duration `envconfig:"WORKER_MODEL_REFRESH_INTERVAL" default:"5m"`
	ModelRefreshEnabled  bool          `envconfig:"WORKER_MODEL_REFRESH_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
