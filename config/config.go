// Package config loads service configuration from the environment.
// A .env file in the working directory is read first when present;
// real environment variables always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Mongo     MongoConfig
	Session   SessionConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// MongoConfig describes the document store holding users and sessions.
type MongoConfig struct {
	URI           string
	Database      string
	Timeout       string
	EnsureIndexes bool
}

// SessionConfig controls session token issuance and storage.
type SessionConfig struct {
	Secret string
	// TTL, when non-empty, provisions a TTL index on sessions.issued_at.
	TTL string
	// PreferencesUpsert lets preference updates create a stub record for
	// an unknown email instead of failing with not found.
	PreferencesUpsert bool
}

type ShutdownConfig struct {
	Timeout             string
	ReadinessDrainDelay string
}

// Load reads configuration from .env (optional) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "account-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("ENV", "development"),
			Port:    getEnv("PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRate: getFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		Profiling: ProfilingConfig{
			Enabled:  getBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PYROSCOPE_ENDPOINT", "http://localhost:4040"),
		},
		Mongo: MongoConfig{
			URI:           getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database:      getEnv("MONGO_DATABASE", "mflix"),
			Timeout:       getEnv("MONGO_TIMEOUT", "10s"),
			EnsureIndexes: getBool("MONGO_ENSURE_INDEXES", true),
		},
		Session: SessionConfig{
			Secret:            getEnv("SESSION_SECRET", ""),
			TTL:               getEnv("SESSION_TTL", ""),
			PreferencesUpsert: getBool("PREFERENCES_UPSERT", false),
		},
		Shutdown: ShutdownConfig{
			Timeout:             getEnv("SHUTDOWN_TIMEOUT", "10s"),
			ReadinessDrainDelay: getEnv("READINESS_DRAIN_DELAY", "0s"),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	} else if _, err := strconv.Atoi(c.Service.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", c.Service.Port))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q: %w", c.Logging.Level, err))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE %v must be within [0, 1]", c.Tracing.SampleRate))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}
	if len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}

	for key, value := range map[string]string{
		"MONGO_TIMEOUT":         c.Mongo.Timeout,
		"SESSION_TTL":           c.Session.TTL,
		"SHUTDOWN_TIMEOUT":      c.Shutdown.Timeout,
		"READINESS_DRAIN_DELAY": c.Shutdown.ReadinessDrainDelay,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s %q is not a valid duration", key, value))
		}
	}
	// TTL indexes have second granularity; anything shorter would expire at once.
	if ttl, err := time.ParseDuration(c.Session.TTL); err == nil && ttl > 0 && ttl < time.Second {
		errs = append(errs, fmt.Errorf("SESSION_TTL %q must be 0 or at least 1s", c.Session.TTL))
	}

	return errors.Join(errs...)
}

// GetMongoTimeoutDuration returns the client operation timeout.
func (c *Config) GetMongoTimeoutDuration() time.Duration {
	return parseDuration(c.Mongo.Timeout, 10*time.Second)
}

// GetSessionTTLDuration returns the session TTL, or 0 when sessions do
// not expire at the store level.
func (c *Config) GetSessionTTLDuration() time.Duration {
	return parseDuration(c.Session.TTL, 0)
}

func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Shutdown.Timeout, 10*time.Second)
}

func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Shutdown.ReadinessDrainDelay, 0)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
