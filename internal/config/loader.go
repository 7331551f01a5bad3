package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "frontdesk.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "FRONTDESK_PORT")
	setString(&cfg.Server.CORSOrigin, "FRONTDESK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "FRONTDESK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "FRONTDESK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "FRONTDESK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "FRONTDESK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "FRONTDESK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.BaseURL, "FRONTDESK_OPENAI_BASE_URL")
	setString(&cfg.OpenAI.Model, "FRONTDESK_OPENAI_MODEL")
	setInt(&cfg.OpenAI.MaxTokens, "FRONTDESK_OPENAI_MAX_TOKENS")
	setFloat64(&cfg.OpenAI.Temperature, "FRONTDESK_OPENAI_TEMPERATURE")
	setDuration(&cfg.OpenAI.Timeout, "FRONTDESK_OPENAI_TIMEOUT")
	setString(&cfg.Logging.Level, "FRONTDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FRONTDESK_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "FRONTDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "FRONTDESK_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.TenantMaxSizeMB, "FRONTDESK_CACHE_TENANT_SIZE_MB")
	setDuration(&cfg.Cache.TenantTTL, "FRONTDESK_CACHE_TENANT_TTL")
	setString(&cfg.Dedup.Bucket, "FRONTDESK_DEDUP_BUCKET")
	setDuration(&cfg.Dedup.TTL, "FRONTDESK_DEDUP_TTL")
	setDuration(&cfg.Sweeper.IdleAfter, "FRONTDESK_SWEEPER_IDLE_AFTER")
	setDuration(&cfg.Sweeper.Interval, "FRONTDESK_SWEEPER_INTERVAL")
	setBool(&cfg.Telemetry.Enabled, "FRONTDESK_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.OpenAI.Timeout <= 0 {
		return errors.New("openai.timeout must be > 0")
	}
	if cfg.Sweeper.IdleAfter <= 0 {
		return errors.New("sweeper.idle_after must be > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
