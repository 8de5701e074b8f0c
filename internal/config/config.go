package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level
	LogFormat   string

	Storage       StorageConfig
	DatabaseURL   string
	RedisURL      string
	CacheRedisURL string
	S3            S3Config

	JWTSecret     string
	TokenTTL      time.Duration
	SweepInterval time.Duration
	CORSOrigin    string

	Kafka   KafkaConfig
	Casdoor CasdoorConfig
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
	KeyPrefix  string
	// SeedDemoData loads the bundled demo catalog, users and allocations on first start.
	SeedDemoData bool
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// Enabled reports whether enough settings are present to reach a Casdoor server.
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != "" && c.Organization != ""
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:   getenv("ENVIRONMENT", "development"),
		Port:          getenv("PORT", "8080"),
		LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "json")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		CacheRedisURL: os.Getenv("CACHE_REDIS_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigin:    getenv("CORS_ORIGIN", "*"),
		Storage: StorageConfig{
			Driver:     strings.ToLower(getenv("STORAGE_DRIVER", DriverSQLite)),
			SQLitePath: getenv("SQLITE_PATH", "labs.db"),
			KeyPrefix:  getenv("STORAGE_KEY_PREFIX", "labs:"),
		},
		S3: S3Config{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   getenv("S3_REGION", "us-east-1"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
			Prefix:   getenv("S3_PREFIX", "labs"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("LAB_EVENTS_TOPIC", "lab-events"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", "12h"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDuration("SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.Storage.SeedDemoData, err = parseBool("SEED_DEMO_DATA", true); err != nil {
		return nil, err
	}
	if cfg.S3.PathStyle, err = parseBool("S3_PATH_STYLE", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for storage driver %q", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.Storage.Driver)
		}
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for storage driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.JWTSecret == "" {
		if c.Environment == "production" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
