package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pos-service/database"
	awspkg "pos-service/pkg/aws"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all configuration for the POS service.
type Config struct {
	Port          string
	Env           string
	StorageDriver string
	Postgres      database.PostgresConfig

	RedisURL        string
	ProductCacheTTL time.Duration
	DefaultCurrency string

	// SNS topic the outbox relay publishes to; empty disables the relay
	EventsSNSTopicARN  string
	EventRelayInterval time.Duration

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
	AllowedOrigins      []string
}

// secretSource is the part of the Secrets Manager client LoadConfig needs.
type secretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	var secrets secretSource
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			secrets = awspkg.NewSecretsClient(awsCfg)
		}
	}
	return loadConfig(secrets)
}

func loadConfig(secrets secretSource) (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8095"),
		Env:           getEnv("APP_ENV", "development"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		RedisURL:            os.Getenv("REDIS_URL"),
		DefaultCurrency:     strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		EventsSNSTopicARN:   os.Getenv("POS_EVENTS_SNS_TOPIC_ARN"),
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "POS/Service"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/pos/services"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	var err error
	if cfg.ProductCacheTTL, err = getDuration("PRODUCT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.EventRelayInterval, err = getDuration("EVENT_RELAY_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if len(cfg.DefaultCurrency) != 3 {
		return nil, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", cfg.DefaultCurrency)
	}

	switch cfg.StorageDriver {
	case StorageDriverMemory:
		return cfg, nil
	case StorageDriverPostgres:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	// Override DB credentials from Secrets Manager when running on AWS
	if secrets != nil {
		if m, err := secrets.GetSecretMap(context.Background(), "pos/DB_CREDENTIALS"); err == nil {
			overrideFromSecret(&cfg.Postgres, m)
		}
	}

	p := cfg.Postgres
	if p.User == "" || p.Password == "" || p.DB == "" || p.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func overrideFromSecret(p *database.PostgresConfig, m map[string]string) {
	fields := map[string]*string{
		"POSTGRES_USER":     &p.User,
		"POSTGRES_PASSWORD": &p.Password,
		"POSTGRES_DB":       &p.DB,
		"POSTGRES_HOST":     &p.Host,
		"POSTGRES_PORT":     &p.Port,
	}
	for key, dst := range fields {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getDuration accepts Go durations ("30s") or plain seconds ("30").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s %q", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
