package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"food-order-service/awsclient"
	"food-order-service/database"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	dbCredentialsSecret = "order/DB_CREDENTIALS"
	jwtSecretName       = "order/JWT_SECRET"
	secretsCacheTTL     = 15 * time.Minute
)

// Config holds all configuration for the order service.
type Config struct {
	Port                string
	Env                 string
	Postgres            database.PostgresConfig
	RedisURL            string
	CartTTL             time.Duration
	JWTSecret           string
	TrustGatewayHeaders bool
	CatalogTimeout      time.Duration
	RequestTimeout      time.Duration
	OrderEventsTopicARN string
	CORSAllowedOrigins  []string
	RateLimitPerMinute  int
	RateLimitBurst      int
}

// LoadConfig reads configuration from .env (if present) and the environment.
// When AWS_USE_SECRETS=true, database credentials and the JWT secret are
// taken from Secrets Manager.
func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8083"),
		Env:  getEnv("APP_ENV", "development"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		},
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:             getDuration("CART_TTL", 7*24*time.Hour),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnv("TRUST_GATEWAY_HEADERS", "true") == "true",
		CatalogTimeout:      getDuration("CATALOG_TIMEOUT", 3*time.Second),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 30*time.Second),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerMinute:  getInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 50),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := awsclient.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("secrets requested but aws config failed: %w", err)
		}
		applySecrets(context.Background(), cfg, awsclient.NewSecretsClient(awsCfg, secretsCacheTTL), logger)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dbCredentials is the JSON layout of the DB credentials secret.
type dbCredentials struct {
	User     string `json:"POSTGRES_USER"`
	Password string `json:"POSTGRES_PASSWORD"`
	DBName   string `json:"POSTGRES_DB"`
	Host     string `json:"POSTGRES_HOST"`
	Port     string `json:"POSTGRES_PORT"`
}

// applySecrets overrides credentials with whatever the secret store holds.
// Missing secrets keep the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm awsclient.SecretGetter, logger *zap.Logger) {
	var creds dbCredentials
	if err := awsclient.DecodeSecret(ctx, sm, dbCredentialsSecret, &creds); err != nil {
		secretLookupFailed(logger, dbCredentialsSecret, err)
	} else {
		override(&cfg.Postgres.User, creds.User)
		override(&cfg.Postgres.Password, creds.Password)
		override(&cfg.Postgres.DBName, creds.DBName)
		override(&cfg.Postgres.Host, creds.Host)
		override(&cfg.Postgres.Port, creds.Port)
	}

	if v, err := sm.GetSecret(ctx, jwtSecretName); err != nil {
		secretLookupFailed(logger, jwtSecretName, err)
	} else {
		override(&cfg.JWTSecret, v)
	}
}

func secretLookupFailed(logger *zap.Logger, name string, err error) {
	if errors.Is(err, awsclient.ErrSecretNotFound) {
		logger.Info("Secret not configured, using environment", zap.String("secret", name))
		return
	}
	logger.Warn("Secret unavailable, using environment", zap.String("secret", name), zap.Error(err))
}

func (c *Config) validate() error {
	p := c.Postgres
	if p.User == "" || p.Password == "" || p.DBName == "" || p.Host == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
