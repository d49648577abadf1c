package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"food-order-service/awsclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", name, awsclient.ErrSecretNotFound)
}

func setBaseEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "orders")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "orders")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AWS_USE_SECRETS", "false")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("CART_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.Equal(t, 3*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CATALOG_TIMEOUT", "500ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("TRUST_GATEWAY_HEADERS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadConfig(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.CatalogTimeout)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.False(t, cfg.TrustGatewayHeaders)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_MissingJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(zap.NewNop())
	assert.EqualError(t, err, "JWT_SECRET not set")
}

func TestLoadConfig_IncompleteDatabase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("POSTGRES_PASSWORD", "")

	_, err := LoadConfig(zap.NewNop())
	assert.EqualError(t, err, "database config incomplete")
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{JWTSecret: "from-env"}
	cfg.Postgres.Host = "localhost"

	applySecrets(context.Background(), cfg, fakeSecrets{
		dbCredentialsSecret: `{"POSTGRES_USER":"svc","POSTGRES_PASSWORD":"pw","POSTGRES_DB":"orders","POSTGRES_HOST":"db.internal"}`,
		jwtSecretName:       "from-secrets",
	}, zap.NewNop())

	assert.Equal(t, "svc", cfg.Postgres.User)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "from-secrets", cfg.JWTSecret)
	assert.NoError(t, cfg.validate())
}

func TestApplySecrets_MissingKeepsEnv(t *testing.T) {
	cfg := &Config{JWTSecret: "from-env"}
	cfg.Postgres.User = "env-user"

	applySecrets(context.Background(), cfg, fakeSecrets{dbCredentialsSecret: "not json"}, zap.NewNop())

	assert.Equal(t, "env-user", cfg.Postgres.User)
	assert.Equal(t, "from-env", cfg.JWTSecret)
}

func TestApplySecrets_LogLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := &Config{}

	applySecrets(context.Background(), cfg, fakeSecrets{dbCredentialsSecret: "not json"}, zap.New(core))

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, dbCredentialsSecret, entries[0].ContextMap()["secret"])
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, jwtSecretName, entries[1].ContextMap()["secret"])
}
