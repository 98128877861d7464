package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS256", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "user", cfg.Auth.DefaultRole)
	assert.Equal(t, "postgres://localhost/shop", cfg.Postgres.DSN)
	assert.Equal(t, int32(5), cfg.Postgres.MinConns)
	assert.Equal(t, int32(15), cfg.Postgres.MaxConns)
	assert.Equal(t, int32(30), cfg.Postgres.ConnectTimeoutSec)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestLoadPrefersPostgresDSN(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("POSTGRES_DSN", "postgres://primary")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary", cfg.Postgres.DSN)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadRejectsUnparseableSettings(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_BCRYPT_COST", "abc")
	t.Setenv("AUTH_MAX_LOGIN_ATTEMPTS", "five")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidSetting)
	assert.ErrorContains(t, err, "AUTH_BCRYPT_COST")
	assert.ErrorContains(t, err, "AUTH_MAX_LOGIN_ATTEMPTS")
}

func TestLoadRejectsUnparseableFlagsAndRates(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	for key, val := range map[string]string{
		"RATE_LIMIT_ENABLED":      "sometimes",
		"RATE_LIMIT_RPS":          "fast",
		"REDIS_DB":                "zero",
		"POSTGRES_RUN_MIGRATIONS": "2",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidSetting)
		})
	}
}

func TestAuthConfigValidate(t *testing.T) {
	base := AuthConfig{
		JWTSecret:    testSecret,
		JWTAlgorithm: "HS256",
		BcryptCost:   10,
		DefaultRole:  "user",
		AllowedRoles: []string{"user", "admin"},
	}
	require.NoError(t, base.Validate())

	weak := base
	weak.JWTSecret = "short"
	assert.ErrorIs(t, weak.Validate(), ErrWeakSecret)

	rsa := base
	rsa.JWTAlgorithm = "RS256"
	assert.ErrorIs(t, rsa.Validate(), ErrUnknownAlgorithm)

	none := base
	none.JWTAlgorithm = "none"
	assert.ErrorIs(t, none.Validate(), ErrUnknownAlgorithm)

	cost := base
	cost.BcryptCost = 40
	assert.Error(t, cost.Validate())

	role := base
	role.DefaultRole = "guest"
	assert.Error(t, role.Validate())
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("ROLES_UNDER_TEST", " user, admin ,,seller ")
	assert.Equal(t, []string{"user", "admin", "seller"}, getEnvAsList("ROLES_UNDER_TEST", nil))
	assert.Equal(t, []string{"x"}, getEnvAsList("ROLES_UNSET", []string{"x"}))
}
