package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest HMAC signing secret accepted at startup.
const MinSecretLength = 32

var (
	ErrMissingSecret    = errors.New("AUTH_JWT_SECRET is required")
	ErrWeakSecret       = fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinSecretLength)
	ErrUnknownAlgorithm = errors.New("AUTH_JWT_ALGORITHM must be one of HS256, HS384, HS512")
	ErrInvalidSetting   = errors.New("invalid setting")
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	RunMigrations     bool
	ConnMaxIdleSec    int32
	ConnMaxLifeSec    int32
	ConnectTimeoutSec int32
	HealthCheckSec    int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTAlgorithm          string
	Issuer                string
	AccessTokenTTLMinutes int
	BcryptCost            int
	DefaultRole           string
	AllowedRoles          []string
	MaxLoginAttempts      int
	LoginLockoutMinutes   int
}

// RateLimitConfig tunes the per-client limiter on auth endpoints.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Load reads configuration from environment variables, applying defaults where possible.
// The returned config has already passed Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()
	env := &envParser{}

	// DB_POOL_SIZE / DB_MAX_OVERFLOW keep their pool-size semantics: the pool
	// holds pool_size warm connections and may grow by max_overflow.
	poolSize := env.asInt("DB_POOL_SIZE", 5)
	maxOverflow := env.asInt("DB_MAX_OVERFLOW", 10)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "commerce-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: env.asInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:               getEnv("POSTGRES_DSN", os.Getenv("DATABASE_URL")),
			MaxConns:          int32(env.asInt("POSTGRES_MAX_CONNS", poolSize+maxOverflow)),
			MinConns:          int32(env.asInt("POSTGRES_MIN_CONNS", poolSize)),
			RunMigrations:     env.asBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:    int32(env.asInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:    int32(env.asInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectTimeoutSec: int32(env.asInt("DB_POOL_TIMEOUT", 30)),
			HealthCheckSec:    int32(env.asInt("POSTGRES_HEALTH_CHECK_SECONDS", 30)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.asInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			JWTAlgorithm:          strings.ToUpper(getEnv("AUTH_JWT_ALGORITHM", jwt.SigningMethodHS256.Alg())),
			Issuer:                getEnv("AUTH_JWT_ISSUER", "commerce-auth"),
			AccessTokenTTLMinutes: env.asInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 30),
			BcryptCost:            env.asInt("AUTH_BCRYPT_COST", 12),
			DefaultRole:           getEnv("AUTH_DEFAULT_ROLE", "user"),
			AllowedRoles:          getEnvAsList("AUTH_ALLOWED_ROLES", []string{"user", "admin", "seller"}),
			MaxLoginAttempts:      env.asInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LoginLockoutMinutes:   env.asInt("AUTH_LOGIN_LOCKOUT_MINUTES", 15),
		},
		RateLimit: RateLimitConfig{
			Enabled: env.asBool("RATE_LIMIT_ENABLED", true),
			RPS:     env.asFloat("RATE_LIMIT_RPS", 10),
			Burst:   env.asInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := env.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process before it serves.
func (c *Config) Validate() error {
	return c.Auth.Validate()
}

// Validate checks the signing key, algorithm and hashing cost.
func (a AuthConfig) Validate() error {
	secret := strings.TrimSpace(a.JWTSecret)
	if secret == "" {
		return ErrMissingSecret
	}
	if len(secret) < MinSecretLength {
		return ErrWeakSecret
	}
	if _, ok := jwt.GetSigningMethod(a.JWTAlgorithm).(*jwt.SigningMethodHMAC); !ok {
		return ErrUnknownAlgorithm
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if a.DefaultRole == "" {
		return errors.New("AUTH_DEFAULT_ROLE must not be empty")
	}
	if !a.RoleAllowed(a.DefaultRole) {
		return fmt.Errorf("AUTH_DEFAULT_ROLE %q is not listed in AUTH_ALLOWED_ROLES", a.DefaultRole)
	}
	return nil
}

// RoleAllowed reports whether role is one of the configured roles.
func (a AuthConfig) RoleAllowed(role string) bool {
	for _, allowed := range a.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// AccessTokenTTL returns the default lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// LoginLockout returns how long an email stays locked after too many failures.
func (a AuthConfig) LoginLockout() time.Duration {
	return time.Duration(a.LoginLockoutMinutes) * time.Minute
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envParser reads typed settings and remembers every value that failed to
// parse, so a typo stops startup instead of silently becoming the default.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, val string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidSetting, key, val, err))
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}

func (p *envParser) asInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return parsed
}

func (p *envParser) asFloat(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return parsed
}

func (p *envParser) asBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
