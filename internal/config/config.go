package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Refresh  RefreshConfig
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

// UpstreamConfig points at the ticket backend and bounds each call class.
type UpstreamConfig struct {
	BaseURL            string
	TicketsTimeout     time.Duration
	ApproveTimeout     time.Duration
	CloseTimeout       time.Duration
	MarkReadTimeout    time.Duration
	FetchEmailsTimeout time.Duration
	MetricsTimeout     time.Duration
}

// PostgresConfig holds DB connection values for the audit store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the session read-state store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret           string
	SessionTTLMinutes   int
	BcryptCost          int
	DevOperatorEmail    string
	DevOperatorPassword string
	DevOperatorName     string
}

// RefreshConfig controls the periodic working-set refresh.
type RefreshConfig struct {
	Enabled         bool
	IntervalSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "finance-triage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8090"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Upstream: UpstreamConfig{
			BaseURL:            getEnv("UPSTREAM_BASE_URL", "http://127.0.0.1:8000"),
			TicketsTimeout:     secondsEnv("UPSTREAM_TICKETS_TIMEOUT_SECONDS", 10),
			ApproveTimeout:     secondsEnv("UPSTREAM_APPROVE_TIMEOUT_SECONDS", 30),
			CloseTimeout:       secondsEnv("UPSTREAM_CLOSE_TIMEOUT_SECONDS", 10),
			MarkReadTimeout:    secondsEnv("UPSTREAM_MARK_READ_TIMEOUT_SECONDS", 5),
			FetchEmailsTimeout: secondsEnv("UPSTREAM_FETCH_EMAILS_TIMEOUT_SECONDS", 600),
			MetricsTimeout:     secondsEnv("UPSTREAM_METRICS_TIMEOUT_SECONDS", 15),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes:   getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 480),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
			DevOperatorEmail:    getEnv("AUTH_DEV_OPERATOR_EMAIL", ""),
			DevOperatorPassword: getEnv("AUTH_DEV_OPERATOR_PASSWORD", ""),
			DevOperatorName:     getEnv("AUTH_DEV_OPERATOR_NAME", "Dev Operator"),
		},
		Refresh: RefreshConfig{
			Enabled:         getEnvAsBool("REFRESH_ENABLED", true),
			IntervalSeconds: getEnvAsInt("REFRESH_INTERVAL_SECONDS", 30),
		},
	}

	return cfg, nil
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

// SessionTTL returns the operator session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// Interval returns the refresh cadence.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
