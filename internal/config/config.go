package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Archive  ArchiveConfig
	Platform PlatformConfig
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
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	SettingsTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Format      string
	Development bool
	Service     string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// ArchiveConfig controls transcript rendering and deletion reconciliation.
type ArchiveConfig struct {
	EncryptionKey       string
	TemplatesDir        string
	TranscriptTemplate  string
	HTMLEnabled         bool
	CryptoWorkers       int
	CryptoQueueDepth    int
	TranscriptWorkers   int
	TranscriptQueueSize int
	BotUserID           string
	SuperUserIDs        []string
}

// PlatformConfig points at the chat-platform REST gateway.
type PlatformConfig struct {
	BaseURL           string
	Token             string
	RequestsPerSecond float64
	Burst             int
	TimeoutSeconds    int
	BreakerFailures   int
	BreakerOpenSec    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("PLATFORM_REQUESTS_PER_SECOND", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_REQUESTS_PER_SECOND: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-archiver"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
			Addr:               getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:           os.Getenv("REDIS_PASSWORD"),
			DB:                 redisDB,
			SettingsTTLSeconds: getEnvAsInt("REDIS_SETTINGS_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
		},
		Archive: ArchiveConfig{
			EncryptionKey:       os.Getenv("ENCRYPTION_KEY"),
			TemplatesDir:        getEnv("TEMPLATES_DIR", "templates"),
			TranscriptTemplate:  getEnv("TRANSCRIPT_TEMPLATE", "transcript.md"),
			HTMLEnabled:         getEnvAsBool("TRANSCRIPT_HTML_ENABLED", true),
			CryptoWorkers:       getEnvAsInt("CRYPTO_WORKERS", 2),
			CryptoQueueDepth:    getEnvAsInt("CRYPTO_QUEUE_DEPTH", 256),
			TranscriptWorkers:   getEnvAsInt("TRANSCRIPT_WORKERS", 2),
			TranscriptQueueSize: getEnvAsInt("TRANSCRIPT_QUEUE_DEPTH", 64),
			BotUserID:           os.Getenv("BOT_USER_ID"),
			SuperUserIDs:        getEnvAsList("SUPER_USER_IDS"),
		},
		Platform: PlatformConfig{
			BaseURL:           getEnv("PLATFORM_BASE_URL", "https://discord.com/api/v10"),
			Token:             os.Getenv("PLATFORM_TOKEN"),
			RequestsPerSecond: rps,
			Burst:             getEnvAsInt("PLATFORM_BURST", 5),
			TimeoutSeconds:    getEnvAsInt("PLATFORM_TIMEOUT_SECONDS", 10),
			BreakerFailures:   getEnvAsInt("PLATFORM_BREAKER_FAILURES", 5),
			BreakerOpenSec:    getEnvAsInt("PLATFORM_BREAKER_OPEN_SECONDS", 30),
		},
	}

	cfg.Logger.Service = cfg.App.Name

	if cfg.Archive.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
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

// SettingsTTL returns how long guild settings stay cached.
func (r RedisConfig) SettingsTTL() time.Duration {
	return time.Duration(r.SettingsTTLSeconds) * time.Second
}

// Timeout returns the per-request timeout for platform calls.
func (p PlatformConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
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

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
