package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the LinkBucket API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Session  SessionConfig
	Buckets  BucketConfig
	Export   ExportConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries object storage connection details for bucket exports.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// RedisConfig points at the session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int
}

// SessionConfig controls the session cookie issued on login.
type SessionConfig struct {
	CookieName string
	KeyPrefix  string
	TTL        time.Duration
	Domain     string
	Secure     bool
}

// BucketConfig holds bucket presentation settings.
type BucketConfig struct {
	// PublicURL is the origin used to build share links, e.g. https://linkbucket.app.
	PublicURL     string
	TitleTimezone string
}

// ExportConfig controls bucket exports written to object storage.
type ExportConfig struct {
	URLTTL time.Duration
	// RetentionDays expires export objects; zero keeps them forever.
	RetentionDays int
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("LINKBUCKET_API_HOST", "0.0.0.0"),
			Port:         getInt("LINKBUCKET_API_PORT", 8080),
			ReadTimeout:  getDuration("LINKBUCKET_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("LINKBUCKET_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("LINKBUCKET_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "linkbucket_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "linkbucket"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),

			MaxConns:        int32(getInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getInt("POSTGRES_MIN_CONNS", 0)),
			MaxConnLifetime: getDuration("POSTGRES_MAX_CONN_LIFETIME", time.Hour),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "linkbucket"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "linkbucket-exports"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", "localhost:6379"),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth:    loadAuthConfig(),
		Session: loadSessionConfig(),
		Buckets: BucketConfig{
			PublicURL:     strings.TrimRight(getString("LINKBUCKET_PUBLIC_URL", "http://localhost:3000"), "/"),
			TitleTimezone: getString("LINKBUCKET_TITLE_TIMEZONE", "Asia/Seoul"),
		},
		Export: ExportConfig{
			URLTTL:        getDuration("LINKBUCKET_EXPORT_URL_TTL", 15*time.Minute),
			RetentionDays: getInt("LINKBUCKET_EXPORT_RETENTION_DAYS", 7),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("LINKBUCKET_METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Session.TTL <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive, got %s", cfg.Session.TTL)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("LINKBUCKET_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret:  getString("LINKBUCKET_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		RefreshTokenSecret: getString("LINKBUCKET_JWT_REFRESH_SECRET", "change-me-to-a-64-byte-secret"),
		AccessTokenTTL:     getDuration("LINKBUCKET_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("LINKBUCKET_AUTH_REFRESH_TOKEN_TTL", 720*time.Hour),
		BcryptCost:         cost,
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: getString("LINKBUCKET_SESSION_COOKIE", "sid"),
		KeyPrefix:  getString("LINKBUCKET_SESSION_PREFIX", "session:"),
		TTL:        getDuration("LINKBUCKET_SESSION_TTL", time.Hour),
		Domain:     getString("LINKBUCKET_SESSION_DOMAIN", ""),
		Secure:     getBool("LINKBUCKET_SESSION_SECURE", false),
	}
}
