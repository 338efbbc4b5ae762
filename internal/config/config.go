// Package config centralizes how the service reads environment variables and
// exposes them as strongly typed Go values. A Config is built once at process
// start and passed to every component; nothing mutates it afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration for the server, the worker and the
// CLI.
type Config struct {
	Address string
	BaseURL string

	DatabaseURL      string
	DBMaxConns       int32
	DBIdleTimeout    time.Duration
	DBConnectTimeout time.Duration

	TokenSecret []byte

	StorageDriver   string
	StorageProvider string
	StorageBucket   string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Region        string
	S3UseSSL        bool
	PublicURL       string
	MaxUploadBytes  int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkerConcurrency int

	LogLevel  string
	LogFormat string
}

const (
	defaultPort              = "8080"
	defaultBaseURL           = "http://localhost"
	defaultDBMaxConns        = 20
	defaultDBIdleTimeout     = 30 * time.Second
	defaultDBConnectTimeout  = 2 * time.Second
	defaultStorageDriver     = "minio"
	defaultStorageProvider   = "r2"
	defaultStorageBucket     = "imggen-uploads"
	defaultS3Region          = "auto"
	defaultMaxUploadBytes    = 25 << 20 // 25 MiB
	defaultWorkerConcurrency = 4
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
)

var (
	ErrMissingDatabaseURL = errors.New("POSTGRES_URL environment variable is not defined")
	ErrMissingTokenSecret = errors.New("TOKEN_SECRET_KEY environment variable is not defined")
)

// Load reads configuration from environment variables falling back to
// defaults. The database DSN and the token secret have no default.
func Load() (*Config, error) {
	cfg := &Config{
		Address:           ":" + readEnv("PORT", defaultPort),
		BaseURL:           readEnv("BASE_URL", defaultBaseURL),
		DatabaseURL:       readEnv("POSTGRES_URL", ""),
		DBMaxConns:        int32(parseInt("DB_MAX_CONNS", defaultDBMaxConns)),
		DBIdleTimeout:     parseDuration("DB_IDLE_TIMEOUT", defaultDBIdleTimeout),
		DBConnectTimeout:  parseDuration("DB_CONNECT_TIMEOUT", defaultDBConnectTimeout),
		TokenSecret:       parseSecret("TOKEN_SECRET_KEY"),
		StorageDriver:     strings.ToLower(readEnv("STORAGE_DRIVER", defaultStorageDriver)),
		StorageProvider:   readEnv("STORAGE_PROVIDER", defaultStorageProvider),
		StorageBucket:     readEnv("R2_BUCKET", defaultStorageBucket),
		S3Endpoint:        readEnv("R2_ENDPOINT", ""),
		S3AccessKey:       readEnv("R2_ACCESS_KEY_ID", ""),
		S3SecretKey:       readEnv("R2_SECRET_ACCESS_KEY", ""),
		S3Region:          readEnv("R2_REGION", defaultS3Region),
		S3UseSSL:          parseBool("R2_USE_SSL", true),
		PublicURL:         strings.TrimRight(readEnv("R2_PUBLIC_URL", ""), "/"),
		MaxUploadBytes:    parseInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		RedisAddr:         readEnv("REDIS_ADDR", ""),
		RedisPassword:     readEnv("REDIS_PASSWORD", ""),
		RedisDB:           parseInt("REDIS_DB", 0),
		WorkerConcurrency: parseInt("WORKER_CONCURRENCY", defaultWorkerConcurrency),
		LogLevel:          readEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:         readEnv("LOG_FORMAT", defaultLogFormat),
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = defaultDBMaxConns
	}
	if cfg.DBIdleTimeout <= 0 {
		cfg.DBIdleTimeout = defaultDBIdleTimeout
	}
	if cfg.DBConnectTimeout <= 0 {
		cfg.DBConnectTimeout = defaultDBConnectTimeout
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = defaultWorkerConcurrency
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if len(c.TokenSecret) == 0 {
		return ErrMissingTokenSecret
	}
	switch c.StorageDriver {
	case "minio", "s3", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// QueueEnabled reports whether a Redis address was configured for the
// orphan-cleanup queue.
func (c *Config) QueueEnabled() bool {
	return c.RedisAddr != ""
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	// time.ParseDuration understands inputs like "30s" or "2m".
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseSecret(key string) []byte {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return []byte(v)
	}
	return nil
}
