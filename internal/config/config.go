package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Policies for listing posts of a community that does not exist.
const (
	NotFoundPolicyEmpty    = "empty"    // empty array, indistinguishable from "no posts"
	NotFoundPolicyExplicit = "explicit" // 404 NOT_FOUND
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"host=localhost user=postgres password=postgres dbname=threadly port=5432 sslmode=disable"`

	SessionSecret string `env:"SESSION_SECRET" envDefault:"secret_key_change_me"`

	AuthJWTSecret   string `env:"AUTH_JWT_SECRET"`
	AuthJWTIssuer   string `env:"AUTH_JWT_ISSUER"`
	AuthJWTAudience string `env:"AUTH_JWT_AUDIENCE"`

	BlobBackend        string        `env:"BLOB_BACKEND" envDefault:"local"`
	BlobDir            string        `env:"BLOB_DIR" envDefault:"./data/blobs"`
	BlobSigningSecret  string        `env:"BLOB_SIGNING_SECRET"`
	BlobPublicBaseURL  string        `env:"BLOB_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	BlobUploadTTL      time.Duration `env:"BLOB_UPLOAD_TTL" envDefault:"15m"`
	BlobDownloadTTL    time.Duration `env:"BLOB_DOWNLOAD_TTL" envDefault:"1h"`
	BlobAllowedOrigins []string      `env:"BLOB_ALLOWED_ORIGINS" envSeparator:","`
	GCSBucket          string        `env:"GCS_BUCKET"`
	GCSCredentialsFile string        `env:"GCS_CREDENTIALS_FILE"`

	CounterDir    string `env:"COUNTER_DIR" envDefault:"./data/counters"`
	CounterShards int    `env:"COUNTER_SHARDS" envDefault:"1"`

	CommunityNameCaseInsensitive bool   `env:"COMMUNITY_NAME_CASE_INSENSITIVE" envDefault:"false"`
	CommunityPostsNotFound       string `env:"COMMUNITY_POSTS_NOT_FOUND" envDefault:"empty"`

	ImageURLCacheTTL  time.Duration `env:"IMAGE_URL_CACHE_TTL" envDefault:"10m"`
	ImageURLCacheSize int           `env:"IMAGE_URL_CACHE_SIZE" envDefault:"500"`

	TraceStdout bool `env:"TRACE_STDOUT" envDefault:"false"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading env vars from system")
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.CommunityPostsNotFound = strings.ToLower(strings.TrimSpace(c.CommunityPostsNotFound))
	switch c.CommunityPostsNotFound {
	case NotFoundPolicyEmpty, NotFoundPolicyExplicit:
	default:
		return fmt.Errorf("COMMUNITY_POSTS_NOT_FOUND must be %q or %q, got %q",
			NotFoundPolicyEmpty, NotFoundPolicyExplicit, c.CommunityPostsNotFound)
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}

	switch c.BlobBackend {
	case "local":
		if c.BlobSigningSecret == "" {
			return fmt.Errorf("BLOB_SIGNING_SECRET is required for the local blob backend")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs blob backend")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be local or gcs, got %q", c.BlobBackend)
	}

	if c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.CounterShards < 1 {
		c.CounterShards = 1
	}
	return nil
}
