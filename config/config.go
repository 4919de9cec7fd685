package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for the gallery server.
type Config struct {
	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":3000"`
	// Directory of static frontend assets. Served only when it exists.
	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	// Metadata backend: "json" keeps a sidecar file, "sqlite" and "bolt"
	// an embedded database.
	MetadataBackend string `env:"METADATA_BACKEND" envDefault:"json"`
	MetadataPath    string `env:"METADATA_PATH" envDefault:"data/metadata.json"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"data/gallery.db"`
	BoltPath        string `env:"BOLT_PATH" envDefault:"data/gallery.bolt"`

	// S3-compatible object storage (MinIO)
	StorageEndpoint  string `env:"STORAGE_ENDPOINT"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"gallery"`
	StorageUseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	// Base URL clients fetch objects from. Defaults to the endpoint.
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL"`
	// Path every gallery object lives under inside the bucket.
	StorageRoot string `env:"STORAGE_ROOT" envDefault:"gallery"`

	UploadMaxFileSize int64    `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"104857600"`
	UploadMaxFiles    int      `env:"UPLOAD_MAX_FILES" envDefault:"20"`
	AllowedImageTypes []string `env:"ALLOWED_IMAGE_TYPES" envSeparator:"," envDefault:"image/jpeg,image/jpg,image/png,image/gif,image/webp,image/svg+xml,image/bmp,image/tiff,image/avif"`
	AllowedVideoTypes []string `env:"ALLOWED_VIDEO_TYPES" envSeparator:"," envDefault:"video/mp4,video/webm,video/ogg,video/quicktime,video/x-msvideo,video/x-matroska,video/x-flv,video/mpeg,video/avi,video/mov"`

	ListLimit           int           `env:"LIST_LIMIT" envDefault:"0"`
	DeleteRetryDelay    time.Duration `env:"DELETE_RETRY_DELAY" envDefault:"1s"`
	ArchiveFetchTimeout time.Duration `env:"ARCHIVE_FETCH_TIMEOUT" envDefault:"30s"`
	ArchiveConcurrency  int           `env:"ARCHIVE_CONCURRENCY" envDefault:"8"`
	// How often remote copies of deleted files are retried. 0 disables.
	OrphanSweepInterval time.Duration `env:"ORPHAN_SWEEP_INTERVAL" envDefault:"10m"`
}

// warnInsecureEnvFile warns when the .env file holding storage
// credentials is readable by group or others.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return
	}

	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.MetadataBackend = strings.ToLower(strings.TrimSpace(cfg.MetadataBackend))
	cfg.AllowedImageTypes = cleanList(cfg.AllowedImageTypes)
	cfg.AllowedVideoTypes = cleanList(cfg.AllowedVideoTypes)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.StorageEndpoint == "" {
		return fmt.Errorf("STORAGE_ENDPOINT is required")
	}

	if c.StorageAccessKey == "" || c.StorageSecretKey == "" {
		return fmt.Errorf("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required")
	}

	if c.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}

	switch c.MetadataBackend {
	case "json":
		if c.MetadataPath == "" {
			return fmt.Errorf("METADATA_PATH is required for the json backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case "bolt":
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for the bolt backend")
		}
	default:
		return fmt.Errorf("METADATA_BACKEND must be json, sqlite or bolt, got %q", c.MetadataBackend)
	}

	if c.UploadMaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive")
	}

	if c.UploadMaxFiles <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be positive")
	}

	if len(c.AllowedTypes()) == 0 {
		return fmt.Errorf("at least one of ALLOWED_IMAGE_TYPES or ALLOWED_VIDEO_TYPES must be set")
	}

	if c.ListLimit < 0 {
		return fmt.Errorf("LIST_LIMIT must not be negative")
	}

	if c.ArchiveConcurrency <= 0 {
		return fmt.Errorf("ARCHIVE_CONCURRENCY must be positive")
	}

	return nil
}

// AllowedTypes returns the image and video MIME allowlists combined.
func (c *Config) AllowedTypes() []string {
	out := make([]string, 0, len(c.AllowedImageTypes)+len(c.AllowedVideoTypes))
	out = append(out, c.AllowedImageTypes...)
	return append(out, c.AllowedVideoTypes...)
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func cleanList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
