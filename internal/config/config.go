// Package config loads the server configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fileupload/internal/pkg/bytesize"
	"fileupload/internal/pkg/validator"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultUploadDir          = "./uploads"
	defaultDatabaseURL        = "uploads.db"
	defaultLogLevel           = "info"
	defaultJWTTTL             = "24h"
	defaultMaxMultipartMemory = "32MiB"
	defaultMaxFileSize        = "0"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string `validate:"required"`
	UploadDir          string `validate:"required"`
	TmpDir             string `validate:"required"`
	CreateDirs         bool
	DatabaseURL        string `validate:"required"`
	JWTSecret          string
	JWTTTL             time.Duration
	LogLevel           string `validate:"oneof=debug info warn error fatal"`
	AllowedFields      []string
	Constraints        []ConstraintRule `validate:"dive"`
	MaxMultipartMemory int64            `validate:"gt=0"`
	MaxFileSize        int64            `validate:"gte=0"`
	CORSOrigins        []string
}

// AuthEnabled reports whether the upload API requires a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		HTTPAddr:      strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr)),
		UploadDir:     filepath.Clean(getEnv("UPLOAD_DIR", defaultUploadDir)),
		TmpDir:        filepath.Clean(getEnv("UPLOAD_TMP_DIR", os.TempDir())),
		CreateDirs:    parseBoolEnv("UPLOAD_CREATE_DIRS", "true"),
		DatabaseURL:   strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		LogLevel:      strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))),
		AllowedFields: splitList(os.Getenv("UPLOAD_ALLOWED_FIELDS")),
		CORSOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}
	cfg.MaxMultipartMemory, err = parseBytesEnv("MAX_MULTIPART_MEMORY", defaultMaxMultipartMemory)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize, err = parseBytesEnv("UPLOAD_MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return nil, err
	}

	if path := strings.TrimSpace(os.Getenv("UPLOAD_CONSTRAINTS_FILE")); path != "" {
		rules, err := LoadConstraintFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Constraints = append(cfg.Constraints, rules...)
	}
	rules, err := ParseConstraints(os.Getenv("UPLOAD_CONSTRAINTS"))
	if err != nil {
		return nil, err
	}
	cfg.Constraints = append(cfg.Constraints, rules...)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if err := validator.Struct(cfg); err != nil {
		return err
	}
	if cfg.JWTSecret != "" && cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if isProdLike(cfg.AppEnv) && cfg.JWTSecret == "" {
		return fmt.Errorf("in prod/release JWT_SECRET must be set")
	}
	if cfg.UploadDir == cfg.TmpDir {
		return fmt.Errorf("UPLOAD_DIR and UPLOAD_TMP_DIR must differ")
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBytesEnv(name, fallback string) (int64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := bytesize.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
