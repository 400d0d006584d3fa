package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SourceNone = "none"
	SourceHTTP = "http"
	SourceFile = "file"
	SourceS3   = "s3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type StorageConfig struct {
	Endpoint        string `validate:"required"`
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string `validate:"required"`
	StatusKey       string `validate:"required"`
}

type Config struct {
	ListenAddr        string        `validate:"required"`
	Source            string        `validate:"oneof=none http file s3"`
	StatusURL         string        `validate:"required_if=Source http"`
	StatusFile        string        `validate:"required_if=Source file"`
	FetchTimeout      time.Duration `validate:"gt=0"`
	ConfigurationFile string
	RateLimitRPS      float64  `validate:"gte=0"`
	RateLimitBurst    int      `validate:"gte=0"`
	AllowedIPs        []string `validate:"dive,required"`
	LogLevel          slog.Level
	Storage           StorageConfig `validate:"-"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("OPCACHE_FETCH_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("%w: OPCACHE_FETCH_TIMEOUT: %v", ErrInvalidConfig, err)
	}
	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: RATE_LIMIT_RPS: %v", ErrInvalidConfig, err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("%w: RATE_LIMIT_BURST: %v", ErrInvalidConfig, err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		Source:            getEnv("OPCACHE_SOURCE", SourceNone),
		StatusURL:         getEnv("OPCACHE_STATUS_URL", ""),
		StatusFile:        getEnv("OPCACHE_STATUS_FILE", ""),
		FetchTimeout:      timeout,
		ConfigurationFile: getEnv("OPCACHE_CONFIGURATION_FILE", ""),
		RateLimitRPS:      rps,
		RateLimitBurst:    burst,
		AllowedIPs:        parseList(getEnv("ALLOWED_IPS", "")),
		LogLevel:          level,
		Storage:           GetStorageConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY", "minioadmin"),
		SecretAccessKey: getEnv("S3_SECRET_KEY", "minioadmin"),
		UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		Bucket:          getEnv("S3_BUCKET", ""),
		StatusKey:       getEnv("S3_STATUS_KEY", "opcache/status.json"),
	}
}

// Validate checks field constraints. Storage settings are only checked when
// the s3 source is selected.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Source {
	case SourceHTTP:
		if err := validate.Var(c.StatusURL, "url"); err != nil {
			return fmt.Errorf("%w: OPCACHE_STATUS_URL %q is not a URL", ErrInvalidConfig, c.StatusURL)
		}
	case SourceS3:
		if err := validate.Struct(c.Storage); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// parseList splits a comma separated value, dropping empty items.
func parseList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
