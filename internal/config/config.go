// Package config loads service settings from the environment through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"tokoadmin/internal/images"
	"tokoadmin/internal/validation"
)

// Backend modes.
const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

// Image stores.
const (
	ImageStoreEmbed = "embed"
	ImageStoreS3    = "s3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the typed service configuration.
type Config struct {
	AppPort  string
	LogLevel string

	BackendMode    string
	BackendURL     string
	BackendTimeout time.Duration

	PriceCeiling  decimal.Decimal
	ImageMaxBytes int64
	ImageStore    string
	S3            images.BucketConfig

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	RabbitMQURL     string
	RabbitMQConsume bool

	DraftTTL time.Duration
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BACKEND_MODE", BackendHTTP)
	v.SetDefault("BACKEND_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("PRICE_CEILING", validation.DefaultPriceCeiling)
	v.SetDefault("IMAGE_MAX_BYTES", images.DefaultMaxBytes)
	v.SetDefault("IMAGE_STORE", ImageStoreEmbed)
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "tokoadmin.db")
	v.SetDefault("JWT_SECRET", "change_me_jwt_secret")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_CONSUME", false)
	v.SetDefault("DRAFT_TTL", "30m")
}

// New returns a viper instance with defaults applied and environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// Load reads and checks the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	ceiling, err := decimal.NewFromString(strings.TrimSpace(v.GetString("PRICE_CEILING")))
	if err != nil || !ceiling.IsPositive() {
		return nil, fmt.Errorf("PRICE_CEILING must be a positive number, got %q", v.GetString("PRICE_CEILING"))
	}

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		BackendMode:    strings.ToLower(v.GetString("BACKEND_MODE")),
		BackendURL:     v.GetString("BACKEND_URL"),
		BackendTimeout: v.GetDuration("BACKEND_TIMEOUT"),
		PriceCeiling:   ceiling,
		ImageMaxBytes:  v.GetInt64("IMAGE_MAX_BYTES"),
		ImageStore:     strings.ToLower(v.GetString("IMAGE_STORE")),
		S3: images.BucketConfig{
			Bucket:          v.GetString("S3_BUCKET"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			PublicDomain:    v.GetString("S3_PUBLIC_DOMAIN"),
		},
		DatabaseDriver:  strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		AdminUsername:   v.GetString("ADMIN_USERNAME"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RabbitMQConsume: v.GetBool("RABBITMQ_CONSUME"),
		DraftTTL:        v.GetDuration("DRAFT_TTL"),
	}
	cfg.S3.MaxBytes = cfg.ImageMaxBytes

	switch cfg.BackendMode {
	case BackendHTTP, BackendMemory:
	default:
		return nil, fmt.Errorf("BACKEND_MODE must be %q or %q, got %q", BackendHTTP, BackendMemory, cfg.BackendMode)
	}
	switch cfg.ImageStore {
	case ImageStoreEmbed, ImageStoreS3:
	default:
		return nil, fmt.Errorf("IMAGE_STORE must be %q or %q, got %q", ImageStoreEmbed, ImageStoreS3, cfg.ImageStore)
	}
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DatabaseDriver)
	}
	if cfg.ImageMaxBytes <= 0 {
		return nil, fmt.Errorf("IMAGE_MAX_BYTES must be positive, got %d", cfg.ImageMaxBytes)
	}
	if cfg.BackendTimeout <= 0 {
		return nil, fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}
