package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "SIMPLESPEND"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Environment     string        `mapstructure:"environment" validate:"oneof=development staging production test"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	AdminToken      string        `mapstructure:"admin_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// StorageConfig selects and configures the product store
type StorageConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=memory mongo"`
	MongoURI string        `mapstructure:"mongo_uri" validate:"required_if=Type mongo"`
	Database string        `mapstructure:"database" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=memory redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Type redis"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// PerIP is requests per minute allowed from one client address
	PerIP int `mapstructure:"per_ip" validate:"gte=0"`
	Burst int `mapstructure:"burst" validate:"gte=0"`
	// Feed is requests per minute allowed towards store feeds
	Feed int `mapstructure:"feed" validate:"gt=0"`
}

// CatalogConfig holds ingestion and query settings
type CatalogConfig struct {
	DefaultStore    string   `mapstructure:"default_store" validate:"required"`
	DefaultCategory string   `mapstructure:"default_category" validate:"required"`
	ListingPolicy   string   `mapstructure:"listing_policy" validate:"oneof=append replace"`
	SearchLimit     int      `mapstructure:"search_limit" validate:"gt=0"`
	SuggestionLimit int      `mapstructure:"suggestion_limit" validate:"gte=0"`
	DealsLimit      int      `mapstructure:"deals_limit" validate:"gt=0"`
	Sources         []string `mapstructure:"sources"`
	// Schedule is a cron spec for refreshing from Sources; empty disables it
	Schedule string `mapstructure:"schedule"`
	SeedFile string `mapstructure:"seed_file"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Dir        string `mapstructure:"dir" validate:"required"`
	Console    bool   `mapstructure:"console"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// Local development convenience; production sets real env vars
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/simplespend/")

	// Environment variable settings: server.port -> SIMPLESPEND_SERVER_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default,
// even an empty one, so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.database", "simplespend")
	v.SetDefault("storage.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.feed", 30)

	// Catalog defaults
	v.SetDefault("catalog.default_store", "SimpleSpendStore")
	v.SetDefault("catalog.default_category", "Atta & Grains")
	v.SetDefault("catalog.listing_policy", "replace")
	v.SetDefault("catalog.search_limit", 30)
	v.SetDefault("catalog.suggestion_limit", 10)
	v.SetDefault("catalog.deals_limit", 30)
	v.SetDefault("catalog.sources", []string{})
	v.SetDefault("catalog.schedule", "")
	v.SetDefault("catalog.seed_file", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.console", true)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 20)
}

// validate checks struct constraints and the rules spanning fields
func validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if config.Server.Environment == "production" && config.Server.AdminToken == "" {
		return fmt.Errorf("admin token is required in production (set %s_SERVER_ADMIN_TOKEN)", EnvPrefix)
	}

	if config.Catalog.Schedule != "" && len(config.Catalog.Sources) == 0 {
		return fmt.Errorf("catalog schedule %q needs at least one catalog source", config.Catalog.Schedule)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
