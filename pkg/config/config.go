package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // Africa/Tripoli on hosts without zoneinfo

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Redis       RedisConfig       `mapstructure:"redis"`
	OTel        OTelConfig        `mapstructure:"otel"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Warmer      WarmerConfig      `mapstructure:"warmer"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	TimeZone    string `mapstructure:"time_zone"`
}

// Location resolves the marketplace time zone used to compute "today"
func (a *AppConfig) Location() (*time.Location, error) {
	if a.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.TimeZone)
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// MarketplaceConfig points at the marketplace REST API that owns listings and bookings
type MarketplaceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// PricingConfig holds quote settings
type PricingConfig struct {
	Currency       string          `mapstructure:"currency"`
	ServiceFeeRate decimal.Decimal `mapstructure:"service_fee_rate"`
	MaxStayNights  int             `mapstructure:"max_stay_nights"`
}

// CacheConfig holds availability cache settings
type CacheConfig struct {
	LocalTTL     time.Duration `mapstructure:"local_ttl"`
	LocalMaxSize int64         `mapstructure:"local_max_size"`
	RedisTTL     time.Duration `mapstructure:"redis_ttl"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// WarmerConfig holds availability warmer settings
type WarmerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	PropertyIDs []string      `mapstructure:"property_ids"`
	HorizonDays int           `mapstructure:"horizon_days"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, environment variables are enough
	if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "libya-stays-quote")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_TIME_ZONE", "Africa/Tripoli")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8086)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "libya-stays-quote")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Marketplace API defaults
	v.SetDefault("MARKETPLACE_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("MARKETPLACE_TIMEOUT", "5s")
	v.SetDefault("MARKETPLACE_MAX_RETRIES", 3)

	// Pricing defaults
	v.SetDefault("PRICING_CURRENCY", "LYD")
	v.SetDefault("PRICING_SERVICE_FEE_RATE", "0.10")
	v.SetDefault("PRICING_MAX_STAY_NIGHTS", 365)

	// Cache defaults
	v.SetDefault("CACHE_LOCAL_TTL", "30s")
	v.SetDefault("CACHE_LOCAL_MAX_SIZE", 10000)
	v.SetDefault("CACHE_REDIS_TTL", "5m")
	v.SetDefault("CACHE_FETCH_TIMEOUT", "30s")

	// Warmer defaults
	v.SetDefault("WARMER_INTERVAL", "1m")
	v.SetDefault("WARMER_PROPERTY_IDS", "")
	v.SetDefault("WARMER_HORIZON_DAYS", 90)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")
	cfg.App.TimeZone = v.GetString("APP_TIME_ZONE")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Redis
	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Marketplace
	cfg.Marketplace.BaseURL = strings.TrimRight(v.GetString("MARKETPLACE_BASE_URL"), "/")
	cfg.Marketplace.Timeout = v.GetDuration("MARKETPLACE_TIMEOUT")
	cfg.Marketplace.MaxRetries = v.GetInt("MARKETPLACE_MAX_RETRIES")

	// Pricing
	cfg.Pricing.Currency = strings.ToUpper(v.GetString("PRICING_CURRENCY"))
	rate, err := decimal.NewFromString(v.GetString("PRICING_SERVICE_FEE_RATE"))
	if err != nil {
		return fmt.Errorf("invalid PRICING_SERVICE_FEE_RATE: %w", err)
	}
	cfg.Pricing.ServiceFeeRate = rate
	cfg.Pricing.MaxStayNights = v.GetInt("PRICING_MAX_STAY_NIGHTS")

	// Cache
	cfg.Cache.LocalTTL = v.GetDuration("CACHE_LOCAL_TTL")
	cfg.Cache.LocalMaxSize = v.GetInt64("CACHE_LOCAL_MAX_SIZE")
	cfg.Cache.RedisTTL = v.GetDuration("CACHE_REDIS_TTL")
	cfg.Cache.FetchTimeout = v.GetDuration("CACHE_FETCH_TIMEOUT")

	// Warmer
	cfg.Warmer.Interval = v.GetDuration("WARMER_INTERVAL")
	cfg.Warmer.PropertyIDs = splitList(v.GetString("WARMER_PROPERTY_IDS"))
	cfg.Warmer.HorizonDays = v.GetInt("WARMER_HORIZON_DAYS")

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.App.TimeZone, err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Marketplace.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid marketplace base url: %q", c.Marketplace.BaseURL)
	}

	if c.Marketplace.MaxRetries < 0 {
		return fmt.Errorf("marketplace max retries must not be negative")
	}

	if len(c.Pricing.Currency) != 3 {
		return fmt.Errorf("invalid currency code: %q", c.Pricing.Currency)
	}

	if c.Pricing.ServiceFeeRate.IsNegative() || c.Pricing.ServiceFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("service fee rate must be in [0, 1): %s", c.Pricing.ServiceFeeRate)
	}

	if c.Pricing.MaxStayNights <= 0 {
		return fmt.Errorf("max stay nights must be positive")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
