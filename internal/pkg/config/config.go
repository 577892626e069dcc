package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Durable geocode cache backends.
const (
	CacheRedis    = "redis"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development" validate:"oneof=development staging production test"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Geocoder GeocoderConfig
	Cache    CacheConfig
	Hub      HubConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tracking_live"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type GeocoderConfig struct {
	BaseURL     string        `env:"GEOCODER_URL,          default=https://nominatim.openstreetmap.org" validate:"url"`
	UserAgent   string        `env:"GEOCODER_USER_AGENT,   default=tracking-live/1.0" validate:"required"`
	Timeout     time.Duration `env:"GEOCODER_TIMEOUT,      default=10s" validate:"gt=0"`
	MinInterval time.Duration `env:"GEOCODER_MIN_INTERVAL, default=1s"  validate:"gte=0"`
	MaxAttempts int           `env:"GEOCODER_MAX_ATTEMPTS, default=3"   validate:"min=1"`
}

type CacheConfig struct {
	Backend     string `env:"GEOCODE_CACHE,        default=redis" validate:"oneof=redis sqlite postgres none"`
	SQLitePath  string `env:"GEOCODE_SQLITE_PATH,  default=geocode.db"`
	PostgresDSN string `env:"GEOCODE_POSTGRES_DSN"`
	Prefix      string `env:"GEOCODE_PREFIX,       default=geocode:"`
}

type HubConfig struct {
	Workers      int    `env:"HUB_WORKERS,       default=8" validate:"min=1"`
	RelayEnabled bool   `env:"HUB_RELAY_ENABLED, default=true"`
	RelayChannel string `env:"HUB_RELAY_CHANNEL, default=tracking:events"`
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Sprintf("config: failed to read .env: %v", err))
	}
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the settings each cache backend needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Cache.Backend == CachePostgres && c.Cache.PostgresDSN == "" {
		return errors.New("config: GEOCODE_POSTGRES_DSN is required for the postgres cache")
	}
	if c.Cache.Backend == CacheSQLite && c.Cache.SQLitePath == "" {
		return errors.New("config: GEOCODE_SQLITE_PATH is required for the sqlite cache")
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required in production")
	}
	return nil
}
