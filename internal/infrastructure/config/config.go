package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store drivers selectable through STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// LogFile enables a daily rotated log file next to stdout when set.
	LogFile string `env:"LOG_FILE"`

	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`

	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Mongo    MongoConfig
	Database DatabaseConfig
	Redis    RedisConfig

	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
	ImageMaxBytes  int64         `env:"IMAGE_MAX_BYTES, default=5242880"`
	SnowflakeNode  int64         `env:"SNOWFLAKE_NODE,  default=1"` // 0-15
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
	// Transactions makes the ad cascade delete atomic and needs a replica set.
	// Standalone servers must set it to false.
	Transactions bool `env:"MONGO_TRANSACTIONS, default=true"`
}

// DatabaseConfig is used by the postgres and sqlite drivers.
type DatabaseConfig struct {
	DSN string `env:"DATABASE_DSN, default=file:marketplace.db?_foreign_keys=on"`
}

// RedisConfig is optional: an empty address disables idempotent ad creation.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Load reads a .env file when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ImageMaxBytes <= 0 {
		return fmt.Errorf("config: IMAGE_MAX_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
