package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppPort string `envconfig:"APP_PORT" default:"8080"`

	// StoreDriver selects the ledger backend: "postgres" or "memory".
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            string        `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword        string        `envconfig:"DB_PASSWORD"`
	DBName            string        `envconfig:"DB_NAME" default:"evently"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	InitDB            bool          `envconfig:"INIT_DB" default:"false"`

	RedisHost     string        `envconfig:"REDIS_HOST"`
	RedisPort     string        `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	TxMaxAttempts            int           `envconfig:"TX_MAX_ATTEMPTS" default:"3"`
	TxRetryBaseDelay         time.Duration `envconfig:"TX_RETRY_BASE_DELAY" default:"25ms"`
	AnalyticsRefreshMode     string        `envconfig:"ANALYTICS_REFRESH_MODE" default:"event"`
	AnalyticsRebuildInterval time.Duration `envconfig:"ANALYTICS_REBUILD_INTERVAL" default:"5m"`

	AdminJWTSecret string `envconfig:"ADMIN_JWT_SECRET"`

	OtelEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelAuthHeader string `envconfig:"OTEL_AUTH_HEADER"`
	OtelInsecure   bool   `envconfig:"OTEL_INSECURE" default:"true"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want postgres or memory", c.StoreDriver)
	}
	if c.TxMaxAttempts < 1 {
		return fmt.Errorf("invalid TX_MAX_ATTEMPTS %d: must be at least 1", c.TxMaxAttempts)
	}
	if c.AnalyticsRebuildInterval < 0 {
		return fmt.Errorf("invalid ANALYTICS_REBUILD_INTERVAL %s", c.AnalyticsRebuildInterval)
	}
	return nil
}

// PostgresDSN prefers DATABASE_URL and falls back to the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}
