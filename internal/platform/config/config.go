package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DevJWTSecret signs tokens in memory mode only; postgres deployments must set
// their own JWT_SECRET.
const DevJWTSecret = "ballotbox-dev-secret"

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"ballotbox"`
	HTTPPort    string `yaml:"http_port" env:"HTTP_PORT" env-default:"8080"`
	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`

	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"ballotbox-dev-secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"24h"`

	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"2s"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size" env:"OUTBOX_BATCH_SIZE" env-default:"100"`

	// SeedDemo is auto, true or false. Auto seeds in memory mode only.
	SeedDemo      string `yaml:"seed_demo_data" env:"SEED_DEMO_DATA" env-default:"auto"`
	SeedDemoData  bool   `yaml:"-"`
	RunMigrations bool   `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"true"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// Load reads an optional .env file, then the YAML file named by CONFIG_PATH
// when set, then the process environment. Environment values win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from env: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	seed := strings.ToLower(strings.TrimSpace(c.SeedDemo))
	if seed == "" || seed == "auto" {
		c.SeedDemoData = c.MemoryMode()
		return nil
	}
	enabled, err := strconv.ParseBool(seed)
	if err != nil {
		return fmt.Errorf("SEED_DEMO_DATA must be auto, true or false: %w", err)
	}
	c.SeedDemoData = enabled
	return nil
}

// MemoryMode reports whether the process should run on in-memory stores.
func (c Config) MemoryMode() bool {
	return strings.TrimSpace(c.PostgresDSN) == ""
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if !c.MemoryMode() && c.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be set when POSTGRES_DSN is configured")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("OUTBOX_POLL_INTERVAL must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
