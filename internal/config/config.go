package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	DB struct {
		Host     string `env:"DB_HOST" envDefault:"localhost"`
		User     string `env:"DB_USER"`
		Password string `env:"DB_PASSWORD"`
		Name     string `env:"DB_NAME"`
		Port     string `env:"DB_PORT" envDefault:"5432"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		Prefix   string `env:"REDIS_PREFIX" envDefault:"shop:"`
	}

	// JWTSecret signs tokens issued by the bundled identity service.
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// FrontendURL is the upstream that guarded page requests are proxied to.
	FrontendURL string `env:"FRONTEND_URL"`

	Client struct {
		BaseURL string `env:"SHOP_BASE_URL" envDefault:"http://localhost:8080"`
		// Storage selects where the client keeps its session snapshot: "file" or "redis".
		Storage    string        `env:"SHOP_STORAGE" envDefault:"file"`
		StorageDir string        `env:"SHOP_STORAGE_DIR" envDefault:".shop"`
		Timeout    time.Duration `env:"SHOP_HTTP_TIMEOUT" envDefault:"10s"`
	}

	Breaker struct {
		MaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
		Interval    time.Duration `env:"BREAKER_INTERVAL" envDefault:"60s"`
		Timeout     time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	}
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port,
	)
}

// ValidateServer checks the settings the server binary cannot run without.
func (c *Config) ValidateServer() error {
	if c.DB.Name == "" || c.DB.User == "" {
		return ErrMissingDatabase
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
