package confs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSecretKey = "change_me"
	DefaultModel     = "gemini-1.5-flash"
	DefaultRegion    = "Tamil Nadu, India"
)

// Config holds every environment-derived setting of the service. It is built
// once in main and handed to the components that need it.
type Config struct {
	Port    string
	GinMode string

	GeminiAPIKey string
	GeminiModel  string
	Region       string

	SecretKey  string
	JWTAlg     string
	TokenTTL   time.Duration
	BcryptCost int

	DB DBConfig

	RedisAddr          string
	RedisPassword      string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	LogLevel  string
	LogFormat string
}

// DBConfig is either a full connection URL or the individual parameters.
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Configured reports whether any database settings were provided at all.
func (d DBConfig) Configured() bool {
	return d.URL != "" || d.Host != ""
}

// UsesDefaultSecret is true when SECRET_KEY was not set.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

// LoadConfig loads environment variables from a .env file if present
// and builds the Config from the process environment.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return Load(os.Getenv)
}

// Load builds a Config using getenv for lookups.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:         env("PORT", "5000"),
		GinMode:      env("GIN_MODE", ""),
		GeminiAPIKey: getenv("GEMINI_API_KEY"),
		GeminiModel:  env("GEMINI_MODEL", DefaultModel),
		Region:       env("ADVISOR_REGION", DefaultRegion),
		SecretKey:    env("SECRET_KEY", DefaultSecretKey),
		JWTAlg:       env("JWT_ALG", "HS256"),
		DB: DBConfig{
			URL:      getenv("DB_URL"),
			Host:     getenv("DB_HOST"),
			Port:     getenv("DB_PORT"),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME"),
		},
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogFormat:     env("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.TokenTTL, err = parseDuration(env("TOKEN_TTL", "1h"), "TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration(env("ADVISORY_CACHE_TTL", "15m"), "ADVISORY_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = parseDuration(env("CACHE_SWEEP_INTERVAL", "5m"), "CACHE_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	cost, err := strconv.Atoi(env("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	cfg.BcryptCost = cost

	return cfg, nil
}

func parseDuration(value, name string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", name, d)
	}
	return d, nil
}
