package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSecret        = "dev_secret"
	DefaultAdminPassword = "admin123"

	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

// Config holds application configuration values.
type Config struct {
	Env      string         `toml:"env"`
	LogLevel string         `toml:"log_level"`
	HTTPPort string         `toml:"http_port"`
	Database DatabaseConfig `toml:"database"`
	Session  SessionConfig  `toml:"session"`
	Redis    RedisConfig    `toml:"redis"`
	Seed     SeedConfig     `toml:"seed"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type SessionConfig struct {
	Store         string   `toml:"store"`
	Secret        string   `toml:"secret"`
	TTL           Duration `toml:"ttl"`
	SecureCookies bool     `toml:"secure_cookies"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SeedConfig controls first-boot provisioning. The admin defaults exist for
// local demos only and must be overridden anywhere else.
type SeedConfig struct {
	AdminUsername string `toml:"admin_username"`
	AdminPassword string `toml:"admin_password"`
	CatalogPath   string `toml:"catalog_path"`
}

// Duration decodes TOML strings such as "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// Load reads configuration from defaults, an optional TOML file and
// environment variables, in that order of precedence.
func Load() (Config, error) {
	cfg := defaultConfig()

	path := getEnv("CONFIG_FILE", "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := overrideByEnv(&cfg); err != nil {
		return Config{}, err
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	switch cfg.Database.Driver {
	case "sqlite", "pgx":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.Session.Store {
	case SessionStoreCookie:
	case SessionStoreRedis:
		if cfg.Redis.Addr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}

	if cfg.Session.TTL.Duration <= 0 {
		cfg.Session.TTL.Duration = 24 * time.Hour
	}

	return cfg, nil
}

// HTTPAddr is the listen address for the HTTP server.
func (c Config) HTTPAddr() string {
	return ":" + c.HTTPPort
}

func defaultConfig() Config {
	return Config{
		Env:      "dev",
		LogLevel: "info",
		HTTPPort: "8080",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "music.db",
		},
		Session: SessionConfig{
			Store:  SessionStoreCookie,
			Secret: DefaultSecret,
			TTL:    Duration{24 * time.Hour},
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},
		Seed: SeedConfig{
			AdminUsername: "admin",
			AdminPassword: DefaultAdminPassword,
		},
	}
}

func overrideByEnv(cfg *Config) error {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)

	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_DSN", cfg.Database.DSN)

	cfg.Session.Store = getEnv("SESSION_STORE", cfg.Session.Store)
	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.Session.TTL.Duration = ttl
	}
	if raw := os.Getenv("SECURE_COOKIES"); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIES: %w", err)
		}
		cfg.Session.SecureCookies = secure
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.Seed.AdminUsername = getEnv("ADMIN_USERNAME", cfg.Seed.AdminUsername)
	cfg.Seed.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.Seed.AdminPassword)
	cfg.Seed.CatalogPath = getEnv("CATALOG_SEED_PATH", cfg.Seed.CatalogPath)
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
