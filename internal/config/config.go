package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"

	minSecretLength = 32
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Login    LoginConfig    `yaml:"login"`
	Seed     SeedConfig     `yaml:"seed"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PostgresConfig selects the directory backend; an empty DSN means in-memory.
type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

// RedisConfig selects the login counter backend; an empty Addr means in-memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

type LoginConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

// SeedConfig points at a YAML fixture loaded into the in-memory directory.
type SeedConfig struct {
	File string `yaml:"file"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Session: SessionConfig{
			CookieName: "portal_session",
			TTL:        7 * 24 * time.Hour,
		},
		Login: LoginConfig{
			MaxAttempts: 10,
			Window:      15 * time.Minute,
		},
	}
}

// Production reports whether the service runs in production, which turns on
// the Secure cookie attribute and makes the session secret mandatory.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Validate checks settings that must abort startup.
func (c Config) Validate() error {
	if c.Production() && c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required in production")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < minSecretLength {
		return fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Login.MaxAttempts < 0 {
		return fmt.Errorf("login max attempts must not be negative, got %d", c.Login.MaxAttempts)
	}
	return nil
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if err := overrideBool("POSTGRES_MIGRATE", &cfg.Postgres.Migrate); err != nil {
		return err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}
	if err := overrideDuration("SESSION_TTL", &cfg.Session.TTL); err != nil {
		return err
	}

	if err := overrideInt("LOGIN_MAX_ATTEMPTS", &cfg.Login.MaxAttempts); err != nil {
		return err
	}
	if err := overrideDuration("LOGIN_WINDOW", &cfg.Login.Window); err != nil {
		return err
	}

	if v := os.Getenv("SEED_FILE"); v != "" {
		cfg.Seed.File = v
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
