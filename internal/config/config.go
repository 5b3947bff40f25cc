// Package config loads service configuration from a YAML file, an optional
// .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"salesdocs/internal/core/numerator"
	"salesdocs/internal/infrastructure/storage/postgres"
)

// Counter store backends.
const (
	CounterStorePostgres = "postgres"
	CounterStoreSQLite   = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Numbering NumberingConfig `yaml:"numbering"`
	Notify    NotifyConfig    `yaml:"notify"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	MinConns    int32  `yaml:"min_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// KindOverride replaces parts of a kind's default numbering scheme.
type KindOverride struct {
	Counter     string `yaml:"counter"`
	Granularity string `yaml:"granularity"`
}

type NumberingConfig struct {
	Timezone             string                       `yaml:"timezone"`
	MaxAttempts          int                          `yaml:"max_attempts"`
	PersistAttempts      int                          `yaml:"persist_attempts"`
	DuplicateCheckPolicy string                       `yaml:"duplicate_check_policy"`
	CounterStore         string                       `yaml:"counter_store"`
	SQLitePath           string                       `yaml:"sqlite_path"`
	Kinds                map[string]KindOverride      `yaml:"kinds"`
	Registry             map[string][]postgres.Target `yaml:"registry"`
}

type NotifyConfig struct {
	Webhooks  []string      `yaml:"webhooks"`
	QueueSize int           `yaml:"queue_size"`
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	// Required rejects unauthenticated API calls.
	Required bool `yaml:"required"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{MaxConns: 20, MinConns: 2},
		Log:      LogConfig{Level: "info"},
		Numbering: NumberingConfig{
			Timezone:             numerator.DefaultTimezone,
			MaxAttempts:          numerator.DefaultMaxAttempts,
			PersistAttempts:      3,
			DuplicateCheckPolicy: string(numerator.FailOpen),
			CounterStore:         CounterStorePostgres,
			SQLitePath:           "salesdocs-counters.db",
		},
		Notify: NotifyConfig{QueueSize: 256, Workers: 2, Timeout: 5 * time.Second},
		Auth:   AuthConfig{Issuer: "salesdocs"},
		CORS:   CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load reads path (optional), then .env, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("SALESDOCS_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "APP_ENV")
	setString(&c.Server.Port, "APP_PORT")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("NUMBERING_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NUMBERING_MAX_ATTEMPTS: %w", err)
		}
		c.Numbering.MaxAttempts = n
	}
	if v := os.Getenv("NUMBERING_FAIL_CLOSED"); v != "" {
		closed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NUMBERING_FAIL_CLOSED: %w", err)
		}
		c.Numbering.DuplicateCheckPolicy = string(numerator.FailOpen)
		if closed {
			c.Numbering.DuplicateCheckPolicy = string(numerator.FailClosed)
		}
	}
	if v := os.Getenv("WEBHOOK_URLS"); v != "" {
		c.Notify.Webhooks = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDevelopment reports whether the service runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	n := c.Numbering
	if n.MaxAttempts <= 0 {
		errs = append(errs, errors.New("numbering.max_attempts must be positive"))
	}
	if n.PersistAttempts <= 0 {
		errs = append(errs, errors.New("numbering.persist_attempts must be positive"))
	}
	switch numerator.DuplicateCheckPolicy(n.DuplicateCheckPolicy) {
	case numerator.FailOpen, numerator.FailClosed:
	default:
		errs = append(errs, fmt.Errorf("numbering.duplicate_check_policy %q is not fail_open or fail_closed", n.DuplicateCheckPolicy))
	}
	switch n.CounterStore {
	case CounterStorePostgres:
	case CounterStoreSQLite:
		if n.SQLitePath == "" {
			errs = append(errs, errors.New("numbering.sqlite_path is required for the sqlite counter store"))
		}
	default:
		errs = append(errs, fmt.Errorf("numbering.counter_store %q is not postgres or sqlite", n.CounterStore))
	}
	if _, err := c.Schemes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RegistryTargets(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth.required is set"))
	}
	return errors.Join(errs...)
}

// Schemes applies per-kind overrides to the default numbering schemes.
func (c Config) Schemes() (numerator.Schemes, error) {
	schemes := numerator.DefaultSchemes()
	for name, o := range c.Numbering.Kinds {
		kind, err := numerator.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("numbering.kinds: %w", err)
		}
		s := schemes[kind]
		if o.Counter != "" {
			counter, err := numerator.ParseKind(o.Counter)
			if err != nil {
				return nil, fmt.Errorf("numbering.kinds.%s.counter: %w", name, err)
			}
			s.CounterKind = counter
		}
		if o.Granularity != "" {
			g, err := numerator.ParseGranularity(o.Granularity)
			if err != nil {
				return nil, fmt.Errorf("numbering.kinds.%s.granularity: %w", name, err)
			}
			s.Granularity = g
		}
		schemes[kind] = s
	}
	return schemes, nil
}

// RegistryTargets returns the duplicate registry layout with overrides applied.
func (c Config) RegistryTargets() (map[numerator.Kind][]postgres.Target, error) {
	targets := postgres.DefaultTargets()
	for name, list := range c.Numbering.Registry {
		kind, err := numerator.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("numbering.registry: %w", err)
		}
		targets[kind] = list
	}
	return targets, nil
}

// NumeratorConfig builds the numbering service configuration.
func (c Config) NumeratorConfig() (numerator.Config, error) {
	schemes, err := c.Schemes()
	if err != nil {
		return numerator.Config{}, err
	}
	return numerator.Config{
		MaxAttempts: c.Numbering.MaxAttempts,
		Policy:      numerator.DuplicateCheckPolicy(c.Numbering.DuplicateCheckPolicy),
		Location:    numerator.BusinessLocation(c.Numbering.Timezone),
		Schemes:     schemes,
	}, nil
}

// PoolConfig builds the PostgreSQL pool configuration.
func (c Config) PoolConfig() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.Database.URL)
	if c.Database.MaxConns > 0 {
		pc.MaxConns = c.Database.MaxConns
	}
	if c.Database.MinConns > 0 {
		pc.MinConns = c.Database.MinConns
	}
	return pc
}
