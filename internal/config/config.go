// Package config resolves runtime settings: defaults, then an optional YAML
// file, then environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// minSecretLen is the shortest JWT secret accepted for HMAC-SHA256.
const minSecretLen = 32

// Config is the resolved runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	DefaultRegion string `yaml:"default_region"`
	LogLevel      string `yaml:"log_level"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr         string `yaml:"addr"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig configures credential hashing, tokens, and login throttling.
type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	Issuer              string        `yaml:"issuer"`
	CredentialAlgorithm string        `yaml:"credential_algorithm"`
	BcryptCost          int           `yaml:"bcrypt_cost"`
	MaxConcurrentHashes int           `yaml:"max_concurrent_hashes"`
	LoginRate           float64       `yaml:"login_rate"`
	LoginBurst          float64       `yaml:"login_burst"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			CookieSecure: true,
		},
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			Path:     "localmarket.db",
			MaxConns: 10,
		},
		Auth: AuthConfig{
			TokenTTL:            24 * time.Hour,
			Issuer:              "localmarket",
			CredentialAlgorithm: "bcrypt",
			BcryptCost:          12,
			LoginRate:           0.2,
			LoginBurst:          10,
		},
		DefaultRegion: "당근동",
		LogLevel:      "info",
	}
}

// Load resolves the configuration from args (without the program name) and
// the environment read through getenv. It returns pflag.ErrHelp when help
// was requested.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()

	flagSet := pflag.NewFlagSet("localmarket", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to a YAML config file")
	addr := flagSet.String("addr", cfg.HTTP.Addr, "HTTP listen address")
	driver := flagSet.String("db-driver", cfg.Database.Driver, "database driver: sqlite or postgres")
	dbPath := flagSet.String("db-path", cfg.Database.Path, "SQLite database file")
	dsn := flagSet.String("db-dsn", "", "PostgreSQL connection string")
	algorithm := flagSet.String("credential-algorithm", cfg.Auth.CredentialAlgorithm, "password hashing: bcrypt or argon2id")
	bcryptCost := flagSet.Int("bcrypt-cost", cfg.Auth.BcryptCost, "bcrypt cost (4-14)")
	logLevel := flagSet.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if flagSet.Changed("addr") {
		cfg.HTTP.Addr = *addr
	}
	if flagSet.Changed("db-driver") {
		cfg.Database.Driver = *driver
	}
	if flagSet.Changed("db-path") {
		cfg.Database.Path = *dbPath
	}
	if flagSet.Changed("db-dsn") {
		cfg.Database.DSN = *dsn
	}
	if flagSet.Changed("credential-algorithm") {
		cfg.Auth.CredentialAlgorithm = *algorithm
	}
	if flagSet.Changed("bcrypt-cost") {
		cfg.Auth.BcryptCost = *bcryptCost
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	// Secure cookies stay on unless explicitly disabled for local development.
	if getenv("COOKIE_SECURE") == "false" {
		cfg.HTTP.CookieSecure = false
	}
	if v := getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if v := getenv("CREDENTIAL_ALGORITHM"); v != "" {
		cfg.Auth.CredentialAlgorithm = v
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.Auth.BcryptCost = n
	}
	if v := getenv("DEFAULT_REGION"); v != "" {
		cfg.DefaultRegion = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
		if c.Database.MaxConns < 1 {
			errs = append(errs, errors.New("database.max_conns must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not sqlite or postgres", c.Database.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.CredentialAlgorithm != "bcrypt" && c.Auth.CredentialAlgorithm != "argon2id" {
		errs = append(errs, fmt.Errorf("auth.credential_algorithm %q is not bcrypt or argon2id", c.Auth.CredentialAlgorithm))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.MaxConcurrentHashes < 0 {
		errs = append(errs, errors.New("auth.max_concurrent_hashes must not be negative"))
	}
	if c.Auth.LoginRate < 0 {
		errs = append(errs, errors.New("auth.login_rate must not be negative"))
	}
	if c.Auth.LoginBurst < 1 {
		errs = append(errs, errors.New("auth.login_burst must be at least 1"))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
