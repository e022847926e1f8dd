package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/msomdec/localmarket/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, envMap(map[string]string{"JWT_SECRET": testSecret}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Database.Driver != config.DriverSQLite || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.HTTP.CookieSecure {
		t.Fatal("expected secure cookies by default")
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
http:
  addr: ":7000"
database:
  driver: postgres
  dsn: postgres://file/db
  max_conns: 4
auth:
  token_ttl: 2h
  bcrypt_cost: 10
  credential_algorithm: argon2id
log_level: debug
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	env := envMap(map[string]string{
		"JWT_SECRET":    testSecret,
		"DATABASE_URL":  "postgres://env/db",
		"BCRYPT_COST":   "11",
		"COOKIE_SECURE": "false",
	})
	cfg, err := config.Load([]string{"--config", path, "--bcrypt-cost", "5"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.HTTP.Addr != ":7000" {
		t.Fatalf("file should set addr, got %q", cfg.HTTP.Addr)
	}
	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("env should override file dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Auth.BcryptCost != 5 {
		t.Fatalf("flag should override env bcrypt cost, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.CredentialAlgorithm != "argon2id" {
		t.Fatalf("expected argon2id, got %q", cfg.Auth.CredentialAlgorithm)
	}
	if cfg.HTTP.CookieSecure {
		t.Fatal("COOKIE_SECURE=false should disable secure cookies")
	}
	if level, _ := cfg.SlogLevel(); level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := config.Load([]string{"--help"}, envMap(nil)); !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if _, err := config.Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, envMap(nil)); err == nil {
		t.Fatal("expected error for missing config file")
	}
	if _, err := config.Load(nil, envMap(map[string]string{"BCRYPT_COST": "high"})); err == nil {
		t.Fatal("expected error for non-numeric BCRYPT_COST")
	}
	if _, err := config.Load(nil, envMap(map[string]string{"TOKEN_TTL": "forever"})); err == nil {
		t.Fatal("expected error for bad TOKEN_TTL")
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "short"
	cfg.Auth.BcryptCost = 99
	cfg.Database.Driver = "mysql"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"JWT_SECRET", "BCRYPT_COST", "mysql", "log_level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err)
		}
	}
}

func TestValidate_MissingSecret(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}
