// Package config provides functionality for managing configuration options
// for the server using a JSON file, command-line flags and environment variables.
//
// Sources are applied in increasing priority: built-in defaults, the JSON file,
// explicitly passed flags, environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `env:"SERVER_ADDRESS"`

	// DatabaseDSN is the PostgreSQL connection string. Empty selects the in-memory store.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// JWTSecret is the HMAC key used to sign identity tokens.
	JWTSecret string `env:"JWT_SECRET"`

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `env:"TOKEN_TTL"`

	// LogLevel is a zap level name.
	LogLevel string `env:"LOG_LEVEL"`

	// Environment is "development" or "production".
	Environment string `env:"APP_ENV"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Config is the path to the JSON config file.
	Config string `env:"CONFIG"`
}

// fileOptions is the JSON shape of the config file.
type fileOptions struct {
	Port        string `json:"server_address"`
	DatabaseDSN string `json:"database_dsn"`
	JWTSecret   string `json:"jwt_secret"`
	TokenTTL    string `json:"token_ttl"`
	LogLevel    string `json:"log_level"`
	Environment string `json:"environment"`
	TLSCertFile string `json:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		Port:        "localhost:8080",
		TokenTTL:    30 * 24 * time.Hour,
		LogLevel:    "info",
		Environment: "development",
	}
}

// Parse loads the configuration from os.Args and the environment, exiting the
// process on error.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return opts
}

// Load builds Options from the given command-line arguments and the process environment.
func Load(args []string) (*Options, error) {
	opts := Defaults()

	// First pass only discovers the config file path.
	probe := opts
	if err := newFlagSet(&probe).Parse(args); err != nil {
		return nil, err
	}
	if p := os.Getenv("CONFIG"); p != "" {
		probe.Config = p
	}
	opts.Config = probe.Config

	if opts.Config != "" {
		if err := loadFile(opts.Config, &opts); err != nil {
			return nil, err
		}
	}

	// Second pass: flags default to what the file produced, so only flags that
	// were passed explicitly override it.
	if err := newFlagSet(&opts).Parse(args); err != nil {
		return nil, err
	}

	if err := env.Parse(&opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if opts.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", opts.TokenTTL)
	}
	return &opts, nil
}

func newFlagSet(o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.JWTSecret, "s", o.JWTSecret, "token signing secret")
	fs.DurationVar(&o.TokenTTL, "t", o.TokenTTL, "token lifetime")
	fs.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	fs.StringVar(&o.Environment, "e", o.Environment, "environment: development | production")
	fs.StringVar(&o.TLSCertFile, "tls-cert", o.TLSCertFile, "path to TLS certificate")
	fs.StringVar(&o.TLSKeyFile, "tls-key", o.TLSKeyFile, "path to TLS private key")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
	return fs
}

// loadFile overlays non-empty values from the JSON file at path onto o.
// A missing file is not an error.
func loadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var f fileOptions
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setIf(&o.Port, f.Port)
	setIf(&o.DatabaseDSN, f.DatabaseDSN)
	setIf(&o.JWTSecret, f.JWTSecret)
	setIf(&o.LogLevel, f.LogLevel)
	setIf(&o.Environment, f.Environment)
	setIf(&o.TLSCertFile, f.TLSCertFile)
	setIf(&o.TLSKeyFile, f.TLSKeyFile)
	if f.TokenTTL != "" {
		ttl, err := time.ParseDuration(f.TokenTTL)
		if err != nil {
			return fmt.Errorf("parse token_ttl: %w", err)
		}
		o.TokenTTL = ttl
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// TLSEnabled reports whether both certificate and key paths are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCertFile != "" && o.TLSKeyFile != ""
}
