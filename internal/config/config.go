// Package config loads brepview settings from BREPVIEW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration.
type Config struct {
	Addr            string        `env:"BREPVIEW_ADDR" envDefault:":8080"`
	UploadDir       string        `env:"BREPVIEW_UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes  int64         `env:"BREPVIEW_MAX_UPLOAD_BYTES" envDefault:"16777216"`
	Tolerance       float64       `env:"BREPVIEW_TOLERANCE" envDefault:"0.1"`
	ScriptTimeout   time.Duration `env:"BREPVIEW_SCRIPT_TIMEOUT" envDefault:"5s"`
	MaxScripts      int           `env:"BREPVIEW_MAX_SCRIPTS" envDefault:"4"`
	RateLimit       float64       `env:"BREPVIEW_RATE_LIMIT" envDefault:"10"`
	RateBurst       int           `env:"BREPVIEW_RATE_BURST" envDefault:"20"`
	LogLevel        string        `env:"BREPVIEW_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"BREPVIEW_LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"BREPVIEW_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("BREPVIEW_ADDR must not be empty"))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("BREPVIEW_UPLOAD_DIR must not be empty"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("BREPVIEW_MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("BREPVIEW_TOLERANCE must be positive, got %g", c.Tolerance))
	}
	if c.ScriptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BREPVIEW_SCRIPT_TIMEOUT must be positive, got %s", c.ScriptTimeout))
	}
	if c.MaxScripts <= 0 {
		errs = append(errs, fmt.Errorf("BREPVIEW_MAX_SCRIPTS must be positive, got %d", c.MaxScripts))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("BREPVIEW_RATE_LIMIT and BREPVIEW_RATE_BURST must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("BREPVIEW_LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
