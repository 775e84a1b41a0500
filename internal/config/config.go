// Package config loads the fixpoint configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIXPOINT_"

// Config holds all fixpoint configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string  `yaml:"addr" validate:"required"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" validate:"gt=0"`
	RateLimit    float64 `yaml:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
	Burst        int     `yaml:"burst" validate:"gte=1"`
	// RequestTimeout is a Go duration string.
	RequestTimeout string `yaml:"request_timeout" validate:"required,duration"`
}

// SearchConfig configures the root search.
type SearchConfig struct {
	Workers          int     `yaml:"workers" validate:"gte=0"` // 0 is one goroutine per seed
	ToleranceScale   float64 `yaml:"tolerance_scale" validate:"gt=0"`
	Dedupe           bool    `yaml:"dedupe"`
	SerializeEval    bool    `yaml:"serialize_eval"`
	DefaultMaxIter   int     `yaml:"default_max_iter" validate:"gt=0"`
	DefaultTolerance float64 `yaml:"default_tolerance" validate:"gt=0"`
}

// AnalysisConfig configures critical-point extraction.
type AnalysisConfig struct {
	Digits    int     `yaml:"digits" validate:"gte=1,lte=15"`
	ScanRange float64 `yaml:"scan_range" validate:"gte=0"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type TracingConfig struct {
	Exporter string `yaml:"exporter" validate:"oneof=none stdout"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("duration", validateDuration)
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxBodyBytes:   1 << 20,
			RateLimit:      20,
			Burst:          40,
			RequestTimeout: "30s",
		},
		Search: SearchConfig{
			Workers:          8,
			ToleranceScale:   1000,
			DefaultMaxIter:   500,
			DefaultTolerance: 1e-6,
		},
		Analysis: AnalysisConfig{
			Digits: 6,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error, and
// an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetRequestTimeout returns the server request timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// applyEnvOverrides applies FIXPOINT_* environment variables.
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.str("SERVER_ADDR", &c.Server.Addr)
	env.integer64("SERVER_MAX_BODY_BYTES", &c.Server.MaxBodyBytes)
	env.number("SERVER_RATE_LIMIT", &c.Server.RateLimit)
	env.integer("SERVER_BURST", &c.Server.Burst)
	env.str("SERVER_REQUEST_TIMEOUT", &c.Server.RequestTimeout)

	env.integer("SEARCH_WORKERS", &c.Search.Workers)
	env.number("SEARCH_TOLERANCE_SCALE", &c.Search.ToleranceScale)
	env.boolean("SEARCH_DEDUPE", &c.Search.Dedupe)
	env.boolean("SEARCH_SERIALIZE_EVAL", &c.Search.SerializeEval)
	env.integer("SEARCH_DEFAULT_MAX_ITER", &c.Search.DefaultMaxIter)
	env.number("SEARCH_DEFAULT_TOLERANCE", &c.Search.DefaultTolerance)

	env.integer("ANALYSIS_DIGITS", &c.Analysis.Digits)
	env.number("ANALYSIS_SCAN_RANGE", &c.Analysis.ScanRange)

	env.str("LOGGING_LEVEL", &c.Logging.Level)
	env.boolean("LOGGING_DEVELOPMENT", &c.Logging.Development)

	env.str("TRACING_EXPORTER", &c.Tracing.Exporter)

	return env.err
}

// envReader keeps the first conversion error so overrides read as a flat
// list.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) get(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) fail(key, v string, err error) {
	r.err = fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	if v, ok := r.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) integer64(key string, dst *int64) {
	if v, ok := r.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) number(key string, dst *float64) {
	if v, ok := r.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	if v, ok := r.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = b
	}
}
