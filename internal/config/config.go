// Package config provides configuration loading and validation for the
// client. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the client.
type Config struct {
	// Remote point API
	APIBaseURL     string `koanf:"api_base_url"`
	RequestTimeout int    `koanf:"request_timeout_seconds"`

	// Runtime environment (development, production)
	Env string `koanf:"env"`

	// Bearer token for the point API. May be empty; unauthenticated
	// clients can still browse, favorites require a token.
	Token string `koanf:"token"`

	// Initial viewport center. Both must be set together; when unset the
	// built-in default center is used.
	CenterLat float64 `koanf:"center_lat"`
	CenterLng float64 `koanf:"center_lng"`

	// Prometheus metrics listener. Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"tracing_exporter"`
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
}

// Configuration validation errors.
var (
	ErrMissingAPIBaseURL = errors.New("PINMAP_API_BASE_URL is required")
	ErrInvalidTimeout    = errors.New("PINMAP_REQUEST_TIMEOUT_SECONDS must be a positive integer")
	ErrPartialCenter     = errors.New("PINMAP_CENTER_LAT and PINMAP_CENTER_LNG must be set together")
	ErrInvalidCoordinate = errors.New("center coordinates must be valid floats")
	ErrInvalidSampleRate = errors.New("PINMAP_TRACING_SAMPLE_RATE must be between 0.0 and 1.0")
)

// Default values for non-secret configuration.
const (
	DefaultEnv             = "development"
	DefaultRequestTimeout  = 15
	DefaultTracingExporter = "otlp-http"
	DefaultSampleRate      = 1.0
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be loaded,
// an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	timeout, timeoutErr := getEnvIntOrDefault("PINMAP_REQUEST_TIMEOUT_SECONDS", k.Int("request_timeout_seconds"), DefaultRequestTimeout)
	if timeoutErr != nil {
		loadErrs = append(loadErrs, timeoutErr)
	}

	centerLat, latSet, latErr := getEnvFloat("PINMAP_CENTER_LAT", k, "center_lat")
	if latErr != nil {
		loadErrs = append(loadErrs, latErr)
	}
	centerLng, lngSet, lngErr := getEnvFloat("PINMAP_CENTER_LNG", k, "center_lng")
	if lngErr != nil {
		loadErrs = append(loadErrs, lngErr)
	}
	if latSet != lngSet {
		loadErrs = append(loadErrs, ErrPartialCenter)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("PINMAP_TRACING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	sampleRate, rateErr := getEnvFloatOrDefault("PINMAP_TRACING_SAMPLE_RATE", k.Float64("tracing_sample_rate"), DefaultSampleRate)
	if rateErr != nil {
		loadErrs = append(loadErrs, rateErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		APIBaseURL:        getEnvOrKoanf("PINMAP_API_BASE_URL", k, "api_base_url"),
		RequestTimeout:    timeout,
		Env:               getEnvOrDefaultMulti([]string{"PINMAP_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		Token:             getEnvOrKoanf("PINMAP_TOKEN", k, "token"),
		CenterLat:         centerLat,
		CenterLng:         centerLng,
		MetricsAddr:       getEnvOrKoanf("PINMAP_METRICS_ADDR", k, "metrics_addr"),
		TracingEnabled:    tracingEnabled,
		TracingExporter:   getEnvOrDefault("PINMAP_TRACING_EXPORTER", k.String("tracing_exporter"), DefaultTracingExporter),
		OTLPEndpoint:      getEnvOrKoanf("PINMAP_OTLP_ENDPOINT", k, "otlp_endpoint"),
		TracingSampleRate: sampleRate,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// HasCenter reports whether an explicit viewport center was configured.
func (c *Config) HasCenter() bool {
	return c.CenterLat != 0 || c.CenterLng != 0
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidTimeout)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloat returns the environment variable as float64 if set, otherwise
// the koanf value. The second return reports whether any value was present.
func getEnvFloat(envKey string, k *koanf.Koanf, koanfKey string) (float64, bool, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, true, fmt.Errorf("%s must be a valid float: %w", envKey, ErrInvalidCoordinate)
		}
		return f, true, nil
	}
	if k.Exists(koanfKey) {
		return k.Float64(koanfKey), true, nil
	}
	return 0, false, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.APIBaseURL == "" {
		errs = append(errs, ErrMissingAPIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidSampleRate)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// The token is masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"api_base_url":            c.APIBaseURL,
		"request_timeout_seconds": fmt.Sprintf("%d", c.RequestTimeout),
		"env":                     c.Env,
		"token":                   maskSecret(c.Token),
		"center_lat":              fmt.Sprintf("%g", c.CenterLat),
		"center_lng":              fmt.Sprintf("%g", c.CenterLng),
		"metrics_addr":            c.MetricsAddr,
		"tracing_enabled":         fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":        c.TracingExporter,
		"otlp_endpoint":           c.OTLPEndpoint,
		"tracing_sample_rate":     fmt.Sprintf("%g", c.TracingSampleRate),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}
