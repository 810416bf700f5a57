package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cloudx-io/bidranking/core"
)

// Listener networks
const (
	NetworkTCP   = "tcp"
	NetworkVsock = "vsock"
)

// Log formats
const (
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

const (
	DefaultNetwork     = NetworkTCP
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 5000
	DefaultMaxWorkers  = 16
	DefaultReadTimeout = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = LogFormatJSON
)

var (
	ErrInvalidNetwork     = errors.New("network must be tcp or vsock")
	ErrInvalidPort        = errors.New("port must be between 1 and 65535")
	ErrInvalidMaxWorkers  = errors.New("max_workers must be greater than zero")
	ErrInvalidReadTimeout = errors.New("read_timeout must be greater than zero")
	ErrInvalidWeights     = errors.New("composite weights must be finite and non-negative")
	ErrInvalidLogFormat   = errors.New("log_format must be json or pretty")
)

// Config holds the ranking server configuration.
type Config struct {
	Network     string        `koanf:"network"` // tcp or vsock
	Host        string        `koanf:"host"`    // ignored for vsock
	Port        int           `koanf:"port"`
	MaxWorkers  int           `koanf:"max_workers"`
	ReadTimeout time.Duration `koanf:"read_timeout"`

	Weights core.CompositeWeights `koanf:"weights"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	MetricsAddr        string `koanf:"metrics_addr"` // empty disables the /metrics listener
	AttestationEnabled bool   `koanf:"attestation_enabled"`
}

// Load reads configuration from an optional YAML file, then applies
// BIDRANK_* environment overrides. Environment variables take precedence.
// Returns the config and every problem found (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, err := getEnvIntOrDefault("BIDRANK_PORT", k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	maxWorkers, err := getEnvIntOrDefault("BIDRANK_MAX_WORKERS", k.Int("max_workers"), DefaultMaxWorkers)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	readTimeout, err := getEnvDurationOrDefault("BIDRANK_READ_TIMEOUT", k.Duration("read_timeout"), DefaultReadTimeout)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	// Keys missing from the file keep their default weight
	weights := core.DefaultCompositeWeights()
	if err := k.Unmarshal("weights", &weights); err != nil {
		loadErrs = append(loadErrs, fmt.Errorf("invalid weights: %w", err))
	}
	if weights.Price, err = getEnvFloat("BIDRANK_WEIGHT_PRICE", weights.Price); err != nil {
		loadErrs = append(loadErrs, err)
	}
	if weights.Rating, err = getEnvFloat("BIDRANK_WEIGHT_RATING", weights.Rating); err != nil {
		loadErrs = append(loadErrs, err)
	}

	attestation := k.Bool("attestation_enabled")
	if val := os.Getenv("BIDRANK_ATTESTATION_ENABLED"); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			attestation = true
		case "false", "0", "no", "off":
			attestation = false
		default:
			loadErrs = append(loadErrs, fmt.Errorf("invalid value for BIDRANK_ATTESTATION_ENABLED: %s", val))
		}
	}

	cfg := &Config{
		Network:            strings.ToLower(getEnvOrDefault("BIDRANK_NETWORK", k.String("network"), DefaultNetwork)),
		Host:               getEnvOrDefault("BIDRANK_HOST", k.String("host"), DefaultHost),
		Port:               port,
		MaxWorkers:         maxWorkers,
		ReadTimeout:        readTimeout,
		Weights:            weights,
		LogLevel:           getEnvOrDefault("BIDRANK_LOG_LEVEL", k.String("log_level"), DefaultLogLevel),
		LogFormat:          strings.ToLower(getEnvOrDefault("BIDRANK_LOG_FORMAT", k.String("log_format"), DefaultLogFormat)),
		MetricsAddr:        getEnvOrDefault("BIDRANK_METRICS_ADDR", k.String("metrics_addr"), ""),
		AttestationEnabled: attestation,
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	if c.Network != NetworkTCP && c.Network != NetworkVsock {
		errs = append(errs, ErrInvalidNetwork)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.MaxWorkers <= 0 {
		errs = append(errs, ErrInvalidMaxWorkers)
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, ErrInvalidReadTimeout)
	}
	if !validWeight(c.Weights.Price) || !validWeight(c.Weights.Rating) {
		errs = append(errs, ErrInvalidWeights)
	}
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatPretty {
		errs = append(errs, ErrInvalidLogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// Address returns the host:port the TCP listener binds to.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		intVal, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", envKey, val)
		}
		return intVal, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid value for %s: %s (must be a duration such as 30s)", envKey, val)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func getEnvFloat(envKey string, current float64) (float64, error) {
	val := os.Getenv(envKey)
	if val == "" {
		return current, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return current, fmt.Errorf("invalid value for %s: %s (must be a number)", envKey, val)
	}
	return f, nil
}
