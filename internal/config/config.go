// Package config loads pointops settings.
//
// Sources, lowest to highest precedence:
//  1. Built-in defaults (LoadDefaults)
//  2. A YAML file (LoadFromFile, FindConfigFile)
//  3. POINTOPS_* environment variables (ApplyEnvVars)
//
// Command-line flags are applied by the CLI on top of the result.
//
// Example config.yaml:
//
//	device: auto
//	parallel:
//	  enabled: true
//	  workers: 8
//	  min_chunk_size: 64
//	logging:
//	  level: debug
//	  format: json
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/pointops/internal/parallel"
)

// Device names accepted in Config.Device.
const (
	DeviceCPU    = "cpu"
	DeviceWebGPU = "webgpu"
	DeviceAuto   = "auto"
)

// Config holds all pointops settings.
type Config struct {
	// Device selects the compute backend: "cpu", "webgpu" or "auto".
	Device   string         `yaml:"device"`
	Parallel ParallelConfig `yaml:"parallel"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ParallelConfig controls CPU kernel parallelism.
type ParallelConfig struct {
	Enabled      bool `yaml:"enabled"`
	Workers      int  `yaml:"workers"`
	MinChunkSize int  `yaml:"min_chunk_size"`
}

// LoggingConfig controls the slog handler installed by the CLI.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadDefaults returns the built-in configuration.
func LoadDefaults() *Config {
	par := parallel.DefaultConfig()
	return &Config{
		Device: DeviceCPU,
		Parallel: ParallelConfig{
			Enabled:      par.Enabled,
			Workers:      par.NumWorkers,
			MinChunkSize: par.MinChunkSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile reads a YAML file over the defaults. A missing file is not
// an error; the defaults are returned unchanged.
func LoadFromFile(configPath string) (*Config, error) {
	config := LoadDefaults()

	//nolint:gosec // G304: config path is chosen by the user
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields absent from the file keep their default values.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load builds the effective configuration: defaults, then configPath (or
// the first file FindConfigFile reports when configPath is empty), then
// environment variables. The result is validated.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = FindConfigFile()
	}

	config := LoadDefaults()
	if configPath != "" {
		var err error
		config, err = LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	ApplyEnvVars(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnvVars overrides config with any POINTOPS_* variables that are set.
// Malformed numbers are ignored.
func ApplyEnvVars(config *Config) {
	config.Device = getEnv("POINTOPS_DEVICE", config.Device)
	config.Parallel.Enabled = getEnvBool("POINTOPS_PARALLEL", config.Parallel.Enabled)
	config.Parallel.Workers = getEnvInt("POINTOPS_WORKERS", config.Parallel.Workers)
	config.Parallel.MinChunkSize = getEnvInt("POINTOPS_MIN_CHUNK", config.Parallel.MinChunkSize)
	config.Logging.Level = getEnv("POINTOPS_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("POINTOPS_LOG_FORMAT", config.Logging.Format)
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Device) {
	case DeviceCPU, DeviceWebGPU, DeviceAuto:
	default:
		return fmt.Errorf("invalid device: %q (want cpu, webgpu or auto)", c.Device)
	}

	if c.Parallel.Workers <= 0 {
		return fmt.Errorf("invalid worker count: %d", c.Parallel.Workers)
	}
	if c.Parallel.MinChunkSize <= 0 {
		return fmt.Errorf("invalid min chunk size: %d", c.Parallel.MinChunkSize)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q (want text or json)", c.Logging.Format)
	}
	return nil
}

// ToParallel converts the parallel settings for the CPU backend.
func (c *Config) ToParallel() parallel.Config {
	return parallel.Config{
		Enabled:      c.Parallel.Enabled,
		NumWorkers:   c.Parallel.Workers,
		MinChunkSize: c.Parallel.MinChunkSize,
	}
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Device: %s, Parallel: %v/%d, Log: %s/%s}",
		c.Device, c.Parallel.Enabled, c.Parallel.Workers, c.Logging.Level, c.Logging.Format)
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", level)
	}
}

// FindConfigFile returns the first existing config file among
// ~/.pointops/config.yaml, ./pointops.yaml and
// $XDG_CONFIG_HOME/pointops/config.yaml, or "" when none exists.
func FindConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".pointops", "config.yaml"))
	}
	candidates = append(candidates, "pointops.yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "pointops", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
