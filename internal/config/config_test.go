package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := LoadDefaults()
	assert.Equal(t, DeviceCPU, cfg.Device)
	assert.Positive(t, cfg.Parallel.Workers)
	assert.Equal(t, 64, cfg.Parallel.MinChunkSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
device: auto
parallel:
  workers: 3
logging:
  level: debug
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DeviceAuto, cfg.Device)
	assert.Equal(t, 3, cfg.Parallel.Workers)
	assert.Equal(t, 64, cfg.Parallel.MinChunkSize, "absent keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, LoadDefaults(), cfg)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := writeConfig(t, "parallel: [not, a, map\n")
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestApplyEnvVars(t *testing.T) {
	t.Setenv("POINTOPS_DEVICE", "webgpu")
	t.Setenv("POINTOPS_WORKERS", "2")
	t.Setenv("POINTOPS_PARALLEL", "off")
	t.Setenv("POINTOPS_MIN_CHUNK", "not-a-number")
	t.Setenv("POINTOPS_LOG_LEVEL", "warn")
	t.Setenv("POINTOPS_LOG_FORMAT", "json")

	cfg := LoadDefaults()
	ApplyEnvVars(cfg)

	assert.Equal(t, DeviceWebGPU, cfg.Device)
	assert.Equal(t, 2, cfg.Parallel.Workers)
	assert.False(t, cfg.Parallel.Enabled)
	assert.Equal(t, 64, cfg.Parallel.MinChunkSize, "malformed values are ignored")
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "device: cpu\nparallel:\n  workers: 5\n")
	t.Setenv("POINTOPS_WORKERS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DeviceCPU, cfg.Device)
	assert.Equal(t, 7, cfg.Parallel.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "device: tpu\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid device")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"upper case device", func(c *Config) { c.Device = "WebGPU" }, ""},
		{"unknown device", func(c *Config) { c.Device = "cuda" }, "invalid device"},
		{"zero workers", func(c *Config) { c.Parallel.Workers = 0 }, "invalid worker count"},
		{"negative chunk", func(c *Config) { c.Parallel.MinChunkSize = -1 }, "invalid min chunk size"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToParallel(t *testing.T) {
	cfg := LoadDefaults()
	cfg.Parallel = ParallelConfig{Enabled: true, Workers: 4, MinChunkSize: 16}
	par := cfg.ToParallel()
	assert.True(t, par.Enabled)
	assert.Equal(t, 4, par.NumWorkers)
	assert.Equal(t, 16, par.MinChunkSize)
}
