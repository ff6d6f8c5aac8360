package config

import (
	"os"
	"path/filepath"
	"testing"

	"devtimer/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, core.DefaultMaxSleepers, cfg.Timer.MaxSleepers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
	assert.Equal(t, 115200, cfg.Console.Baud)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, []SleeperConfig{
		{Name: "alpha", Ticks: 100},
		{Name: "beta", Ticks: 50},
		{Name: "gamma", Ticks: 75},
	}, cfg.Demo.Sleepers)
}

func TestLoadConfigOverrides(t *testing.T) {
	data := []byte(`
timer:
  max_sleepers: 8
log:
  level: debug
  file: /var/log/timerd.log
  console: true
console:
  device: /dev/ttyS0
  baud: 9600
metrics:
  addr: ":9100"
demo:
  sleepers:
    - name: slow
      ticks: 200
    - ticks: 5
`)
	cfg, err := LoadConfig(data)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Timer.MaxSleepers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/timerd.log", cfg.Log.File)
	assert.True(t, cfg.Log.Console)
	assert.Equal(t, "/dev/ttyS0", cfg.Console.Device)
	assert.Equal(t, 9600, cfg.Console.Baud)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	require.Len(t, cfg.Demo.Sleepers, 2)
	assert.Equal(t, "slow", cfg.Demo.Sleepers[0].Name)
	assert.Equal(t, "sleeper-1", cfg.Demo.Sleepers[1].Name)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative pool", "timer: {max_sleepers: -1}", "max_sleepers"},
		{"pool smaller than demo", "timer: {max_sleepers: 2}", "3 sleepers"},
		{"bad level", "log: {level: loud}", "unknown log.level"},
		{"bad yaml", "timer: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateRejectsEmptyPool(t *testing.T) {
	cfg := Default()
	cfg.Timer.MaxSleepers = 0
	cfg.Demo.Sleepers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timer.max_sleepers must be positive, got 0")
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "timerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
