package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netscan-tools/netscan/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 2*time.Second, cfg.Scanning.Timeout.Std())
	assert.Equal(t, 100, cfg.Scanning.Concurrency)
	assert.Equal(t, "common", cfg.Scanning.DefaultPorts)
	assert.Equal(t, []int{80, 443, 22, 445}, cfg.Discovery.CheckPorts)
	assert.Equal(t, 50, cfg.Discovery.Workers)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/netscan.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netscan.yaml")

	content := `
scanning:
  timeout: 5s
  concurrency: 20
discovery:
  workers: 10
  use_ping: true
logging:
  level: debug
  format: json
api:
  enabled: true
  listen_addr: 0.0.0.0
  port: 9000
schedules:
  - name: nightly
    cron: "0 2 * * *"
    host: gateway.lan
    ports: common
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Scanning.Timeout.Std())
	assert.Equal(t, 20, cfg.Scanning.Concurrency)
	assert.Equal(t, 10, cfg.Discovery.Workers)
	assert.True(t, cfg.Discovery.UsePing)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.GetAPIAddress())

	// Untouched sections keep their defaults.
	assert.Equal(t, "common", cfg.Scanning.DefaultPorts)

	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "nightly", cfg.Schedules[0].Name)
	assert.Equal(t, "0 2 * * *", cfg.Schedules[0].Cron)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanning: [not a map"), 0o644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "zero concurrency",
			content: "scanning:\n  concurrency: -5\n",
		},
		{
			name:    "bad log level",
			content: "logging:\n  level: verbose\n",
		},
		{
			name:    "bad log format",
			content: "logging:\n  format: xml\n",
		},
		{
			name:    "api port out of range",
			content: "api:\n  enabled: true\n  port: 70000\n",
		},
		{
			name:    "check port out of range",
			content: "discovery:\n  check_ports: [80, 99999]\n",
		},
		{
			name:    "schedule missing host",
			content: "schedules:\n  - name: x\n    cron: '* * * * *'\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
		})
	}
}

func TestDurationForms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	// Integer values are taken as nanoseconds, strings as durations.
	content := "scanning:\n  timeout: 1500000000\n  deadline: 2m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scanning.Timeout.Std())
	assert.Equal(t, 2*time.Minute, cfg.Scanning.Deadline.Std())

	_, err = Load(path)
	require.NoError(t, err)

	bad := "scanning:\n  timeout: soon\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "netscan.yaml")

	original := Default()
	original.Scanning.Concurrency = 42
	original.Discovery.SNMPCommunity = "public"
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Scanning.Concurrency)
	assert.Equal(t, "public", loaded.Discovery.SNMPCommunity)
	assert.Equal(t, original.Scanning.Timeout, loaded.Scanning.Timeout)
}
