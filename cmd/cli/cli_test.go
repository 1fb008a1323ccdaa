package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netscan-tools/netscan/internal/config"
)

func TestCommandsRegistered(t *testing.T) {
	expected := []string{
		"port", "ports", "ping", "dns", "rdns",
		"local", "subnet", "trace", "serve", "version",
	}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		assert.True(t, registered[name], "command %q not registered", name)
	}
}

func TestVersionString(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-01-01")
	assert.Equal(t, "1.2.3 (commit: abc1234, built: 2026-01-01)", getVersion())
	assert.Contains(t, rootCmd.Version, "1.2.3")
}

func TestPortCommandArgValidation(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{name: "not a number", port: "http"},
		{name: "zero", port: "0"},
		{name: "too high", port: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPort(portCmd, []string{"localhost", tt.port})
			require.Error(t, err)
			assert.Contains(t, strings.ToUpper(err.Error()), "INVALID_SPEC")
		})
	}
}

// resetFlags clears the changed marker on the named flags so a test can
// model "flag not given on the command line".
func resetFlags(t *testing.T, cmd interface{ Flags() *pflag.FlagSet }, names ...string) {
	t.Helper()
	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %q not registered", name)
		flag.Changed = false
	}
}

func TestScanConfigFromFlags(t *testing.T) {
	prev := appConfig
	defer func() { appConfig = prev }()

	appConfig = config.Default()
	appConfig.Scanning.DefaultPorts = "1-1024"
	appConfig.Scanning.Timeout = config.Duration(5 * time.Second)
	appConfig.Scanning.Concurrency = 25
	appConfig.Scanning.RateLimit = 10

	t.Run("config file fills unset flags", func(t *testing.T) {
		resetFlags(t, portsCmd, "ports", "timeout", "concurrency", "deadline", "rate")

		cfg := scanConfigFromFlags(portsCmd.Flags(), "example.com")
		assert.Equal(t, "example.com", cfg.Host)
		assert.Equal(t, "1-1024", cfg.Ports)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, 25, cfg.Concurrency)
		assert.Equal(t, 10, cfg.RateLimit)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		require.NoError(t, portsCmd.Flags().Set("ports", "443"))
		require.NoError(t, portsCmd.Flags().Set("timeout", "250ms"))

		cfg := scanConfigFromFlags(portsCmd.Flags(), "example.com")
		assert.Equal(t, "443", cfg.Ports)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
		assert.Equal(t, 25, cfg.Concurrency)
	})
}

func TestSweepConfigFromFlags(t *testing.T) {
	prev := appConfig
	defer func() { appConfig = prev }()

	appConfig = config.Default()
	appConfig.Discovery.CheckPorts = []int{3389}
	appConfig.Discovery.Timeout = config.Duration(750 * time.Millisecond)
	appConfig.Discovery.Workers = 20
	appConfig.Discovery.UsePing = true
	appConfig.Discovery.SNMPCommunity = "public"

	t.Run("config file fills unset flags", func(t *testing.T) {
		resetFlags(t, subnetCmd, "ports", "timeout", "workers", "ping", "snmp-community")

		cfg, err := sweepConfigFromFlags(subnetCmd.Flags(), "192.168.1")
		require.NoError(t, err)
		assert.Equal(t, "192.168.1", cfg.Prefix)
		assert.Equal(t, []int{3389}, cfg.CheckPorts)
		assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
		assert.Equal(t, 20, cfg.Workers)
		assert.True(t, cfg.UsePing)
		assert.Equal(t, "public", cfg.SNMPCommunity)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		require.NoError(t, subnetCmd.Flags().Set("ports", "22,80"))
		require.NoError(t, subnetCmd.Flags().Set("workers", "5"))

		cfg, err := sweepConfigFromFlags(subnetCmd.Flags(), "192.168.1")
		require.NoError(t, err)
		assert.Equal(t, []int{22, 80}, cfg.CheckPorts)
		assert.Equal(t, 5, cfg.Workers)
		assert.True(t, cfg.UsePing)
	})

	t.Run("bad ports flag surfaces the parse error", func(t *testing.T) {
		require.NoError(t, subnetCmd.Flags().Set("ports", "9-1"))

		_, err := sweepConfigFromFlags(subnetCmd.Flags(), "192.168.1")
		require.Error(t, err)
		assert.Contains(t, strings.ToUpper(err.Error()), "INVALID_SPEC")
	})
}

func TestRootCommandHelp(t *testing.T) {
	assert.Equal(t, "netscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}
