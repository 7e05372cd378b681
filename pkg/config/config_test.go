package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/host"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 48000.0, cfg.Host.SampleRate)
	assert.Equal(t, 512, cfg.Host.BlockSize)
	assert.Equal(t, "reconfigure", cfg.Host.SetupPolicy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Admin.ShutdownTimeout))
	assert.Empty(t, cfg.Admin.Addr)
}

func TestPrecedence(t *testing.T) {
	file := writeFile(t, "vst3host.toml", `
[host]
sample_rate = 44100
block_size = 256
setup_policy = "reject"
ramp_ms = 5.0

[log]
level = "debug"
format = "json"

[admin]
addr = ":9090"
shutdown_timeout = "3s"

[aliases]
"/plugins/synth.vst3" = "builtin:synth"
`)
	envFile := writeFile(t, ".env", "VST3HOST_BLOCK_SIZE=128\nVST3HOST_LOG_FORMAT=text\n")
	unsetEnv(t, "VST3HOST_BLOCK_SIZE")
	unsetEnv(t, "VST3HOST_LOG_FORMAT")
	t.Setenv("VST3HOST_LOG_LEVEL", "warn")
	t.Setenv("VST3HOST_ALIASES", "/plugins/reverb.vst3=builtin:delay")

	cfg, err := Load(file, envFile)
	require.NoError(t, err)

	assert.Equal(t, 44100.0, cfg.Host.SampleRate, "file over default")
	assert.Equal(t, 128, cfg.Host.BlockSize, "dotenv over file")
	assert.Equal(t, "text", cfg.Log.Format, "dotenv over file")
	assert.Equal(t, "warn", cfg.Log.Level, "environment over file")
	assert.Equal(t, "reject", cfg.Host.SetupPolicy)
	assert.Equal(t, 5.0, cfg.Host.RampMs)
	assert.Equal(t, ":9090", cfg.Admin.Addr)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.Admin.ShutdownTimeout))
	assert.Equal(t, map[string]string{
		"/plugins/synth.vst3":  "builtin:synth",
		"/plugins/reverb.vst3": "builtin:delay",
	}, cfg.Aliases)
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "VST3HOST_SAMPLE_RATE=22050\n")
	t.Setenv("VST3HOST_SAMPLE_RATE", "96000")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 96000.0, cfg.Host.SampleRate)
}

func TestMissingFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "")
	assert.Error(t, err, "a named config file must exist")

	_, err = Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err, "a missing dotenv file is skipped")
}

func TestParseErrors(t *testing.T) {
	file := writeFile(t, "bad.toml", "[host]\nsample_rate = \"fast\"\n")
	_, err := Load(file, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.toml")

	t.Setenv("VST3HOST_BLOCK_SIZE", "lots")
	_, err = Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VST3HOST_BLOCK_SIZE")
}

func TestBadAliases(t *testing.T) {
	t.Setenv("VST3HOST_ALIASES", "/a.vst3=builtin:gain,broken")
	_, err := Load("", "")
	assert.ErrorContains(t, err, "broken")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Host.SampleRate = 0 }},
		{"zero block size", func(c *Config) { c.Host.BlockSize = 0 }},
		{"huge block size", func(c *Config) { c.Host.BlockSize = host.MaxBlockSize + 1 }},
		{"unknown policy", func(c *Config) { c.Host.SetupPolicy = "sometimes" }},
		{"negative ramp", func(c *Config) { c.Host.RampMs = -1 }},
		{"negative queue", func(c *Config) { c.Host.QueueCapacity = -1 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"tracing without name", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.ServiceName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestHostOptions(t *testing.T) {
	cfg := Default()
	cfg.Host.SetupPolicy = "REJECT"
	cfg.Host.RampMs = 2
	log, err := cfg.Logger()
	require.NoError(t, err)

	opts := cfg.HostOptions(log, nil)
	assert.Equal(t, host.PolicyReject, opts.SetupPolicy)
	assert.Equal(t, 2.0, opts.RampMs)
	assert.Same(t, log, opts.Logger)
	require.NotNil(t, opts.Loader)
	assert.Equal(t, host.DefaultModuleCache, opts.ModuleCache)

	cfg.Host.ModuleCache = 0
	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.HostOptions(log, nil).ModuleCache, "zero disables the idle cache")
}
