// Package config loads vst3host settings. Sources are applied in order:
// built-in defaults, a TOML file, a .env file, then VST3HOST_* environment
// variables. Later sources win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/observability"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VST3HOST_"

// Config holds all application configuration
type Config struct {
	Host    HostConfig        `toml:"host"`
	Log     LogConfig         `toml:"log"`
	Admin   AdminConfig       `toml:"admin"`
	Tracing TracingConfig     `toml:"tracing"`
	Aliases map[string]string `toml:"aliases"`
}

// HostConfig holds plugin host settings
type HostConfig struct {
	SampleRate    float64 `toml:"sample_rate"`
	BlockSize     int     `toml:"block_size"`
	SetupPolicy   string  `toml:"setup_policy"`
	QueueCapacity int     `toml:"queue_capacity"`
	RampSlots     int     `toml:"ramp_slots"`
	RampMs        float64 `toml:"ramp_ms"`
	ModuleCache   int     `toml:"module_cache"`
	Offline       bool    `toml:"offline"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AdminConfig holds the admin HTTP server settings. An empty Addr
// disables the server.
type AdminConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host: HostConfig{
			SampleRate:    48000,
			BlockSize:     512,
			SetupPolicy:   string(host.PolicyReconfigure),
			QueueCapacity: host.DefaultQueueCapacity,
			RampSlots:     host.DefaultRampSlots,
			ModuleCache:   host.DefaultModuleCache,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(observability.FormatText),
		},
		Admin: AdminConfig{
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Tracing: TracingConfig{
			ServiceName: "vst3host",
		},
		Aliases: map[string]string{},
	}
}

// Load builds the configuration. file is a TOML file and must exist when
// named. envFile is a dotenv file; a missing one is skipped. Variables
// already in the environment are not overwritten by envFile.
func Load(file, envFile string) (*Config, error) {
	cfg := Default()
	if file != "" {
		if err := cfg.LoadFile(file); err != nil {
			return nil, err
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile merges the TOML file at path into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("parsing %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies VST3HOST_* overrides. VST3HOST_ALIASES holds
// comma-separated path=target pairs that are added to the alias table.
func (c *Config) ApplyEnv() error {
	e := &envReader{}

	c.Host.SampleRate = e.getFloat("SAMPLE_RATE", c.Host.SampleRate)
	c.Host.BlockSize = e.getInt("BLOCK_SIZE", c.Host.BlockSize)
	c.Host.SetupPolicy = e.getString("SETUP_POLICY", c.Host.SetupPolicy)
	c.Host.QueueCapacity = e.getInt("QUEUE_CAPACITY", c.Host.QueueCapacity)
	c.Host.RampSlots = e.getInt("RAMP_SLOTS", c.Host.RampSlots)
	c.Host.RampMs = e.getFloat("RAMP_MS", c.Host.RampMs)
	c.Host.ModuleCache = e.getInt("MODULE_CACHE", c.Host.ModuleCache)
	c.Host.Offline = e.getBool("OFFLINE", c.Host.Offline)

	c.Log.Level = e.getString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = e.getString("LOG_FORMAT", c.Log.Format)

	c.Admin.Addr = e.getString("ADMIN_ADDR", c.Admin.Addr)
	c.Admin.ShutdownTimeout = Duration(e.getDuration("ADMIN_SHUTDOWN_TIMEOUT", time.Duration(c.Admin.ShutdownTimeout)))

	c.Tracing.Enabled = e.getBool("TRACING", c.Tracing.Enabled)
	c.Tracing.ServiceName = e.getString("SERVICE_NAME", c.Tracing.ServiceName)

	if v := e.getString("ALIASES", ""); v != "" {
		if c.Aliases == nil {
			c.Aliases = map[string]string{}
		}
		for _, pair := range strings.Split(v, ",") {
			path, target, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || path == "" || target == "" {
				e.errs = append(e.errs, fmt.Errorf("%sALIASES: bad entry %q", EnvPrefix, pair))
				continue
			}
			c.Aliases[path] = target
		}
	}
	return errors.Join(e.errs...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Host.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %g", c.Host.SampleRate)
	}
	if c.Host.BlockSize <= 0 || c.Host.BlockSize > host.MaxBlockSize {
		return fmt.Errorf("block size must be in 1..%d, got %d", host.MaxBlockSize, c.Host.BlockSize)
	}
	if _, err := host.ParseSetupPolicy(c.Host.SetupPolicy); err != nil {
		return err
	}
	if c.Host.QueueCapacity < 0 || c.Host.RampSlots < 0 || c.Host.ModuleCache < 0 {
		return errors.New("queue capacity, ramp slots and module cache must not be negative")
	}
	if c.Host.RampMs < 0 {
		return fmt.Errorf("ramp_ms must not be negative, got %g", c.Host.RampMs)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch observability.LogFormat(c.Log.Format) {
	case observability.FormatText, observability.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return errors.New("service name is required when tracing is enabled")
	}
	return nil
}

// Logger creates the logger described by c.Log.
func (c *Config) Logger() (*logrus.Logger, error) {
	return observability.NewLogger(c.Log.Level, observability.LogFormat(c.Log.Format), nil)
}

// HostOptions converts c into host options. The loader is the default one
// with c's aliases.
func (c *Config) HostOptions(log *logrus.Logger, metrics *observability.Metrics) host.Options {
	policy, _ := host.ParseSetupPolicy(c.Host.SetupPolicy)
	return host.Options{
		Loader:        host.DefaultLoader(c.Aliases, log),
		ModuleCache:   c.Host.ModuleCache,
		Logger:        log,
		Metrics:       metrics,
		SetupPolicy:   policy,
		QueueCapacity: c.Host.QueueCapacity,
		RampSlots:     c.Host.RampSlots,
		RampMs:        c.Host.RampMs,
		Offline:       c.Host.Offline,
	}
}
