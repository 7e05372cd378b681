package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/config"
	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/observability"
)

// globalFlags are shared by the commands that build a host.
type globalFlags struct {
	config   string
	envFile  string
	logLevel string
}

func addGlobalFlags(fs *flag.FlagSet) *globalFlags {
	g := &globalFlags{}
	fs.StringVar(&g.config, "config", "", "TOML configuration file")
	fs.StringVar(&g.envFile, "env", ".env", "dotenv file, skipped when missing")
	fs.StringVar(&g.logLevel, "log-level", "", "log level, overrides the configuration")
	return g
}

// app is a configured host with its logger and metrics.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *observability.Metrics
	host    *host.Host
}

func newApp(g *globalFlags, offline bool) (*app, error) {
	cfg, err := config.Load(g.config, g.envFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if offline {
		cfg.Host.Offline = true
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics(nil)
	h, err := host.New(cfg.HostOptions(log, metrics))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, metrics: metrics, host: h}, nil
}

func (a *app) close() {
	if err := a.host.Close(context.Background()); err != nil {
		a.log.WithError(err).Warn("Failed to close host")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
