package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/vst3host/pkg/observability"
	"github.com/justyntemme/vst3host/pkg/script"
)

// DefaultAdminAddr is used by serve when neither the flag nor the
// configuration names an address.
const DefaultAdminAddr = ":9464"

func newServeCommand(out io.Writer) *Command {
	fs := newFlagSet("serve", "[flags]")
	g := addGlobalFlags(fs)
	addr := fs.String("addr", "", "admin listen address (default from config, else "+DefaultAdminAddr+")")
	scriptPath := fs.String("script", "", "Lua script to run while serving")
	watch := fs.Bool("watch", false, "run the script again whenever it changes")

	return &Command{
		Name:        "serve",
		Description: "Serve health, metrics and instance introspection over HTTP",
		Flags:       fs,
		Run: func(args []string) error {
			a, err := newApp(g, false)
			if err != nil {
				return err
			}
			defer a.close()

			listen := *addr
			if listen == "" {
				listen = a.cfg.Admin.Addr
			}
			if listen == "" {
				listen = DefaultAdminAddr
			}

			if a.cfg.Tracing.Enabled {
				tp := observability.NewTracerProvider(observability.NewLogSpanExporter(a.log), a.cfg.Tracing.ServiceName)
				shutdown := observability.InstallTracerProvider(tp)
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						a.log.WithError(err).Warn("Failed to shut down tracer provider")
					}
				}()
			}

			ctx, cancel := signalContext()
			defer cancel()
			return serve(ctx, a, listen, *scriptPath, *watch)
		},
	}
}

// serve runs the admin server, and the script if one is given, until ctx
// is done or one of them fails.
func serve(ctx context.Context, a *app, addr, scriptPath string, watch bool) error {
	server := observability.NewAdminServer(addr, a.host.Inventory(), a.metrics, a.log)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		timeout := time.Duration(a.cfg.Admin.ShutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.log.Info("Shutting down admin server")
		return server.Shutdown(sctx)
	})

	if scriptPath != "" {
		r := script.NewRunner(a.host,
			script.WithLogger(a.log),
			script.WithMetrics(a.metrics),
			script.WithSetup(a.cfg.Host.SampleRate, a.cfg.Host.BlockSize),
			script.WithKeepLoaded(true),
		)
		g.Go(func() error {
			if watch {
				return r.Watch(ctx, scriptPath, 0)
			}
			if err := r.RunFile(ctx, scriptPath); err != nil && !errors.Is(err, context.Canceled) {
				a.log.WithError(err).Error("Script failed")
			}
			return nil
		})
	}
	return g.Wait()
}
