package cli

import (
	"errors"
	"io"

	"github.com/justyntemme/vst3host/pkg/script"
)

func newRunCommand(out io.Writer) *Command {
	fs := newFlagSet("run", "[flags] script.lua")
	g := addGlobalFlags(fs)
	watch := fs.Bool("watch", false, "run again whenever the script changes")
	keep := fs.Bool("keep", false, "leave plugins the script did not unload")

	return &Command{
		Name:        "run",
		Description: "Run a Lua script against the host",
		Flags:       fs,
		Run: func(args []string) error {
			if len(args) != 1 {
				fs.Usage()
				return errors.New("run needs exactly one script")
			}
			a, err := newApp(g, false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			r := script.NewRunner(a.host,
				script.WithLogger(a.log),
				script.WithMetrics(a.metrics),
				script.WithSetup(a.cfg.Host.SampleRate, a.cfg.Host.BlockSize),
				script.WithKeepLoaded(*keep),
			)
			if *watch {
				return r.Watch(ctx, args[0], 0)
			}
			return r.RunFile(ctx, args[0])
		},
	}
}
