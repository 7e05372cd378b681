package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/vst3host/pkg/render"
)

func newRenderCommand(out io.Writer) *Command {
	fs := newFlagSet("render", "[flags] job.yaml")
	g := addGlobalFlags(fs)
	output := fs.String("o", "", "output file, overrides the job")

	return &Command{
		Name:        "render",
		Description: "Render a YAML job to a WAV file",
		Flags:       fs,
		Run: func(args []string) error {
			if len(args) != 1 {
				fs.Usage()
				return errors.New("render needs exactly one job file")
			}
			job, err := render.LoadJob(args[0])
			if err != nil {
				return err
			}
			if *output != "" {
				job.Output = *output
			}

			a, err := newApp(g, true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			res, err := render.NewRenderer(a.host, a.log, a.metrics).Render(ctx, job)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d frames, %d channels in %s\n", job.Output, res.Frames, res.Channels, res.Elapsed)
			return nil
		},
	}
}
