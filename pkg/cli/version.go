package cli

import (
	"fmt"
	"io"
	"runtime"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

func newVersionCommand(out io.Writer) *Command {
	return &Command{
		Name:        "version",
		Description: "Print the version",
		Flags:       newFlagSet("version", ""),
		Run: func(args []string) error {
			fmt.Fprintf(out, "vst3host %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
