package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Usage       string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command writing to out.
func NewRootCommand(out io.Writer) *Command {
	root := &Command{
		Name:        "vst3host",
		Description: "vst3host - a scriptable VST3 plugin host",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("vst3host", flag.ContinueOnError),
	}
	root.Flags.SetOutput(out)

	for _, cmd := range []*Command{
		newRunCommand(out),
		newRenderCommand(out),
		newServeCommand(out),
		newInfoCommand(out),
		newVersionCommand(out),
	} {
		cmd.Flags.SetOutput(out)
		root.Subcommands[cmd.Name] = cmd
	}
	return root
}

// Execute runs the subcommand named by args[0].
func (c *Command) Execute(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.usage()
		return nil
	}
	sub, ok := c.Subcommands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if err := sub.Flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return sub.Run(sub.Flags.Args())
}

// usage prints the command usage
func (c *Command) usage() {
	out := c.Flags.Output()
	fmt.Fprintf(out, "Usage: %s <command> [flags] [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-10s %s\n", name, c.Subcommands[name].Description)
	}
}

// newFlagSet creates a subcommand flag set whose usage line shows usage.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: vst3host %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}
