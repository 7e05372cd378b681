package main

import (
	"fmt"
	"os"

	"github.com/justyntemme/vst3host/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
