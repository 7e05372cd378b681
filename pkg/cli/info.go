package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

type classJSON struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	ID       string `json:"id"`
}

type moduleJSON struct {
	Path       string               `json:"path"`
	Vendor     string               `json:"vendor"`
	URL        string               `json:"url,omitempty"`
	Email      string               `json:"email,omitempty"`
	Classes    []classJSON          `json:"classes"`
	Parameters []host.ParameterInfo `json:"parameters,omitempty"`
}

func newInfoCommand(out io.Writer) *Command {
	fs := newFlagSet("info", "[flags] path")
	g := addGlobalFlags(fs)
	asJSON := fs.Bool("json", false, "print JSON")
	params := fs.Bool("params", false, "instantiate the audio class and list its parameters")

	return &Command{
		Name:        "info",
		Description: "Describe the classes of a plugin module",
		Flags:       fs,
		Run: func(args []string) error {
			if len(args) != 1 {
				fs.Usage()
				return errors.New("info needs exactly one module path")
			}
			a, err := newApp(g, false)
			if err != nil {
				return err
			}
			defer a.close()

			m, err := describe(context.Background(), a.host, args[0], *params)
			if err != nil {
				return err
			}
			if *asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			printModule(out, m)
			return nil
		},
	}
}

func describe(ctx context.Context, h *host.Host, path string, withParams bool) (*moduleJSON, error) {
	classes, info, err := h.Classes(ctx, path)
	if err != nil {
		return nil, err
	}
	m := &moduleJSON{Path: path, Vendor: info.Vendor, URL: info.URL, Email: info.Email, Classes: []classJSON{}}
	for _, c := range classes {
		m.Classes = append(m.Classes, classJSON{Name: c.Name, Category: c.Category, ID: c.ID.String()})
	}
	if !withParams {
		return m, nil
	}

	handle, err := h.LoadPlugin(ctx, path)
	if err != nil {
		return nil, err
	}
	defer h.UnloadPlugin(ctx, handle)
	if m.Parameters, err = h.Parameters(handle); err != nil {
		return nil, err
	}
	return m, nil
}

func printModule(out io.Writer, m *moduleJSON) {
	fmt.Fprintf(out, "Module: %s\nVendor: %s\n", m.Path, m.Vendor)
	if m.URL != "" {
		fmt.Fprintf(out, "URL:    %s\n", m.URL)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCLASS\tCATEGORY\tID")
	for _, c := range m.Classes {
		kind := c.Category
		if c.Category == vst3.CategoryAudioEffect {
			kind = "audio"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, kind, c.ID)
	}
	if len(m.Parameters) > 0 {
		fmt.Fprintln(tw, "\nID\tPARAMETER\tVALUE\tUNITS")
		for _, p := range m.Parameters {
			fmt.Fprintf(tw, "%d\t%s\t%.4g\t%s\n", p.ID, p.Title, p.Plain, p.Units)
		}
	}
	tw.Flush()
}
