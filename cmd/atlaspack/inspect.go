package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/piwi3910/atlaspack/internal/engine"
	"github.com/piwi3910/atlaspack/internal/imageio"
	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/project"
)

type inspectCmd struct {
	configPath  string
	mappingPath string
	verbose     bool
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "summarize an atlas mapping" }
func (c *inspectCmd) Usage() string {
	return "atlaspack inspect [-config <path>] [-mapping <path>] [-v]\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Config file path")
	f.StringVar(&c.mappingPath, "mapping", "", "Mapping file path (default from config)")
	f.BoolVar(&c.verbose, "v", false, "List every texture")
}

func (c *inspectCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	path := c.configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	layout := engine.NewLayout(cfg)

	mappingPath := c.mappingPath
	if mappingPath == "" {
		mappingPath = layout.MappingPath()
	}
	m, warnings, err := project.LoadMapping(mappingPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	for _, w := range warnings {
		log.Printf("ignored entry %s", w)
	}

	if err := printMapping(os.Stdout, layout, imageio.Codec{}, m, c.verbose); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printMapping writes one line per atlas with the size of its image on disk,
// followed by the exclusion count.
func printMapping(w io.Writer, layout engine.Layout, codec engine.ImageCodec, m model.Mapping, verbose bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATLAS\tSIZE\tTEXTURES\tIMAGE")
	for _, atlas := range m.AtlasNames() {
		items := m.ItemsFor(atlas)
		size, state := "-", "ok"
		if p, err := layout.TexturePath(atlas); err != nil {
			state = "invalid name"
		} else if img, err := codec.Decode(p); err != nil {
			state = "missing"
		} else {
			size = fmt.Sprintf("%d", img.Bounds().Dx())
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", atlas, size, len(items), state)
		if verbose {
			for _, it := range items {
				fmt.Fprintf(tw, "  %s\t\t\t\n", it.Name)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d placed, %d excluded\n", len(m.Placements), len(m.Exclusions))
	if verbose {
		for _, name := range m.ExcludedNames() {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	return nil
}
