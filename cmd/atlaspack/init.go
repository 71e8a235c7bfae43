package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/project"
)

type initCmd struct {
	outputPath string
	set        string
	force      bool
}

func (c *initCmd) Name() string     { return "init" }
func (c *initCmd) Synopsis() string { return "write a config file with default values" }
func (c *initCmd) Usage() string {
	return "atlaspack init [-o <path>] [-set <id>] [-f]\n"
}
func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputPath, "o", project.DefaultConfigFile, "Output file path")
	f.StringVar(&c.set, "set", "", "Resource set id")
	f.BoolVar(&c.force, "f", false, "Overwrite an existing file")
}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if _, err := os.Stat(c.outputPath); err == nil && !c.force {
		log.Printf("%s already exists, use -f to overwrite", c.outputPath)
		return subcommands.ExitFailure
	}

	cfg := model.DefaultConfig()
	if c.set != "" {
		cfg.ResourceSetID = c.set
	}
	if err := cfg.Validate(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err := project.SaveConfig(c.outputPath, cfg); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Println(c.outputPath)
	return subcommands.ExitSuccess
}
