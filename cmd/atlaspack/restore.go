package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"

	"github.com/piwi3910/atlaspack/internal/engine"
	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/project"
)

type restoreCmd struct {
	configPath  string
	mappingPath string
}

func (c *restoreCmd) Name() string     { return "restore" }
func (c *restoreCmd) Synopsis() string { return "put the mapping backup back in place" }
func (c *restoreCmd) Usage() string {
	return "atlaspack restore [-config <path>] [-mapping <path>]\n"
}
func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Config file path")
	f.StringVar(&c.mappingPath, "mapping", "", "Mapping file path (default from config)")
}

func (c *restoreCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	path := c.configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	mappingPath := c.mappingPath
	if mappingPath == "" {
		mappingPath = engine.NewLayout(cfg).MappingPath()
	}
	m, err := restoreMapping(mappingPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %d placed, %d excluded\n", mappingPath, len(m.Placements), len(m.Exclusions))
	return subcommands.ExitSuccess
}

// restoreMapping replaces the mapping at path with its backup. A backup that
// does not parse as a mapping is left alone.
func restoreMapping(path string) (model.Mapping, error) {
	backup := path + project.BackupSuffix
	m, _, err := project.LoadMapping(backup)
	if err != nil {
		return model.Mapping{}, fmt.Errorf("backup %s not usable: %w", backup, err)
	}
	if err := project.RestoreMapping(path); err != nil {
		return model.Mapping{}, err
	}
	return m, nil
}
