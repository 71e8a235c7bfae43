package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/piwi3910/atlaspack/internal/engine"
	"github.com/piwi3910/atlaspack/internal/export"
	"github.com/piwi3910/atlaspack/internal/importer"
	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/progress"
	"github.com/piwi3910/atlaspack/internal/project"
)

type packCmd struct {
	configPath string
	root       string
	set        string
	padding    int
	classTable string
	fresh      bool
	noBackup   bool
	verbose    bool
	quiet      bool
	pdfPath    string
	xlsxPath   string
	dxfPath    string
}

func (c *packCmd) Name() string     { return "pack" }
func (c *packCmd) Synopsis() string { return "pack resource set textures into atlases" }
func (c *packCmd) Usage() string {
	return "atlaspack pack [-config <path>] [-root <dir>] [-set <id>] [-padding <n>] [-classes <table>] [-fresh] [-pdf|-xlsx|-dxf <path>]\n"
}
func (c *packCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Config file path (default atlaspack.toml or ~/.atlaspack/config.toml)")
	f.StringVar(&c.root, "root", "", "Directory holding resource sets")
	f.StringVar(&c.set, "set", "", "Resource set id")
	f.IntVar(&c.padding, "padding", 0, "Tiling multiplier for new placements")
	f.StringVar(&c.classTable, "classes", "", "Material class table (CSV or XLSX)")
	f.BoolVar(&c.fresh, "fresh", false, "Ignore the previous mapping and repack everything")
	f.BoolVar(&c.noBackup, "no-backup", false, "Do not keep a backup of the previous mapping")
	f.BoolVar(&c.verbose, "v", false, "Debug logging")
	f.BoolVar(&c.quiet, "q", false, "No progress bar")
	f.StringVar(&c.pdfPath, "pdf", "", "Write a PDF layout report")
	f.StringVar(&c.xlsxPath, "xlsx", "", "Write an XLSX placement workbook")
	f.StringVar(&c.dxfPath, "dxf", "", "Write a DXF footprint drawing")
}

// apply copies every flag given on the command line over the config.
func (c *packCmd) apply(f *flag.FlagSet, cfg *model.Config) {
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "root":
			cfg.ResourceRoot = c.root
		case "set":
			cfg.ResourceSetID = c.set
		case "padding":
			cfg.Padding = c.padding
		case "classes":
			cfg.ClassTable = c.classTable
		case "fresh":
			cfg.Fresh = c.fresh
		case "no-backup":
			cfg.BackupMapping = !c.noBackup
		case "pdf":
			cfg.Report.PDF = c.pdfPath
		case "xlsx":
			cfg.Report.XLSX = c.xlsxPath
		case "dxf":
			cfg.Report.DXF = c.dxfPath
		}
	})
}

func (c *packCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	path := c.configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	c.apply(f, &cfg)

	logger := newLogger(os.Stderr, cfg.LogLevel, c.verbose)

	classifier, err := loadClassifier(cfg, logger)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	opts := engine.Options{Classifier: classifier, Logger: logger}
	var bar *progress.Bar
	if !c.quiet && !c.verbose {
		bar = progress.NewBar(os.Stderr, "packing")
		opts.Progress = bar
	}

	packer, err := engine.New(cfg, opts)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	result, err := packer.Pack()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s: %d atlases, %d textures placed, %d excluded (%.1f%% used, run %s)\n",
		cfg.ResourceSetID, len(result.Atlases), result.TotalItems(), len(result.Excluded),
		result.TotalEfficiency(), result.RunID)

	if err := writeReports(cfg.Report, result, logger); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// loadClassifier builds the rule classifier from the configured class table.
// Without a table every texture falls into the default class.
func loadClassifier(cfg model.Config, logger *slog.Logger) (*engine.RuleClassifier, error) {
	if cfg.ClassTable == "" {
		return engine.NewRuleClassifier(nil, cfg.DefaultClass), nil
	}
	res := importer.ImportClassTable(cfg.ClassTable)
	for _, w := range res.Warnings {
		logger.Warn("class table", "file", cfg.ClassTable, "detail", w)
	}
	if len(res.Errors) > 0 {
		errs := make([]error, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, errors.New(e))
		}
		return nil, fmt.Errorf("failed to load class table %s: %w", cfg.ClassTable, errors.Join(errs...))
	}
	logger.Info("class table loaded", "file", cfg.ClassTable, "rules", len(res.Rules))
	return engine.NewRuleClassifier(res.Rules, cfg.DefaultClass), nil
}

// writeReports writes every configured report. Runs without atlases have
// nothing to report.
func writeReports(rc model.ReportConfig, result model.PackResult, logger *slog.Logger) error {
	if len(result.Atlases) == 0 {
		if rc.PDF != "" || rc.XLSX != "" || rc.DXF != "" {
			logger.Info("no atlases, skipping reports")
		}
		return nil
	}
	reports := []struct {
		path  string
		write func(string, model.PackResult) error
	}{
		{rc.PDF, export.ExportPDF},
		{rc.XLSX, export.ExportXLSX},
		{rc.DXF, export.ExportDXF},
	}
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		if err := r.write(r.path, result); err != nil {
			return fmt.Errorf("failed to write report %s: %w", r.path, err)
		}
		logger.Info("report written", "path", r.path)
	}
	return nil
}
