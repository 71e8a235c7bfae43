package main

import (
	"bytes"
	"flag"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/atlaspack/internal/engine"
	"github.com/piwi3910/atlaspack/internal/imageio"
	"github.com/piwi3910/atlaspack/internal/model"
)

func TestPackFlagsOverrideConfig(t *testing.T) {
	c := &packCmd{}
	f := flag.NewFlagSet("pack", flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse([]string{"-set", "mine", "-padding", "2", "-no-backup", "-xlsx", "out.xlsx"}))

	cfg := model.DefaultConfig()
	cfg.ResourceRoot = "from-config"
	c.apply(f, &cfg)

	assert.Equal(t, "mine", cfg.ResourceSetID)
	assert.Equal(t, 2, cfg.Padding)
	assert.False(t, cfg.BackupMapping)
	assert.Equal(t, "out.xlsx", cfg.Report.XLSX)
	assert.Equal(t, "from-config", cfg.ResourceRoot, "unset flags keep config values")
	assert.False(t, cfg.Fresh)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "warn", false).Info("hidden")
	newLogger(&buf, "warn", false).Warn("shown")
	newLogger(&buf, "bogus", true).Debug("debug")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "debug")
}

func TestLoadClassifierErrors(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.ClassTable = filepath.Join(t.TempDir(), "missing.csv")

	_, err := loadClassifier(cfg, slog.New(slog.DiscardHandler))
	assert.Error(t, err)

	cfg.ClassTable = ""
	c, err := loadClassifier(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, "default", c.Classify("a:block/b"))
}

func TestWriteReportsSkipsEmptyRun(t *testing.T) {
	rc := model.ReportConfig{PDF: filepath.Join(t.TempDir(), "r.pdf")}
	assert.NoError(t, writeReports(rc, model.PackResult{}, slog.New(slog.DiscardHandler)))
}

func TestPrintMapping(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.ResourceRoot = t.TempDir()
	layout := engine.NewLayout(cfg)

	m := model.NewMapping()
	it := model.NewAtlasItem("mc:block/stone", 0, 0, 16, 16, 256, 4)
	it.Atlas = "atlaspack:block/atlas_1"
	m.Place(it)
	m.Exclude("mc:block/water")

	var buf bytes.Buffer
	require.NoError(t, printMapping(&buf, layout, imageio.Codec{}, m, true))

	out := buf.String()
	assert.Contains(t, out, "atlaspack:block/atlas_1")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "mc:block/stone")
	assert.Contains(t, out, "1 placed, 1 excluded")
	assert.True(t, strings.HasSuffix(out, "  mc:block/water\n"))
}
