package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/atlaspack/internal/model"
	"github.com/piwi3910/atlaspack/internal/project"
)

func TestRestoreMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas_mapping.json")

	old := model.NewMapping()
	it := model.NewAtlasItem("mc:block/stone", 16, 0, 16, 16, 256, 1)
	it.Atlas = "atlaspack:block/atlas_1"
	old.Place(it)
	require.NoError(t, project.SaveMapping(path, old))
	_, err := project.BackupMapping(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	m, err := restoreMapping(path)
	require.NoError(t, err)
	assert.Len(t, m.Placements, 1)

	restored, warnings, err := project.LoadMapping(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, old.Placements, restored.Placements)
}

func TestRestoreMapping_UnusableBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas_mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	_, err := restoreMapping(path)
	assert.Error(t, err, "no backup")

	require.NoError(t, os.WriteFile(path+project.BackupSuffix, []byte("[1]"), 0644))
	_, err = restoreMapping(path)
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data), "mapping untouched")
}
