package dump

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExportFileInExportsDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	f, path, err := CreateExportFile(fs, "app_backup.sql")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "application/storage/exports/app_backup.sql", path)
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	dirExists, err := afero.DirExists(fs, ExportsDir)
	require.NoError(t, err)
	assert.True(t, dirExists)
}

func TestCreateExportFileExplicitPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("custom/dir", 0o755))

	f, path, err := CreateExportFile(fs, "custom/dir/out.sql")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "custom/dir/out.sql", path)

	exists, err := afero.DirExists(fs, ExportsDir)
	require.NoError(t, err)
	assert.False(t, exists, "exports dir is not created for explicit paths")
}
