package dump

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// ExportsDir is where dumps land by default, relative to the working
// directory.
const ExportsDir = "application/storage/exports"

// CreateExportFile ensures the exports directory exists and creates the
// dump file inside it. A name containing a path separator is used as
// given instead.
func CreateExportFile(fs afero.Fs, name string) (afero.File, string, error) {
	path := name
	if filepath.Dir(name) == "." {
		if err := fs.MkdirAll(ExportsDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("dump: create exports directory: %w", err)
		}
		path = filepath.Join(ExportsDir, name)
	}

	f, err := fs.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("dump: create %q: %w", path, err)
	}
	return f, path, nil
}
