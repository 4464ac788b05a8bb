package api

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// WriteSuite saves the suite as an XUnit document, creating the parent
// directories when needed. It returns the written path.
func WriteSuite(fs afero.Fs, path string, ts *TestSuite) (string, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrapf(err, "unable to create directory %s", dir)
		}
	}
	data, err := MarshalSuite(ts)
	if err != nil {
		return "", errors.Wrapf(err, "unable to render suite %q", ts.Name)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "unable to write %s", path)
	}
	return path, nil
}
