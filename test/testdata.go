// Package test holds the XUnit reports shared by the package tests.
package test

import (
	"embed"
	"io/fs"
	"path"

	"github.com/spf13/afero"
)

//go:embed testdata
var TestData embed.FS

// XUnitDir is the directory of the report fixtures inside TestData.
const XUnitDir = "testdata/xunit"

// CopyXUnit writes the named report fixtures into dest on fsys and returns
// their paths in the given order.
func CopyXUnit(fsys afero.Fs, dest string, names ...string) ([]string, error) {
	if err := fsys.MkdirAll(dest, 0755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(TestData, path.Join(XUnitDir, name))
		if err != nil {
			return nil, err
		}
		target := path.Join(dest, name)
		if err := afero.WriteFile(fsys, target, data, 0644); err != nil {
			return nil, err
		}
		paths = append(paths, target)
	}
	return paths, nil
}
