package paths

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("<testsuite/>"), 0644))
	}
	return fs
}

func TestExpand(t *testing.T) {
	fs := newTree(t,
		"/results/a.xml",
		"/results/b.xml",
		"/results/notes.txt",
		"/results/.hidden.xml",
		"/results/sub/c.xml",
		"/results/sub/deep/d.xml",
		"/results/.cache/e.xml",
		"/results/.cache/.f.xml",
	)
	t.Setenv("RESULTS_DIR", "/results")

	cases := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "verbatim path is kept even if missing",
			patterns: []string{"/nowhere/report.xml"},
			want:     []string{"/nowhere/report.xml"},
		},
		{
			name:     "single level wildcard",
			patterns: []string{"/results/*.xml"},
			want:     []string{"/results/a.xml", "/results/b.xml"},
		},
		{
			name:     "double star matches zero or more directories",
			patterns: []string{"/results/**/*.xml"},
			want: []string{
				"/results/a.xml",
				"/results/b.xml",
				"/results/sub/c.xml",
				"/results/sub/deep/d.xml",
			},
		},
		{
			name:     "question mark and class",
			patterns: []string{"/results/[ab].xm?"},
			want:     []string{"/results/a.xml", "/results/b.xml"},
		},
		{
			name:     "wildcard in a directory component",
			patterns: []string{"/results/*/c.xml"},
			want:     []string{"/results/sub/c.xml"},
		},
		{
			name:     "explicit hidden pattern",
			patterns: []string{"/results/.*.xml"},
			want:     []string{"/results/.hidden.xml"},
		},
		{
			name:     "hidden directory in the fixed part",
			patterns: []string{"/results/.cache/*.xml"},
			want:     []string{"/results/.cache/e.xml"},
		},
		{
			name:     "double star below a hidden directory",
			patterns: []string{"/results/.cache/**/*.xml"},
			want:     []string{"/results/.cache/e.xml"},
		},
		{
			name:     "environment variables",
			patterns: []string{"$RESULTS_DIR/a.xml", "${RESULTS_DIR}/b.xml"},
			want:     []string{"/results/a.xml", "/results/b.xml"},
		},
		{
			name:     "duplicates collapse",
			patterns: []string{"/results/a.xml", "/results/*.xml"},
			want:     []string{"/results/a.xml", "/results/b.xml"},
		},
		{
			name:     "no match",
			patterns: []string{"/results/*.json"},
			want:     []string{},
		},
		{
			name:     "blank patterns are ignored",
			patterns: []string{"", "  "},
			want:     []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(fs, tc.patterns)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpandRelativeDoubleStar(t *testing.T) {
	fs := newTree(t, "r/a.xml", "r/sub/b.xml", "r/sub/deep/c.xml", "r/notes.txt")

	got, err := Expand(fs, []string{"r/**/*.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/a.xml", "r/sub/b.xml", "r/sub/deep/c.xml"}, got)

	got, err = Expand(fs, []string{"r/**/b.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/sub/b.xml"}, got)
}

func TestExpandUnknownVariable(t *testing.T) {
	got, err := Expand(afero.NewMemMapFs(), []string{"${CI_REPORTER_SURELY_UNSET}/a.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"${CI_REPORTER_SURELY_UNSET}/a.xml"}, got)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/ci")
	fs := newTree(t, "/home/ci/results/a.xml")
	got, err := Expand(fs, []string{"~/results/*.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/ci/results/a.xml"}, got)
}

func TestResolve(t *testing.T) {
	fs := newTree(t, "/results/a.xml", "/results/b.xml", "/results/deployment.xml")

	paths, excluded, err := Resolve(fs, []string{"/results/*.xml"}, []string{"/results/b.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/a.xml", "/results/deployment.xml"}, paths)
	assert.Equal(t, []string{"/results/b.xml"}, excluded)
}

func TestResolveNoPaths(t *testing.T) {
	fs := newTree(t, "/results/a.xml")

	_, _, err := Resolve(fs, []string{"/results/*.xml"}, []string{"/results/*"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPaths))
	assert.Equal(t, "There are no paths to fetch data from", err.Error())

	_, _, err = Resolve(fs, nil, nil)
	assert.True(t, errors.Is(err, ErrNoPaths))
}

func TestResolveMissing(t *testing.T) {
	fs := newTree(t, "/results/a.xml")

	paths, _, err := Resolve(fs, []string{"/results/a.xml", "/results/z.xml", "/other.xml"}, nil)
	require.Error(t, err)
	var missing *MissingPathsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"/other.xml", "/results/z.xml"}, missing.Paths)
	assert.Len(t, paths, 3)
	assert.Contains(t, err.Error(), "/results/z.xml")
}
