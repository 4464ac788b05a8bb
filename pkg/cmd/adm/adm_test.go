package adm

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/ci-reporter/test"
)

func TestParseJUnit(t *testing.T) {
	fs := afero.NewMemMapFs()
	files, err := test.CopyXUnit(fs, "/r", "tempest.xml")
	require.NoError(t, err)

	cases := []struct {
		name    string
		in      parseJUnitInput
		want    []string
		notWant []string
	}{
		{
			name: "all",
			want: []string{
				"- Suites: 2",
				"- Total: 4",
				"- Pass: 2",
				"- Skipped: 1",
				"- Failures: 1",
				`Suite "tempest.api.network":`,
				"#> Passed tests (2): \ntest_create_server\ntest_list_ports",
				"#> Failed tests (1): \n\"test_delete_server\"",
				"#> Skipped tests (1): \ntest_resize_server",
			},
		},
		{
			name:    "skip passed and skipped",
			in:      parseJUnitInput{skipPassed: true, skipSkipped: true},
			want:    []string{"#> Failed tests (1)"},
			notWant: []string{"#> Passed tests", "#> Skipped tests"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, parseJUnit(fs, &out, files[0], &tc.in))
			for _, s := range tc.want {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tc.notWant {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestParseJUnitErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	files, err := test.CopyXUnit(fs, "/r", "broken.xml")
	require.NoError(t, err)

	var out bytes.Buffer
	assert.ErrorContains(t, parseJUnit(fs, &out, "/r/missing.xml", &parseJUnitInput{}), "opening JUnit file")
	assert.ErrorContains(t, parseJUnit(fs, &out, files[0], &parseJUnitInput{}), "error parsing JUnit file")
}

func TestPrintAttributes(t *testing.T) {
	var out bytes.Buffer
	in := &attributesInput{valueDefault: "NA", keyLength: 128, valueLength: 10}
	require.NoError(t, printAttributes(&out, []string{"job:tempest", "nightly", "release:17.1-long-value"}, in))
	assert.JSONEq(t, `[
		{"key": "job", "value": "tempest"},
		{"key": "nightly", "value": "NA"},
		{"key": "release", "value": "17.1-l..."}
	]`, out.String())
}
