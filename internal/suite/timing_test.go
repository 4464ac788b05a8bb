package suite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func fixedClock(ms int64) Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestParseTimestamp(t *testing.T) {
	localMs := time.Date(2023, 8, 6, 13, 20, 14, 0, time.Local).UnixMilli()
	cases := []struct {
		name    string
		raw     string
		want    int64
		wantOK  bool
		wantErr bool
	}{
		{name: "empty", raw: "", wantOK: false},
		{name: "blank", raw: "  ", wantOK: false},
		{name: "zero epoch is unknown", raw: "0", wantOK: false},
		{name: "epoch seconds", raw: "1691328014", want: 1691328014000, wantOK: true},
		{name: "epoch seconds at threshold", raw: "9999999999", want: 9999999999000, wantOK: true},
		{name: "epoch milliseconds", raw: "10000000000", want: 10000000000, wantOK: true},
		{name: "epoch milliseconds realistic", raw: "1691328014123", want: 1691328014123, wantOK: true},
		{name: "iso utc", raw: "2023-08-06T13:20:14Z", want: 1691328014000, wantOK: true},
		{name: "iso offset", raw: "2023-08-06T15:20:14+02:00", want: 1691328014000, wantOK: true},
		{name: "iso fraction truncates", raw: "2023-08-06T13:20:14.1239Z", want: 1691328014123, wantOK: true},
		{name: "iso naive is local", raw: "2023-08-06T13:20:14", want: localMs, wantOK: true},
		{name: "space separated naive", raw: "2023-08-06 13:20:14", want: localMs, wantOK: true},
		{name: "garbage", raw: "yesterday", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := ParseTimestamp(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "2.5", want: 2500},
		{raw: "0.0019", want: 1},
		{raw: "3", want: 3000},
		{raw: "120.000", want: 120000},
		{raw: "abc", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "inf", wantErr: true},
		{raw: "-Inf", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseDuration(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStartEnd(t *testing.T) {
	now := fixedClock(1_700_000_000_000)

	start, end := StartEnd(2500, nil, now)
	assert.Equal(t, int64(1_700_000_000_000), end)
	assert.Equal(t, end-2500, start)

	start, end = StartEnd(2500, ptr.To[int64](1_600_000_000_000), now)
	assert.Equal(t, int64(1_600_000_000_000), start)
	assert.Equal(t, int64(1_600_000_002_500), end)
}

func TestTruncateName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "shorter", in: "abc", max: 5, want: "abc"},
		{name: "exact", in: "abcde", max: 5, want: "abcde"},
		{name: "longer", in: "abcdefgh", max: 5, want: "abcde"},
		{name: "multibyte", in: "ééééé", max: 3, want: "ééé"},
		{name: "disabled", in: "abcdefgh", max: 0, want: "abcdefgh"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TruncateName(tc.in, tc.max))
		})
	}
}

func TestReferenceTime(t *testing.T) {
	now := fixedClock(1_700_000_000_000)

	ref, err := ReferenceTime("UTC", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), ref)

	_, err = ReferenceTime("Mars/Olympus", now)
	assert.ErrorContains(t, err, "unknown timezone")
}
