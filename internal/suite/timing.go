package suite

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 9999999999

// isoLayouts are tried in order. Layouts without a zone are read as local time.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Clock returns the current time.
type Clock func() time.Time

// ParseTimestamp converts an XUnit timestamp attribute into epoch
// milliseconds. The boolean is false when the value is empty or the zero
// epoch, which generated reports use for "unknown".
func ParseTimestamp(raw string) (int64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	if isDigits(raw) {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, errors.Wrapf(err, "invalid epoch timestamp %q", raw)
		}
		if v == 0 {
			return 0, false, nil
		}
		if v > epochMillisThreshold {
			return v, true, nil
		}
		return v * 1000, true, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.UnixMilli(), true, nil
		}
	}
	return 0, false, errors.Errorf("unsupported timestamp format %q", raw)
}

// ParseDuration converts the time attribute (seconds, float) to milliseconds,
// truncating toward zero. Absent values are 0.
func ParseDuration(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("invalid duration %q", raw)
	}
	return int64(f * 1000), nil
}

// StartEnd derives the time window of a test object. Without a timestamp the
// object is considered to have just finished.
func StartEnd(durationMs int64, timestamp *int64, now Clock) (start, end int64) {
	if timestamp == nil {
		end = now().UnixMilli()
		return end - durationMs, end
	}
	return *timestamp, *timestamp + durationMs
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ReferenceTime is the current time of a server running in the named
// timezone, in epoch milliseconds.
func ReferenceTime(timezone string, now Clock) (int64, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return 0, errors.Wrapf(err, "unknown timezone %q", timezone)
	}
	return now().In(loc).UnixMilli(), nil
}
