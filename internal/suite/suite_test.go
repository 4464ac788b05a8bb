package suite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

func TestSuiteStatus(t *testing.T) {
	cases := []struct {
		name     string
		failures string
		errors   string
		want     string
	}{
		{name: "absent counts", want: StatusPassed},
		{name: "zero counts", failures: "0", errors: "0", want: StatusPassed},
		{name: "failures", failures: "2", errors: "0", want: StatusFailed},
		{name: "errors", failures: "", errors: "1", want: StatusFailed},
		{name: "both", failures: "1", errors: "1", want: StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := newSuite(&api.TestSuite{Name: "s", Tests: "3", Failures: tc.failures, Errors: tc.errors}, 0, "a.xml", fixedClock(0))
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Status())
		})
	}
}

func TestSuiteCounts(t *testing.T) {
	s, err := newSuite(&api.TestSuite{Tests: " 10 ", Failures: "2", Errors: "1", Skipped: "3"}, 0, "a.xml", fixedClock(0))
	require.NoError(t, err)
	assert.Equal(t, 10, s.Tests())
	assert.Equal(t, 2, s.Failures())
	assert.Equal(t, 1, s.Errors())
	assert.Equal(t, 3, s.Skipped())
	assert.Equal(t, 4, s.Passed())
}

func TestSuiteName(t *testing.T) {
	cases := []struct {
		raw  api.TestSuite
		want string
	}{
		{raw: api.TestSuite{Name: "n", ID: "i", Tests: "0"}, want: "n"},
		{raw: api.TestSuite{ID: "i", Tests: "0"}, want: "i"},
		{raw: api.TestSuite{Tests: "0"}, want: "NULL"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			s, err := newSuite(&tc.raw, 0, "a.xml", fixedClock(0))
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Name())
		})
	}
}

func TestSuiteTimesAreMemoized(t *testing.T) {
	now := int64(1000000)
	clock := func() time.Time { now += 5000; return time.UnixMilli(now) }
	s, err := newSuite(&api.TestSuite{Tests: "1", Time: "2.5"}, 0, "a.xml", clock)
	require.NoError(t, err)

	end := s.EndTime()
	start := s.StartTime()
	assert.Equal(t, int64(1005000), end)
	assert.Equal(t, end-2500, start)
	// the clock moved, the suite did not
	assert.Equal(t, end, s.EndTime())
	assert.Equal(t, start, s.StartTime())
}

func TestSuiteSetters(t *testing.T) {
	s, err := newSuite(&api.TestSuite{Tests: "1", Time: "1", Timestamp: "1691328014"}, 0, "deployment.xml", fixedClock(0))
	require.NoError(t, err)
	assert.True(t, s.IsDeployment())

	s.SetEndTime(5000)
	s.SetStartTime(4000)
	assert.Equal(t, int64(4000), s.StartTime())
	assert.Equal(t, int64(5000), s.EndTime())
	ts, ok := s.Timestamp()
	assert.True(t, ok)
	assert.Equal(t, int64(1691328014000), ts)
}

func TestSuiteWithTimestamp(t *testing.T) {
	s, err := newSuite(&api.TestSuite{Tests: "1", Time: "30.5", Timestamp: "2023-08-06T13:20:14Z"}, 0, "a.xml", fixedClock(0))
	require.NoError(t, err)
	assert.Equal(t, int64(1691328014000), s.StartTime())
	assert.Equal(t, int64(1691328014000+30500), s.EndTime())
}

func TestCaseName(t *testing.T) {
	cases := []struct {
		name string
		raw  api.TestCase
		want string
	}{
		{name: "classname and name", raw: api.TestCase{ClassName: "pkg.Class", Name: "test_a"}, want: "pkg.Class.test_a"},
		{name: "id fallback", raw: api.TestCase{ClassName: "pkg.Class", ID: "42"}, want: "pkg.Class.42"},
		{name: "null fallback", raw: api.TestCase{ClassName: "pkg.Class"}, want: "pkg.Class.NULL"},
		{name: "no classname", raw: api.TestCase{Name: "stage"}, want: "stage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := newCase(&tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Name())
		})
	}
}

func TestCaseItemTypeAndTimes(t *testing.T) {
	c, err := newCase(&api.TestCase{Name: "a", Time: "1.5", ItemType: "BEFORE_TEST", Timestamp: "1691328014"})
	require.NoError(t, err)
	assert.Equal(t, "BEFORE_TEST", c.ItemType())
	start, end := c.Times(fixedClock(0))
	assert.Equal(t, int64(1691328014000), start)
	assert.Equal(t, int64(1691328015500), end)

	c, err = newCase(&api.TestCase{Name: "b", Time: "1.5"})
	require.NoError(t, err)
	assert.Equal(t, "STEP", c.ItemType())
	start, end = c.Times(fixedClock(10000))
	assert.Equal(t, int64(8500), start)
	assert.Equal(t, int64(10000), end)
}
