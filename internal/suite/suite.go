package suite

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const (
	StatusPassed  = "PASSED"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// DeploymentFileName is the report whose suites follow the run envelope
// instead of contributing to it.
const DeploymentFileName = "deployment.xml"

// Suite wraps one testsuite element with its origin and derived times.
type Suite struct {
	raw   *api.TestSuite
	file  string
	index int
	clock Clock

	tests      int
	failures   int
	errors     int
	skipped    int
	durationMs int64
	timestamp  *int64
	cases      []*Case

	start *int64
	end   *int64
}

func newSuite(raw *api.TestSuite, index int, file string, clock Clock) (*Suite, error) {
	s := &Suite{raw: raw, file: file, index: index, clock: clock}

	tests, err := strconv.Atoi(strings.TrimSpace(raw.Tests))
	if err != nil {
		return nil, errors.Errorf("testsuite %q: attribute tests=%q is not an integer", s.Name(), raw.Tests)
	}
	s.tests = tests
	counts := []struct {
		raw string
		dst *int
	}{
		{raw.Failures, &s.failures},
		{raw.Errors, &s.errors},
		{raw.Skipped, &s.skipped},
	}
	for _, c := range counts {
		if *c.dst, err = optionalCount(c.raw); err != nil {
			return nil, errors.Wrapf(err, "testsuite %q", s.Name())
		}
	}
	if s.durationMs, err = ParseDuration(raw.Time); err != nil {
		return nil, errors.Wrapf(err, "testsuite %q", s.Name())
	}
	ts, ok, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, errors.Wrapf(err, "testsuite %q", s.Name())
	}
	if ok {
		s.timestamp = &ts
	}
	for i := range raw.TestCases {
		c, err := newCase(&raw.TestCases[i])
		if err != nil {
			return nil, errors.Wrapf(err, "testsuite %q", s.Name())
		}
		s.cases = append(s.cases, c)
	}
	return s, nil
}

func optionalCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("count %q is not an integer", raw)
	}
	return v, nil
}

// Name falls back to the suite id, then to NULL.
func (s *Suite) Name() string {
	if s.raw.Name != "" {
		return s.raw.Name
	}
	if s.raw.ID != "" {
		return s.raw.ID
	}
	return nullName
}

func (s *Suite) File() string      { return s.file }
func (s *Suite) Index() int        { return s.index }
func (s *Suite) Tests() int        { return s.tests }
func (s *Suite) Failures() int     { return s.failures }
func (s *Suite) Errors() int       { return s.errors }
func (s *Suite) Skipped() int      { return s.skipped }
func (s *Suite) Passed() int       { return s.tests - s.skipped - s.errors - s.failures }
func (s *Suite) DurationMs() int64 { return s.durationMs }
func (s *Suite) Cases() []*Case    { return s.cases }

// IsDeployment reports whether the suite was read from the deployment report.
func (s *Suite) IsDeployment() bool {
	return filepath.Base(s.file) == DeploymentFileName
}

// Timestamp returns the raw timestamp in epoch milliseconds, if any.
func (s *Suite) Timestamp() (int64, bool) {
	if s.timestamp == nil {
		return 0, false
	}
	return *s.timestamp, true
}

// Status is FAILED when the suite declares failures or errors.
func (s *Suite) Status() string {
	if s.failures > 0 || s.errors > 0 {
		return StatusFailed
	}
	return StatusPassed
}

func (s *Suite) computeTimes() {
	if s.start == nil {
		start, _ := StartEnd(s.durationMs, s.timestamp, s.clock)
		s.start = &start
	}
	if s.end == nil {
		end := *s.start + s.durationMs
		s.end = &end
	}
}

// StartTime is computed once, then kept until overridden.
func (s *Suite) StartTime() int64 {
	if s.start == nil {
		s.computeTimes()
	}
	return *s.start
}

// EndTime is computed once, then kept until overridden.
func (s *Suite) EndTime() int64 {
	if s.end == nil {
		s.computeTimes()
	}
	return *s.end
}

func (s *Suite) SetStartTime(ms int64) { s.start = &ms }

func (s *Suite) SetEndTime(ms int64) { s.end = &ms }

// CorrectTimes moves the suite back so it does not end after reference.
// It reports whether the suite was shifted.
func (s *Suite) CorrectTimes(reference int64) bool {
	end := s.EndTime()
	if end <= reference {
		return false
	}
	delta := end - reference
	s.SetStartTime(s.StartTime() - delta)
	s.SetEndTime(end - delta)
	if s.timestamp != nil {
		ts := *s.timestamp - delta
		s.timestamp = &ts
	}
	return true
}
