// Package suite aggregates the test suites of one publishing run, deriving
// the time window of every suite and of the whole run (the envelope).
//
// Reports do not always carry timestamps, and deployment reports generated
// from CI pipelines describe work that happened around the tests rather than
// inside them. The Manager reconciles both before anything is published:
// deployment suites are pinned to the end of the envelope and suites ending
// in the future of the reporting server clock are moved back.
package suite

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

// ParseError names the report that could not be loaded.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to load test results from %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces the clock used for reports without timestamps.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDeploymentTimes makes deployment suites contribute to the envelope.
func WithDeploymentTimes() Option {
	return func(m *Manager) { m.skipDeploymentTimes = false }
}

// Manager owns the ordered suites of all reports of a run.
type Manager struct {
	suites              []*Suite
	clock               Clock
	skipDeploymentTimes bool

	oldest *int64
	newest *int64
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:               time.Now,
		skipDeploymentTimes: true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load adds every file in order and aligns the deployment suites.
func Load(fs afero.Fs, files []string, opts ...Option) (*Manager, error) {
	m := NewManager(opts...)
	for _, f := range files {
		if err := m.AddFile(fs, f); err != nil {
			return nil, err
		}
	}
	m.AdjustTimes()
	return m, nil
}

// AddFile parses one report from the file system.
func (m *Manager) AddFile(fs afero.Fs, file string) error {
	fd, err := fs.Open(file)
	if err != nil {
		return &ParseError{File: file, Err: err}
	}
	defer fd.Close()
	return m.Add(fd, file)
}

// Add parses one report. Every suite of it is tagged with source and its
// position in the document.
func (m *Manager) Add(r io.Reader, source string) error {
	parsed, err := api.ParseSuites(r)
	if err != nil {
		return &ParseError{File: source, Err: err}
	}
	for idx := range parsed {
		s, err := newSuite(&parsed[idx], idx, source, m.clock)
		if err != nil {
			return &ParseError{File: source, Err: err}
		}
		m.suites = append(m.suites, s)
	}
	log.WithField("file", source).Debugf("Loaded %d test suites", len(parsed))
	m.oldest, m.newest = nil, nil
	return nil
}

// Suites returns the suites in file then declaration order.
func (m *Manager) Suites() []*Suite {
	return m.suites
}

// envelopeSuites are the suites bounding the run. Deployment suites are left
// out unless nothing else was loaded.
func (m *Manager) envelopeSuites() []*Suite {
	if !m.skipDeploymentTimes {
		return m.suites
	}
	out := []*Suite{}
	for _, s := range m.suites {
		if !s.IsDeployment() {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return m.suites
	}
	return out
}

func (m *Manager) computeEnvelope() {
	var oldest, newest *int64
	for _, s := range m.envelopeSuites() {
		start, end := s.StartTime(), s.EndTime()
		if oldest == nil || start < *oldest {
			oldest = &start
		}
		if newest == nil || end > *newest {
			newest = &end
		}
	}
	var zero int64
	if oldest == nil {
		oldest, newest = &zero, &zero
	}
	m.oldest, m.newest = oldest, newest
}

// OldestStartTime is the earliest start of the envelope suites.
func (m *Manager) OldestStartTime() int64 {
	if m.oldest == nil {
		m.computeEnvelope()
	}
	return *m.oldest
}

// NewestEndTime is the latest end of the envelope suites.
func (m *Manager) NewestEndTime() int64 {
	if m.newest == nil {
		m.computeEnvelope()
	}
	return *m.newest
}

// AdjustTimes pins every deployment suite to the end of the envelope keeping
// its duration, extending the envelope start when the suite begins earlier.
func (m *Manager) AdjustTimes() {
	newest := m.NewestEndTime()
	oldest := m.OldestStartTime()
	for _, s := range m.suites {
		if !s.IsDeployment() {
			continue
		}
		start := newest - s.DurationMs()
		s.SetEndTime(newest)
		s.SetStartTime(start)
		if start < oldest {
			oldest = start
		}
		log.WithFields(log.Fields{
			"suite": s.Name(),
			"start": start,
			"end":   newest,
		}).Debug("Aligned deployment suite to the end of the run")
	}
	m.oldest = &oldest
}

// CorrectTimes moves back, one by one, the suites ending after reference
// (the reporting server clock) then recomputes the envelope.
func (m *Manager) CorrectTimes(reference int64) {
	shifted := 0
	for _, s := range m.suites {
		if s.CorrectTimes(reference) {
			shifted++
		}
	}
	if shifted == 0 {
		return
	}
	log.Infof("Corrected times of %d test suites ending after %d", shifted, reference)
	m.computeEnvelope()
	oldest := *m.oldest
	for _, s := range m.suites {
		if s.IsDeployment() && s.StartTime() < oldest {
			oldest = s.StartTime()
		}
	}
	m.oldest = &oldest
}

// Summary counts the cases of every suite.
func (m *Manager) Summary() (tests, failures, errors, skipped int) {
	for _, s := range m.suites {
		tests += s.Tests()
		failures += s.Failures()
		errors += s.Errors()
		skipped += s.Skipped()
	}
	return tests, failures, errors, skipped
}
