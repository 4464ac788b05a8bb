// Package ci turns CI pipeline runs into deployment XUnit reports.
package ci

import (
	"strconv"
	"strings"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const (
	StatusInProgress  = "IN_PROGRESS"
	StatusSuccess     = "SUCCESS"
	StatusUnstable    = "UNSTABLE"
	StatusNotExecuted = "NOT_EXECUTED"

	DeploymentSuiteName = "deployment"
	stageItemType       = "BEFORE_TEST"
	noLogs              = "No logs found"
)

// Stage is one finished step of a pipeline run. Times are in seconds.
type Stage struct {
	Name     string
	Status   string
	Duration int64
	Start    int64
	Logs     []string
}

// DeploymentSuite collects stages into a deployment test suite. Stages still
// in progress are left out.
type DeploymentSuite struct {
	suite api.TestSuite
	tests int
	fails int
	skips int
}

func NewDeploymentSuite(durationSec, startSec int64) *DeploymentSuite {
	return &DeploymentSuite{suite: api.TestSuite{
		Name:      DeploymentSuiteName,
		Time:      strconv.FormatInt(durationSec, 10),
		Timestamp: strconv.FormatInt(startSec, 10),
	}}
}

// SetResult records the overall result reported by the CI system.
func (d *DeploymentSuite) SetResult(result string) {
	d.suite.Result = result
}

// Add appends the stage as a test case and reports whether it was kept.
func (d *DeploymentSuite) Add(st Stage) bool {
	if st.Status == StatusInProgress {
		return false
	}
	tc := api.TestCase{
		Name:      st.Name,
		Time:      strconv.FormatInt(st.Duration, 10),
		Timestamp: strconv.FormatInt(st.Start, 10),
		ItemType:  stageItemType,
	}
	text := joinLogs(st.Logs)
	switch st.Status {
	case StatusSuccess, StatusUnstable:
		tc.SystemOut = []string{text}
	case StatusNotExecuted:
		tc.Skipped = &api.Result{Text: text}
		d.skips++
	default:
		tc.Failures = []api.Result{{Text: text}}
		d.fails++
	}
	d.tests++
	d.suite.TestCases = append(d.suite.TestCases, tc)
	return true
}

// Suite returns the report with its counters set.
func (d *DeploymentSuite) Suite() *api.TestSuite {
	ts := d.suite
	ts.Tests = strconv.Itoa(d.tests)
	ts.Failures = strconv.Itoa(d.fails)
	ts.Errors = "0"
	ts.Skipped = strconv.Itoa(d.skips)
	return &ts
}

// CleanLog keeps printable ASCII, tabs and line breaks.
func CleanLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' || (r >= 32 && r < 128) {
			return r
		}
		return -1
	}, s)
}

func joinLogs(logs []string) string {
	var kept []string
	for _, l := range logs {
		if l = strings.TrimSpace(CleanLog(l)); l != "" {
			kept = append(kept, l)
		}
	}
	text := strings.TrimSpace(strings.Join(kept, "\n"))
	if text == "" {
		return noLogs
	}
	return text
}
