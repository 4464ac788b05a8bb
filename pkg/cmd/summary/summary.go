package summary

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/paths"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/suite"
)

type summaryInput struct {
	exclude  []string
	timezone string
}

// CaseStats describes the case durations of a run, in seconds.
type CaseStats struct {
	Count  int
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// DurationStats computes CaseStats over every case of m.
func DurationStats(m *suite.Manager) (CaseStats, error) {
	var secs []float64
	for _, s := range m.Suites() {
		for _, c := range s.Cases() {
			secs = append(secs, float64(c.DurationMs())/1000)
		}
	}
	cs := CaseStats{Count: len(secs)}
	if len(secs) == 0 {
		return cs, nil
	}
	var err error
	if cs.Mean, err = stats.Mean(secs); err != nil {
		return cs, err
	}
	if cs.Median, err = stats.Median(secs); err != nil {
		return cs, err
	}
	if cs.P90, err = stats.Percentile(secs, 90); err != nil {
		return cs, err
	}
	if cs.Max, err = stats.Max(secs); err != nil {
		return cs, err
	}
	return cs, nil
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// Render writes one row per suite followed by the launch envelope and the
// case duration statistics.
func Render(w io.Writer, m *suite.Manager) error {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"File", "Suite", "Status", "Tests", "Passed", "Failures", "Errors", "Skipped", "Start", "End"})

	for _, s := range m.Suites() {
		table.Append([]string{
			s.File(),
			s.Name(),
			s.Status(),
			strconv.Itoa(s.Tests()),
			strconv.Itoa(s.Passed()),
			strconv.Itoa(s.Failures()),
			strconv.Itoa(s.Errors()),
			strconv.Itoa(s.Skipped()),
			formatMs(s.StartTime()),
			formatMs(s.EndTime()),
		})
	}
	tests, failures, errs, skipped := m.Summary()
	table.SetFooter([]string{"", "Total", "", strconv.Itoa(tests), strconv.Itoa(tests - failures - errs - skipped),
		strconv.Itoa(failures), strconv.Itoa(errs), strconv.Itoa(skipped),
		formatMs(m.OldestStartTime()), formatMs(m.NewestEndTime())})
	table.Render()

	cs, err := DurationStats(m)
	if err != nil {
		return errors.Wrap(err, "computing case durations")
	}
	fmt.Fprintf(w, "\nCases: %d  mean: %.3fs  median: %.3fs  p90: %.3fs  max: %.3fs\n",
		cs.Count, cs.Mean, cs.Median, cs.P90, cs.Max)
	return nil
}

func run(fs afero.Fs, w io.Writer, patterns []string, in *summaryInput) error {
	included, _, err := paths.Resolve(fs, patterns, in.exclude)
	if err != nil {
		return err
	}
	m, err := suite.Load(fs, included)
	if err != nil {
		return err
	}
	if in.timezone != "" {
		ref, err := suite.ReferenceTime(in.timezone, time.Now)
		if err != nil {
			return err
		}
		m.CorrectTimes(ref)
	}
	return Render(w, m)
}

func NewCmdSummary() *cobra.Command {
	in := &summaryInput{}
	cmd := &cobra.Command{
		Use:     "summary PATTERN...",
		Example: "ci-reporter summary 'results/**/*.xml'",
		Short:   "Show the suites and timings a publish would send, without contacting ReportPortal.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(afero.NewOsFs(), os.Stdout, args, in)
		},
	}
	cmd.Flags().StringSliceVar(&in.exclude, "exclude", nil, "Paths or glob patterns to leave out.")
	cmd.Flags().StringVar(&in.timezone, "reportportal-timezone", "", "Apply the clock skew correction for this timezone.")
	return cmd
}
