package adm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

type parseJUnitInput struct {
	skipFailed  bool
	skipPassed  bool
	skipSkipped bool
}

func NewCmdParseJUnit() *cobra.Command {
	in := &parseJUnitInput{}
	cmd := &cobra.Command{
		Use:     "parse-junit FILE",
		Example: "ci-reporter parse-junit results/tempest.xml",
		Short:   "Parse a JUnit file and print its counters.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return parseJUnit(afero.NewOsFs(), os.Stdout, args[0], in)
		},
	}
	cmd.Flags().BoolVar(&in.skipFailed, "skip-failed", false, "Skip printing on stdout the failed test names.")
	cmd.Flags().BoolVar(&in.skipPassed, "skip-passed", false, "Skip printing on stdout the passed test names.")
	cmd.Flags().BoolVar(&in.skipSkipped, "skip-skipped", false, "Skip printing on stdout the skipped test names.")
	return cmd
}

func parseJUnit(fs afero.Fs, w io.Writer, junitFile string, in *parseJUnitInput) error {
	fd, err := fs.Open(junitFile)
	if err != nil {
		return errors.Wrap(err, "opening JUnit file")
	}
	defer fd.Close()

	parser, err := api.NewJUnitXMLParser(junitFile, fd)
	if err != nil {
		return errors.Wrap(err, "error parsing JUnit file")
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "- File: %s\n", parser.XMLFile)
	fmt.Fprintf(w, "- Suites: %d\n", len(parser.Parsed))
	fmt.Fprintf(w, "- Total: %d\n", parser.Counters.Total)
	fmt.Fprintf(w, "- Pass: %d\n", parser.Counters.Pass)
	fmt.Fprintf(w, "- Skipped: %d\n", parser.Counters.Skipped)
	fmt.Fprintf(w, "- Failures: %d\n", parser.Counters.Failures)
	fmt.Fprintf(w, "- Errors: %d\n", parser.Counters.Errors)

	for _, ts := range parser.Parsed {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Suite %q:\n", ts.Name)
		fmt.Fprintf(w, "- Tests: %s\n", ts.Tests)
		fmt.Fprintf(w, "- Failures: %s\n", ts.Failures)
		fmt.Fprintf(w, "- Errors: %s\n", ts.Errors)
		fmt.Fprintf(w, "- Skipped: %s\n", ts.Skipped)
		fmt.Fprintf(w, "- Time: %s\n", ts.Time)
		fmt.Fprintf(w, "- Timestamp: %s\n", ts.Timestamp)
	}

	passed := []string{}
	skipped := []string{}
	for _, testcase := range parser.Cases {
		switch testcase.Status() {
		case api.TestStatusPass:
			passed = append(passed, testcase.Name)
		case api.TestStatusSkipped:
			skipped = append(skipped, testcase.Name)
		}
	}

	if !in.skipPassed {
		fmt.Fprintf(w, "\n#> Passed tests (%d): \n%s\n", len(passed), strings.Join(passed, "\n"))
	}
	if !in.skipFailed {
		fmt.Fprintf(w, "\n#> Failed tests (%d): \n%s\n", len(parser.Failures), strings.Join(parser.Failures, "\n"))
	}
	if !in.skipSkipped {
		fmt.Fprintf(w, "\n#> Skipped tests (%d): \n%s\n", len(skipped), strings.Join(skipped, "\n"))
	}
	return nil
}
