package adm

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/reportportal"
)

type attributesInput struct {
	valueDefault string
	keyLength    int
	valueLength  int
}

func NewCmdAttributes() *cobra.Command {
	in := &attributesInput{}
	cmd := &cobra.Command{
		Use:     "attributes KEY:VALUE...",
		Example: `ci-reporter attributes "job:tempest" "release:17.1" "nightly"`,
		Short:   "Print ReportPortal attributes built from KEY:VALUE strings as JSON.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAttributes(os.Stdout, args, in)
		},
	}
	cmd.Flags().StringVar(&in.valueDefault, "value-default", reportportal.DefaultAttributeValue, "Value of entries without one.")
	cmd.Flags().IntVar(&in.keyLength, "key-length", reportportal.DefaultAttributeLen, "Maximum key length.")
	cmd.Flags().IntVar(&in.valueLength, "value-length", reportportal.DefaultAttributeLen, "Maximum value length.")
	return cmd
}

func printAttributes(w io.Writer, list []string, in *attributesInput) error {
	attrs := reportportal.FormatAttributes(list, in.valueDefault, in.keyLength, in.valueLength)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(attrs)
}
