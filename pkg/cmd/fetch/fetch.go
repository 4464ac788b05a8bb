package fetch

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/ci/jenkins"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/ci/zuul"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const defaultOutput = "deployment.xml"

type commonInput struct {
	insecure bool
	output   string
}

type jenkinsInput struct {
	commonInput
	domain string
	job    string
	build  string
}

type zuulInput struct {
	commonInput
	domain      string
	tenant      string
	buildID     string
	apiTemplate string
	dest        string
	converter   string
}

func NewCmdFetch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch job data from CI systems as XUnit reports.",
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				log.Errorf("error loading help(): %v", err)
			}
		},
	}
	cmd.AddCommand(newCmdJenkins(), newCmdZuul(), newCmdZuulTests())
	return cmd
}

func addCommonFlags(cmd *cobra.Command, in *commonInput) {
	cmd.Flags().BoolVar(&in.insecure, "insecure", false, "Skip TLS certificate verification.")
	cmd.Flags().StringVarP(&in.output, "output", "o", defaultOutput, "Path of the XUnit report to write.")
}

func newCmdJenkins() *cobra.Command {
	in := &jenkinsInput{}
	cmd := &cobra.Command{
		Use:     "jenkins",
		Example: "ci-reporter fetch jenkins --domain https://jenkins.example.com --job deploy --build 42",
		Short:   "Write the pipeline stages of a Jenkins build as a deployment suite.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := httputil.NewClient(in.insecure)
			return fetchJenkins(cmd.Context(), client, afero.NewOsFs(), in)
		},
	}
	addCommonFlags(cmd, &in.commonInput)
	cmd.Flags().StringVar(&in.domain, "domain", "", "Jenkins URL.")
	cmd.Flags().StringVar(&in.job, "job", "", "Job name.")
	cmd.Flags().StringVar(&in.build, "build", "lastBuild", "Build number.")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func fetchJenkins(ctx context.Context, client *retryablehttp.Client, fs afero.Fs, in *jenkinsInput) error {
	ts, err := jenkins.Collect(ctx, client, jenkins.BuildURL(in.domain, in.job, in.build))
	if err != nil {
		return errors.Wrap(err, "collecting jenkins stages")
	}
	return writeSuite(fs, in.output, ts)
}

func addZuulFlags(cmd *cobra.Command, in *zuulInput) {
	addCommonFlags(cmd, &in.commonInput)
	cmd.Flags().StringVar(&in.domain, "domain", "", "Zuul URL.")
	cmd.Flags().StringVar(&in.tenant, "tenant", "", "Zuul tenant.")
	cmd.Flags().StringVar(&in.buildID, "build-id", "", "Build UUID.")
	cmd.Flags().StringVar(&in.apiTemplate, "api-template", zuul.DefaultAPITemplate, "Template of the build API URL.")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("build-id")
}

func (in *zuulInput) apiURL() string {
	return zuul.APIURL(in.apiTemplate, in.domain, in.tenant, in.buildID)
}

func newCmdZuul() *cobra.Command {
	in := &zuulInput{}
	cmd := &cobra.Command{
		Use:     "zuul",
		Example: "ci-reporter fetch zuul --domain https://zuul.opendev.org --tenant openstack --build-id abc",
		Short:   "Write a Zuul build as a deployment suite.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := httputil.NewClient(in.insecure)
			return fetchZuul(cmd.Context(), client, afero.NewOsFs(), in)
		},
	}
	addZuulFlags(cmd, in)
	return cmd
}

func fetchZuul(ctx context.Context, client *retryablehttp.Client, fs afero.Fs, in *zuulInput) error {
	ts, err := zuul.CollectBuild(ctx, client, in.apiURL())
	if err != nil {
		return err
	}
	return writeSuite(fs, in.output, ts)
}

func newCmdZuulTests() *cobra.Command {
	in := &zuulInput{}
	cmd := &cobra.Command{
		Use:     "zuul-tests",
		Example: "ci-reporter fetch zuul-tests --domain https://zuul.opendev.org --tenant openstack --build-id abc --dest results",
		Short:   "Download the XUnit and subunit test results of a Zuul build.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := httputil.NewClient(in.insecure)
			conv := &zuul.SubunitConverter{Command: in.converter}
			return fetchZuulTests(cmd.Context(), client, afero.NewOsFs(), os.Stdout, conv, in)
		},
	}
	addZuulFlags(cmd, in)
	cmd.Flags().StringVar(&in.dest, "dest", "results", "Directory receiving the reports.")
	cmd.Flags().StringVar(&in.converter, "converter", zuul.DefaultSubunitCommand, "Command converting subunit streams to XUnit.")
	return cmd
}

func fetchZuulTests(ctx context.Context, client *retryablehttp.Client, fs afero.Fs, w io.Writer, conv zuul.Converter, in *zuulInput) error {
	got, err := zuul.DownloadTestResults(ctx, client, fs, in.apiURL(), in.dest, conv)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(got)
}

func writeSuite(fs afero.Fs, path string, ts *api.TestSuite) error {
	written, err := api.WriteSuite(fs, path, ts)
	if err != nil {
		return err
	}
	log.WithField("tests", ts.Tests).Infof("Report written to %s", written)
	return nil
}
