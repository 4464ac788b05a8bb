package publish

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
	"k8s.io/utils/ptr"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/archive"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/config"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/metrics"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/paths"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/publisher"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/reportportal"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/suite"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Options are the publish settings, read from flags, CI_REPORTER_*
// variables and the config file.
type Options struct {
	URL               string        `mapstructure:"url"`
	Token             string        `mapstructure:"token"`
	SSLVerify         bool          `mapstructure:"ssl_verify"`
	Threads           int           `mapstructure:"threads"`
	IgnoreSkipped     bool          `mapstructure:"ignore_skipped_tests"`
	ProjectName       string        `mapstructure:"project_name"`
	LaunchName        string        `mapstructure:"launch_name"`
	LaunchTags        []string      `mapstructure:"launch_tags"`
	LaunchDescription string        `mapstructure:"launch_description"`
	LaunchStartTime   string        `mapstructure:"launch_start_time"`
	LaunchEndTime     string        `mapstructure:"launch_end_time"`
	TestsPaths        []string      `mapstructure:"tests_paths"`
	TestsExcludePaths []string      `mapstructure:"tests_exclude_paths"`
	TracebackOnly     bool          `mapstructure:"log_last_traceback_only"`
	FullLogAttachment bool          `mapstructure:"full_log_attachment"`
	Timezone          string        `mapstructure:"reportportal_timezone"`
	MaxNameLength     int           `mapstructure:"max_name_length"`
	Output            string        `mapstructure:"output"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ArchiveBucket     string        `mapstructure:"archive_bucket"`
	ArchiveRegion     string        `mapstructure:"archive_region"`
	ArchiveKey        string        `mapstructure:"archive_key"`
	DryRun            bool          `mapstructure:"dry_run"`
}

func (o *Options) validate() error {
	required := map[string]string{
		"url":          o.URL,
		"token":        o.Token,
		"project_name": o.ProjectName,
		"launch_name":  o.LaunchName,
	}
	for _, k := range []string{"url", "token", "project_name", "launch_name"} {
		if required[k] == "" {
			return errors.Errorf("missing required option %q", k)
		}
	}
	if len(o.TestsPaths) == 0 {
		return errors.New("missing required option \"tests_paths\"")
	}
	if o.Output != OutputJSON && o.Output != OutputYAML {
		return errors.Errorf("unsupported output %q, use %s or %s", o.Output, OutputJSON, OutputYAML)
	}
	return nil
}

// Result is printed when the run ends.
type Result struct {
	LaunchID             string          `json:"launch_id" yaml:"launch_id"`
	ExpandedPaths        []string        `json:"expanded_paths" yaml:"expanded_paths"`
	ExpandedExcludePaths []string        `json:"expanded_exclude_paths" yaml:"expanded_exclude_paths"`
	Archive              string          `json:"archive,omitempty" yaml:"archive,omitempty"`
	Timers               *metrics.Timers `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Runner executes one publish run.
type Runner struct {
	Fs      afero.Fs
	Options *Options
	Clock   suite.Clock

	// NewService builds the ReportPortal client. Tests swap it for a fake.
	NewService func(o *Options) publisher.Service
	// Uploader is created from ArchiveRegion when nil.
	Uploader s3manageriface.UploaderAPI
}

func newReportPortal(o *Options) publisher.Service {
	return reportportal.NewClient(o.URL, o.ProjectName, o.Token,
		reportportal.WithInsecure(!o.SSLVerify),
		reportportal.WithTimeout(o.RequestTimeout),
	)
}

// Run resolves the reports, loads and publishes them, then archives them
// when a bucket is configured.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	o := r.Options
	if err := o.validate(); err != nil {
		return nil, err
	}
	clock := r.Clock
	if clock == nil {
		clock = time.Now
	}
	newService := r.NewService
	if newService == nil {
		newService = newReportPortal
	}

	timers := metrics.NewTimers()
	timers.Add("total")
	defer timers.Add("total")
	res := &Result{Timers: timers}

	timers.Set("resolve")
	included, excluded, err := paths.Resolve(r.Fs, o.TestsPaths, o.TestsExcludePaths)
	res.ExpandedPaths, res.ExpandedExcludePaths = included, excluded
	if err != nil {
		return res, err
	}
	log.WithField("files", len(included)).Info("Reports found")

	timers.Set("load")
	manager, err := suite.Load(r.Fs, included, suite.WithClock(clock))
	if err != nil {
		return res, err
	}
	if o.Timezone != "" {
		ref, err := suite.ReferenceTime(o.Timezone, clock)
		if err != nil {
			return res, err
		}
		manager.CorrectTimes(ref)
	}

	popts := publisher.Options{
		LaunchName:        o.LaunchName,
		Attributes:        reportportal.ParseLaunchTags(o.LaunchTags),
		Description:       o.LaunchDescription,
		IgnoreSkipped:     o.IgnoreSkipped,
		TracebackOnly:     o.TracebackOnly,
		FullLogAttachment: o.FullLogAttachment,
		Threads:           o.Threads,
		MaxNameLength:     o.MaxNameLength,
		Clock:             clock,
	}
	if popts.LaunchStartTime, err = launchTime("launch_start_time", o.LaunchStartTime); err != nil {
		return res, err
	}
	if popts.LaunchEndTime, err = launchTime("launch_end_time", o.LaunchEndTime); err != nil {
		return res, err
	}

	timers.Set("publish")
	res.LaunchID, err = publisher.New(newService(o), manager, popts).Publish(ctx)
	if err != nil {
		return res, errors.Wrap(err, "publishing launch")
	}
	log.WithField("launch", res.LaunchID).Info("Launch published")

	if o.ArchiveBucket != "" {
		timers.Set("archive")
		if res.Archive, err = r.archive(ctx, included, res.LaunchID); err != nil {
			return res, err
		}
	}
	timers.Stop()
	return res, nil
}

func (r *Runner) archive(ctx context.Context, files []string, launchID string) (string, error) {
	o := r.Options
	uploader := r.Uploader
	if uploader == nil && !o.DryRun {
		var err error
		if uploader, err = archive.NewS3Uploader(o.ArchiveRegion); err != nil {
			return "", errors.Wrap(err, "creating S3 session")
		}
	}
	a := archive.New(archive.Config{
		Bucket: o.ArchiveBucket,
		Region: o.ArchiveRegion,
		Key:    o.ArchiveKey,
		DryRun: o.DryRun,
	}, uploader)
	return a.Upload(ctx, r.Fs, files, map[string]string{
		"launch_id":   launchID,
		"launch_name": o.LaunchName,
		"project":     o.ProjectName,
	})
}

func launchTime(name, raw string) (*int64, error) {
	ms, ok, err := suite.ParseTimestamp(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	if !ok {
		return nil, nil
	}
	return ptr.To(ms), nil
}

// WriteResult prints res in the requested format.
func WriteResult(w io.Writer, format string, res *Result) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case OutputYAML:
		data, err = yaml.Marshal(res)
	default:
		data, err = json.MarshalIndent(res, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	_, err = w.Write(data)
	return err
}

func NewCmdPublish() *cobra.Command {
	v := viper.GetViper()
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish XUnit reports to ReportPortal as one launch",
		Long: `Publish merges every XUnit report matched by --tests-paths into a single
ReportPortal launch. Suite and case times come from the reports, and are
shifted back when they end after the current time of the ReportPortal server.`,
		Example: `  ci-reporter publish --url https://rp.example.com --token $TOKEN \
    --project-name infra --launch-name nightly \
    --tests-paths 'results/**/*.xml' --tests-exclude-paths 'results/**/skip-*.xml'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.BindPFlagsSnakeCase(v, cmd.Flags())
			opts := &Options{}
			if err := config.Hydrate(v, opts); err != nil {
				return err
			}

			r := &Runner{Fs: afero.NewOsFs(), Options: opts}
			res, err := r.Run(cmd.Context())
			if res != nil {
				if werr := WriteResult(os.Stdout, opts.Output, res); werr != nil {
					log.WithError(werr).Error("Unable to print the result")
				}
			}
			return errors.Wrap(err, "publish failed")
		},
	}

	flags := cmd.Flags()
	flags.String("url", "", "ReportPortal URL.")
	flags.String("token", "", "ReportPortal API token.")
	flags.Bool("ssl-verify", true, "Verify the ReportPortal TLS certificate.")
	flags.Int("threads", publisher.DefaultThreads, "Number of workers publishing test cases, 0 publishes sequentially.")
	flags.Bool("ignore-skipped-tests", false, "Do not publish skipped test cases.")
	flags.String("project-name", "", "ReportPortal project.")
	flags.String("launch-name", "", "Name of the launch.")
	flags.StringSlice("launch-tags", nil, "Launch attributes as KEY:VALUE.")
	flags.String("launch-description", "", "Description of the launch.")
	flags.String("launch-start-time", "", "Override the launch start time (epoch or ISO 8601).")
	flags.String("launch-end-time", "", "Override the launch end time (epoch or ISO 8601).")
	flags.StringSlice("tests-paths", nil, "XUnit report paths or glob patterns.")
	flags.StringSlice("tests-exclude-paths", nil, "Paths or glob patterns removed from --tests-paths.")
	flags.Bool("log-last-traceback-only", false, "Log only the last Python traceback of a failure.")
	flags.Bool("full-log-attachment", false, "Attach the whole failure output when only the traceback is logged.")
	flags.String("reportportal-timezone", "", "Timezone of the ReportPortal server, enables clock skew correction.")
	flags.Int("max-name-length", publisher.DefaultMaxNameLength, "Maximum test case name length, negative disables it.")
	flags.Duration("request-timeout", 0, "Timeout of each ReportPortal request, 0 waits indefinitely.")
	flags.StringP("output", "o", OutputJSON, "Result format, json or yaml.")
	flags.String("archive-bucket", "", "S3 bucket receiving a tar.xz of the published reports.")
	flags.String("archive-region", "us-east-1", "Region of the archive bucket.")
	flags.String("archive-key", "", "Object key of the archive, a trailing / gets a generated file name.")
	flags.Bool("dry-run", false, "Build the archive without uploading it.")

	return cmd
}
