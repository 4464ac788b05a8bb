// Package zuul reads builds and their test artifacts through the Zuul REST
// API.
package zuul

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/ci"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const (
	// DefaultAPITemplate locates one build in the Zuul API.
	DefaultAPITemplate = "{zuul_domain}/api/tenant/{zuul_tenant}/build/{zuul_job_build_id}"

	resultSkipped  = "SKIPPED"
	zuulTimeLayout = "2006-01-02T15:04:05"
)

// Build is the subset of a Zuul build description in use.
type Build struct {
	UUID      string     `json:"uuid"`
	JobName   string     `json:"job_name"`
	Result    *string    `json:"result"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Duration  float64    `json:"duration"`
	LogURL    string     `json:"log_url"`
	Artifacts []Artifact `json:"artifacts"`
}

type Artifact struct {
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata"`
}

// APIURL fills the template placeholders.
func APIURL(template, domain, tenant, buildID string) string {
	r := strings.NewReplacer(
		"{zuul_domain}", strings.TrimRight(domain, "/"),
		"{zuul_tenant}", tenant,
		"{zuul_job_build_id}", buildID,
	)
	return r.Replace(template)
}

// GetBuild reads the build at apiURL. A missing build usually means the
// buildset has not been reported yet.
func GetBuild(ctx context.Context, client *retryablehttp.Client, apiURL string) (*Build, error) {
	var b Build
	if err := httputil.GetJSON(ctx, client, apiURL, &b); err != nil {
		if httputil.IsNotFound(err) {
			return nil, errors.Wrap(err, "could not find build UUID in Zuul API, "+
				"this can happen with buildsets still running or aborted, "+
				"try again after the buildset is reported back to Zuul")
		}
		return nil, errors.Wrap(err, "describing zuul build")
	}
	return &b, nil
}

// CollectBuild returns the build at apiURL as a deployment suite with the
// job as its only case. A build without result is still running and has no
// case.
func CollectBuild(ctx context.Context, client *retryablehttp.Client, apiURL string) (*api.TestSuite, error) {
	b, err := GetBuild(ctx, client, apiURL)
	if err != nil {
		return nil, err
	}
	start, err := epochSeconds(b.StartTime)
	if err != nil {
		return nil, err
	}

	ds := ci.NewDeploymentSuite(int64(b.Duration), start)
	st := ci.Stage{
		Name:     b.JobName,
		Status:   ci.StatusInProgress,
		Duration: int64(b.Duration),
		Start:    start,
	}
	if b.Result != nil {
		ds.SetResult(*b.Result)
		st.Status = stageStatus(*b.Result)
		st.Logs = []string{fmt.Sprintf("Job %s finished with result %s", b.JobName, *b.Result)}
		if b.LogURL != "" {
			st.Logs = append(st.Logs, "Logs: "+b.LogURL)
		}
	}
	if !ds.Add(st) {
		log.WithField("build", b.UUID).Info("Build is still running")
	}
	return ds.Suite(), nil
}

func stageStatus(result string) string {
	switch result {
	case ci.StatusSuccess:
		return ci.StatusSuccess
	case resultSkipped:
		return ci.StatusNotExecuted
	default:
		return result
	}
}

// epochSeconds converts a Zuul UTC time. Empty is 0.
func epochSeconds(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.Parse(zuulTimeLayout, s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing zuul time %q", s)
	}
	return t.Unix(), nil
}
