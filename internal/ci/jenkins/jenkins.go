// Package jenkins reads pipeline stages through the Jenkins pipeline stage
// view REST API.
package jenkins

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/ci"
	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

type runDescribe struct {
	DurationMillis  int64  `json:"durationMillis"`
	StartTimeMillis int64  `json:"startTimeMillis"`
	Status          string `json:"status"`
	Stages          []node `json:"stages"`
}

type node struct {
	ID string `json:"id"`
}

type stageDescribe struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	DurationMillis  int64  `json:"durationMillis"`
	StartTimeMillis int64  `json:"startTimeMillis"`
	StageFlowNodes  []node `json:"stageFlowNodes"`
}

type nodeLog struct {
	Text string `json:"text"`
}

// BuildURL is the address of one build of a job.
func BuildURL(domain, job, build string) string {
	return fmt.Sprintf("%s/job/%s/%s", strings.TrimRight(domain, "/"), job, build)
}

// Collect describes the build at base and returns its stages as a deployment
// suite.
func Collect(ctx context.Context, client *retryablehttp.Client, base string) (*api.TestSuite, error) {
	var run runDescribe
	if err := httputil.GetJSON(ctx, client, base+"/wfapi/describe", &run); err != nil {
		return nil, errors.Wrap(err, "describing jenkins build")
	}

	ds := ci.NewDeploymentSuite(run.DurationMillis/1000, run.StartTimeMillis/1000)
	for _, s := range run.Stages {
		st, err := stage(ctx, client, base, s.ID)
		if err != nil {
			return nil, err
		}
		if !ds.Add(st) {
			log.WithField("stage", st.Name).Info("Skipping stage still in progress")
		}
	}
	return ds.Suite(), nil
}

func stage(ctx context.Context, client *retryablehttp.Client, base, id string) (ci.Stage, error) {
	var desc stageDescribe
	if err := httputil.GetJSON(ctx, client, fmt.Sprintf("%s/execution/node/%s/wfapi/describe", base, id), &desc); err != nil {
		return ci.Stage{}, errors.Wrapf(err, "describing stage %s", id)
	}
	st := ci.Stage{
		Name:     desc.Name,
		Status:   desc.Status,
		Duration: desc.DurationMillis / 1000,
		Start:    desc.StartTimeMillis / 1000,
	}
	if st.Status == ci.StatusInProgress {
		return st, nil
	}
	for _, step := range desc.StageFlowNodes {
		var l nodeLog
		if err := httputil.GetJSON(ctx, client, fmt.Sprintf("%s/execution/node/%s/wfapi/log", base, step.ID), &l); err != nil {
			return ci.Stage{}, errors.Wrapf(err, "reading log of step %s", step.ID)
		}
		st.Logs = append(st.Logs, l.Text)
	}
	return st, nil
}
