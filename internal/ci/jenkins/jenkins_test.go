package jenkins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

var fixtures = map[string]string{
	"/job/deploy/42/wfapi/describe": `{"durationMillis": 125999, "startTimeMillis": 1691320000123,
		"stages": [{"id": "6"}, {"id": "20"}, {"id": "31"}, {"id": "40"}]}`,
	"/job/deploy/42/execution/node/6/wfapi/describe": `{"name": "Provision", "status": "SUCCESS",
		"durationMillis": 61500, "startTimeMillis": 1691320000500, "stageFlowNodes": [{"id": "7"}, {"id": "8"}]}`,
	"/job/deploy/42/execution/node/7/wfapi/log":  `{"text": "provisioning\u001b[0m nodes"}`,
	"/job/deploy/42/execution/node/8/wfapi/log":  `{"text": ""}`,
	"/job/deploy/42/execution/node/20/wfapi/describe": `{"name": "Deploy", "status": "FAILED",
		"durationMillis": 2000, "startTimeMillis": 1691320062000, "stageFlowNodes": [{"id": "21"}]}`,
	"/job/deploy/42/execution/node/21/wfapi/log": `{"text": "deploy failed"}`,
	"/job/deploy/42/execution/node/31/wfapi/describe": `{"name": "Cleanup", "status": "NOT_EXECUTED",
		"stageFlowNodes": []}`,
	"/job/deploy/42/execution/node/40/wfapi/describe": `{"name": "Report", "status": "IN_PROGRESS",
		"stageFlowNodes": [{"id": "41"}]}`,
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollect(t *testing.T) {
	srv := newServer(t)
	client := httputil.NewClient(false)
	client.RetryMax = 0

	ts, err := Collect(context.Background(), client, BuildURL(srv.URL+"/", "deploy", "42"))
	require.NoError(t, err)

	assert.Equal(t, "deployment", ts.Name)
	assert.Equal(t, "125", ts.Time)
	assert.Equal(t, "1691320000", ts.Timestamp)
	assert.Equal(t, "3", ts.Tests)
	assert.Equal(t, "1", ts.Failures)
	assert.Equal(t, "1", ts.Skipped)

	require.Len(t, ts.TestCases, 3)
	assert.Equal(t, "Provision", ts.TestCases[0].Name)
	assert.Equal(t, "61", ts.TestCases[0].Time)
	assert.Equal(t, "1691320000", ts.TestCases[0].Timestamp)
	assert.Equal(t, []string{"provisioning[0m nodes"}, ts.TestCases[0].SystemOut)
	assert.Equal(t, api.TestStatusFail, ts.TestCases[1].Status())
	assert.Equal(t, []string{"deploy failed"}, ts.TestCases[1].Messages())
	assert.Equal(t, "No logs found", ts.TestCases[2].Skipped.Text)
}

func TestCollectMissingBuild(t *testing.T) {
	srv := newServer(t)
	client := httputil.NewClient(false)
	client.RetryMax = 0

	_, err := Collect(context.Background(), client, BuildURL(srv.URL, "deploy", "43"))
	require.Error(t, err)
	assert.True(t, httputil.IsNotFound(err))
}
