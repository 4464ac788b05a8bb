package reportportal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
)

type recorded struct {
	method string
	path   string
	body   map[string]interface{}
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	parts    map[string][]byte
	fail     string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail != "" && strings.HasSuffix(r.URL.Path, fail) {
		http.Error(w, `{"message":"broken"}`, http.StatusBadRequest)
		return
	}

	rec := recorded{method: r.Method, path: r.URL.Path}
	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		f.mu.Lock()
		f.parts = map[string][]byte{}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(p)
			f.parts[p.FormName()] = b
		}
		f.mu.Unlock()
	} else {
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/launch"):
		_, _ = w.Write([]byte(`{"id":"launch-1","number":7}`))
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/item"):
		_, _ = w.Write([]byte(`{"id":"item-1"}`))
	default:
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}
}

func newTestClient(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "qe", "secret"), fake
}

func TestClientTimeout(t *testing.T) {
	assert.Zero(t, NewClient("https://rp.example.com", "qe", "secret").client.Timeout)
	c := NewClient("https://rp.example.com", "qe", "secret", WithTimeout(90*time.Second))
	assert.Equal(t, 90*time.Second, c.client.Timeout)
}

func TestClientLaunchLifecycle(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	id, err := c.StartLaunch(ctx, StartLaunchRequest{
		Name:       "nightly",
		StartTime:  1000,
		Attributes: []Attribute{{Key: "owner", Value: "N/A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "launch-1", id)
	assert.Equal(t, "launch-1", c.LaunchID())

	suiteID, err := c.StartItem(ctx, "", StartItemRequest{Name: "suite", StartTime: 1000, Type: ItemTypeSuite})
	require.NoError(t, err)
	_, err = c.StartItem(ctx, suiteID, StartItemRequest{Name: "case", StartTime: 1000, Type: ItemTypeStep})
	require.NoError(t, err)
	require.NoError(t, c.Log(ctx, LogRequest{ItemID: "item-1", Time: 1000, Message: "hello", Level: LevelInfo}))
	require.NoError(t, c.FinishItem(ctx, "item-1", FinishItemRequest{EndTime: 2000, Status: StatusSkipped, Issue: &Issue{IssueType: IssueNotIssue}}))
	require.NoError(t, c.FinishLaunch(ctx, FinishLaunchRequest{EndTime: 3000}))

	reqs := fake.requests
	require.Len(t, reqs, 6)

	assert.Equal(t, "/api/v1/qe/launch", reqs[0].path)
	assert.Equal(t, "nightly", reqs[0].body["name"])
	assert.Equal(t, float64(1000), reqs[0].body["startTime"])

	assert.Equal(t, "/api/v1/qe/item", reqs[1].path)
	assert.Equal(t, "launch-1", reqs[1].body["launchUuid"])
	assert.Equal(t, "SUITE", reqs[1].body["type"])

	assert.Equal(t, "/api/v1/qe/item/item-1", reqs[2].path)
	assert.Equal(t, http.MethodPost, reqs[2].method)

	assert.Equal(t, "/api/v1/qe/log", reqs[3].path)
	assert.Equal(t, "item-1", reqs[3].body["itemUuid"])
	assert.Equal(t, "INFO", reqs[3].body["level"])

	assert.Equal(t, http.MethodPut, reqs[4].method)
	assert.Equal(t, map[string]interface{}{"issueType": "NOT_ISSUE"}, reqs[4].body["issue"])

	assert.Equal(t, "/api/v1/qe/launch/launch-1/finish", reqs[5].path)
	assert.Equal(t, float64(3000), reqs[5].body["endTime"])
}

func TestClientLogAttachment(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	_, err := c.StartLaunch(ctx, StartLaunchRequest{Name: "l"})
	require.NoError(t, err)

	err = c.Log(ctx, LogRequest{
		ItemID:     "item-1",
		Message:    "Traceback",
		Level:      LevelError,
		Attachment: &Attachment{Name: "Entire_log.txt", Data: []byte("full log"), Mime: "text/plain"},
	})
	require.NoError(t, err)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(fake.parts["json_request_part"], &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Traceback", entries[0]["message"])
	assert.Equal(t, map[string]interface{}{"name": "Entire_log.txt"}, entries[0]["file"])
	assert.Equal(t, "full log", string(fake.parts["file"]))
}

func TestClientErrors(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	err := c.FinishLaunch(ctx, FinishLaunchRequest{EndTime: 1})
	assert.EqualError(t, err, "no launch was started")

	fake.mu.Lock()
	fake.fail = "/launch"
	fake.mu.Unlock()
	_, err = c.StartLaunch(ctx, StartLaunchRequest{Name: "l"})
	require.Error(t, err)
	var cerr *httputil.ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, http.StatusBadRequest, cerr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP400")

	bad := NewClient(strings.TrimSuffix(c.endpoint, "/"), "qe", "wrong")
	_, err = bad.StartItem(ctx, "", StartItemRequest{Name: "x"})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, http.StatusUnauthorized, cerr.StatusCode)
}
