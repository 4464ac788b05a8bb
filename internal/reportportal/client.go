// Package reportportal is a small client for the ReportPortal v5 REST API,
// covering what is needed to publish a launch of XUnit results.
package reportportal

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
)

const (
	defaultMaxIdleConns = 100
	apiVersionPath      = "/api/v1"
	multipartJSONField  = "json_request_part"
	multipartFileField  = "file"
)

// Client talks to one project of a ReportPortal server. Requests are not
// retried.
type Client struct {
	endpoint string
	project  string
	token    string
	client   *http.Client

	mu       sync.RWMutex
	launchID string
}

type Option func(*Client)

// WithInsecure disables TLS certificate verification.
func WithInsecure(insecure bool) Option {
	return func(c *Client) {
		t, ok := c.client.Transport.(*http.Transport)
		if !ok {
			return
		}
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecure} // #nosec G402
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a client for endpoint (scheme and host) and project.
func NewClient(endpoint, project, token string, opts ...Option) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = defaultMaxIdleConns
	t.MaxIdleConnsPerHost = defaultMaxIdleConns

	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		project:  project,
		token:    token,
		client:   &http.Client{Transport: t},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LaunchID is the launch started by StartLaunch, empty before.
func (c *Client) LaunchID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.launchID
}

func (c *Client) url(format string, a ...interface{}) string {
	return c.endpoint + apiVersionPath + "/" + c.project + fmt.Sprintf(format, a...)
}

// StartLaunch opens the launch every later call refers to.
func (c *Client) StartLaunch(ctx context.Context, req StartLaunchRequest) (string, error) {
	var created entryCreated
	if err := c.doJSON(ctx, http.MethodPost, c.url("/launch"), req, &created); err != nil {
		return "", errors.Wrap(err, "starting launch")
	}
	c.mu.Lock()
	c.launchID = created.ID
	c.mu.Unlock()
	log.WithField("launch", created.ID).Infof("Started launch %q", req.Name)
	return created.ID, nil
}

// StartItem starts a root item, or a child of parentID when not empty.
func (c *Client) StartItem(ctx context.Context, parentID string, req StartItemRequest) (string, error) {
	req.LaunchUUID = c.LaunchID()
	u := c.url("/item")
	if parentID != "" {
		u = c.url("/item/%s", parentID)
	}
	var created entryCreated
	if err := c.doJSON(ctx, http.MethodPost, u, req, &created); err != nil {
		return "", errors.Wrapf(err, "starting item %q", req.Name)
	}
	return created.ID, nil
}

func (c *Client) FinishItem(ctx context.Context, itemID string, req FinishItemRequest) error {
	req.LaunchUUID = c.LaunchID()
	if err := c.doJSON(ctx, http.MethodPut, c.url("/item/%s", itemID), req, nil); err != nil {
		return errors.Wrapf(err, "finishing item %s", itemID)
	}
	return nil
}

func (c *Client) FinishLaunch(ctx context.Context, req FinishLaunchRequest) error {
	id := c.LaunchID()
	if id == "" {
		return errors.New("no launch was started")
	}
	if err := c.doJSON(ctx, http.MethodPut, c.url("/launch/%s/finish", id), req, nil); err != nil {
		return errors.Wrapf(err, "finishing launch %s", id)
	}
	log.WithField("launch", id).Infof("Finished launch with status %s", req.Status)
	return nil
}

// Log adds an entry to an item. With an attachment the entry is sent as a
// multipart request.
func (c *Client) Log(ctx context.Context, req LogRequest) error {
	payload := logPayload{
		LaunchUUID: c.LaunchID(),
		ItemUUID:   req.ItemID,
		Time:       req.Time,
		Message:    req.Message,
		Level:      req.Level,
	}
	if req.Attachment == nil {
		if err := c.doJSON(ctx, http.MethodPost, c.url("/log"), payload, nil); err != nil {
			return errors.Wrapf(err, "logging to item %s", req.ItemID)
		}
		return nil
	}

	payload.File = &logFile{Name: req.Attachment.Name}
	body, contentType, err := multipartLog(payload, req.Attachment)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, c.url("/log"), contentType, body, nil); err != nil {
		return errors.Wrapf(err, "logging attachment %s to item %s", req.Attachment.Name, req.ItemID)
	}
	return nil
}

func multipartLog(payload logPayload, a *Attachment) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	jsonPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q`, multipartJSONField)},
		"Content-Type":        {"application/json"},
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "creating json part")
	}
	if err := json.NewEncoder(jsonPart).Encode([]logPayload{payload}); err != nil {
		return nil, "", errors.Wrap(err, "encoding log entry")
	}

	mime := a.Mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	filePart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename=%q`, multipartFileField, a.Name)},
		"Content-Type":        {mime},
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "creating file part")
	}
	if _, err := filePart.Write(a.Data); err != nil {
		return nil, "", errors.Wrap(err, "writing attachment")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart body")
	}
	return buf, w.FormDataContentType(), nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "couldn't encode request body")
	}
	return c.do(ctx, method, url, "application/json", bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(err, "couldn't create the request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "couldn't call URL %s", url)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "couldn't read response body")
	}
	log.Debugf("%s %s: %s", method, url, res.Status)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &httputil.ConnectionError{StatusCode: res.StatusCode, Body: string(resBody)}
	}
	if out == nil || len(resBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return errors.Wrap(err, "couldn't parse response body")
	}
	return nil
}
