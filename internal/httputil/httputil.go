// Package httputil holds the HTTP plumbing shared by the CI fetchers.
package httputil

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultRetryMax = 5

// ConnectionError is returned for any non successful HTTP response.
type ConnectionError struct {
	StatusCode int
	Body       string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("HTTP%d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a ConnectionError with status 404.
func IsNotFound(err error) bool {
	var cerr *ConnectionError
	return errors.As(err, &cerr) && cerr.StatusCode == http.StatusNotFound
}

// NewClient returns a retrying client logging through logrus at warning level.
// The last response is returned when retries are exhausted so callers can
// report its status.
func NewClient(insecure bool) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = defaultRetryMax
	retryLogger := log.New()
	retryLogger.SetLevel(log.WarnLevel)
	retryClient.Logger = retryLogger
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if t, ok := retryClient.HTTPClient.Transport.(*http.Transport); ok {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecure} // #nosec G402
	}
	return retryClient
}

// Get fetches url and returns the body of a 200 response.
func Get(ctx context.Context, client *retryablehttp.Client, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error sending request to %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading response from %s", url)
	}
	log.Debugf("GET %s: %s", url, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectionError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into out.
func GetJSON(ctx context.Context, client *retryablehttp.Client, url string, out interface{}) error {
	body, err := Get(ctx, client, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "couldn't parse response body from %s", url)
	}
	return nil
}
