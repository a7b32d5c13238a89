// Package automl talks to the external AutoML trainer service over HTTP.
// The trainer owns model search and serialization; this side only ships
// prepared splits and stores the returned artifact bytes.
package automl

import (
	"context"
	"fmt"
	"time"

	xhttp "QuantForge/pkg/http"
)

// httpServiceBase centralizes client construction and JSON POST handling
// for the trainer endpoints.
type httpServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPServiceBase(baseURL string, timeout time.Duration) *httpServiceBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// postJSON posts the payload to path under baseURL and decodes JSON into dest.
func (b *httpServiceBase) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("trainer http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
