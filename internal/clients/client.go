// Package clients holds thin HTTP clients for the sibling services the
// orchestrator calls: the location planner, the product catalog, and the
// stock service. These services are collaborators, not part of this core;
// the clients only translate transport outcomes into the shared error
// taxonomy so consumers can decide between retry and acknowledgment.
package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/stocklift/picking-orchestrator/internal/shell"
)

const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a collaborator answers 404. Callers decide
// whether that is benign (stock already moved on) or an error.
var ErrNotFound = errors.New("resource not found")

// httpClient wraps the shared request/response plumbing. A transport error
// or 5xx maps to shell.ErrDownstreamUnavailable (retryable); a client-side
// timeout is treated identically to an unavailable downstream.
type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) httpClient {
	return httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c httpClient) doJSON(ctx context.Context, method string, path string, tenantID string, body any, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := jsoniter.ConfigFastest.Marshal(body)
		if err != nil {
			return err
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Join(shell.ErrDownstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s answered %d", shell.ErrDownstreamUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s answered %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(shell.ErrDownstreamUnavailable, err)
	}

	return jsoniter.ConfigFastest.Unmarshal(raw, out)
}
