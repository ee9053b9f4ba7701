// HTTP plumbing shared by the remote service clients
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/desertthunder/curator/internal/shared"
)

// APIClient issues JSON requests against one base URL with a fixed set of extra headers.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewAPIClient creates a client rooted at baseURL. A nil client uses [http.DefaultClient].
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		headers:    make(http.Header),
	}
}

// WithHeader sets a header sent on every request and returns the client.
func (a *APIClient) WithHeader(key, value string) *APIClient {
	a.headers.Set(key, value)
	return a
}

func (a *APIClient) BaseURL() string { return a.baseURL }

// APIResponse is a raw response with its body fully read.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError describes a non-2xx reply. It unwraps to [shared.ErrRateLimited] for 429
// and [shared.ErrAPIRequest] otherwise.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return fmt.Sprintf("%v: %s", e.Unwrap(), msg)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return shared.ErrRateLimited
	}
	return shared.ErrAPIRequest
}

// StatusCode extracts the HTTP status from err when it is a [StatusError].
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Do sends a request and returns the response regardless of status.
// Transport failures are wrapped with [shared.ErrAPIRequest].
func (a *APIClient) Do(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range a.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactQuery(ue.URL)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, redactQuery(path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

// DoJSON sends a request, treats any non-2xx status as a [StatusError],
// and decodes the body into result when result is non-nil.
func (a *APIClient) DoJSON(ctx context.Context, method, path string, body, result any) error {
	resp, err := a.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Method: method, Path: redactQuery(path), Code: resp.StatusCode, Body: snippet(resp.Body)}
	}
	if result != nil && len(resp.Body) > 0 {
		return resp.Decode(result)
	}
	return nil
}

// bearerClient wraps base so every request carries the token from ts.
func bearerClient(base *http.Client, ts oauth2.TokenSource) *http.Client {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, ts)
}

// redactQuery drops the query string, which may carry an API key.
func redactQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
