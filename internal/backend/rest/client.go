// Package rest binds backend.Provider to a hosted backend-as-a-service
// speaking JSON over HTTP. The wire surface is intentionally generic:
// project and platform travel as headers, the session secret as a bearer
// header, and list predicates as JSON-encoded query parameters.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/logging"
)

const (
	headerProject  = "X-Aora-Project"
	headerPlatform = "X-Aora-Platform"
	headerSession  = "X-Aora-Session"
)

// Options configures a Client.
type Options struct {
	// Endpoint is the provider's API root, e.g. https://cloud.example.com/v1.
	Endpoint  string
	ProjectID string
	Platform  string
	// Sessions persists the session secret across process runs. Defaults to
	// an in-memory store.
	Sessions SessionStore
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond int
}

// Client implements backend.Provider against a remote HTTP API.
type Client struct {
	endpoint  string
	projectID string
	platform  string
	http      *http.Client
	limiter   *rate.Limiter
	sessions  SessionStore
}

// New constructs a Client from the provided options.
func New(opts Options) (*Client, error) {
	endpoint := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("rest client: endpoint is required")
	}
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, fmt.Errorf("rest client: project id is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond)
	}

	return &Client{
		endpoint:  endpoint,
		projectID: opts.ProjectID,
		platform:  opts.Platform,
		http:      httpClient,
		limiter:   limiter,
		sessions:  sessions,
	}, nil
}

type apiError struct {
	Message string `json:"message"`
}

// do executes one API call: throttle, attach headers, issue the request and
// decode the response into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("throttle %s %s: %w", method, path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set(headerProject, c.projectID)
	if c.platform != "" {
		req.Header.Set(headerPlatform, c.platform)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if secret, err := c.sessions.Load(); err == nil && secret != "" {
		req.Header.Set(headerSession, secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, backend.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(ctx, method, path, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

func (c *Client) decodeError(ctx context.Context, method, path string, resp *http.Response) error {
	var payload apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err != nil || payload.Message == "" {
		payload.Message = http.StatusText(resp.StatusCode)
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = backend.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		kind = backend.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		kind = backend.ErrConflict
	case resp.StatusCode >= http.StatusInternalServerError:
		kind = backend.ErrUnavailable
	default:
		return fmt.Errorf("%s %s: %s (status %d)", method, path, payload.Message, resp.StatusCode)
	}

	logging.FromContext(ctx).Debug("backend call rejected",
		"method", method, "path", path, "status", resp.StatusCode, "message", payload.Message)

	return fmt.Errorf("%s %s: %w: %s", method, path, kind, payload.Message)
}

var _ backend.Provider = (*Client)(nil)
