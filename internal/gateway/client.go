// Package gateway is the single HTTP doorway to the marketplace REST API.
// It attaches the bearer token to every request and enforces one global
// policy: an unauthorized response clears the persisted session. Everything
// else — validation failures, network trouble — passes through to the caller
// untouched. There is no retry, no backoff and no request queuing.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crafthub/internal/session"
)

// APIError is returned when the backend responds with a non-2xx status.
// Callers distinguish validation failures from transport failures with
// errors.As.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// errorBody matches the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
}

// Client wraps outbound requests to the REST backend.
type Client struct {
	base     string
	http     *http.Client
	sessions *session.Store
	logger   *zap.Logger
}

// New creates a gateway client rooted at baseURL (e.g. "https://host/api").
func New(baseURL string, sessions *session.Store, logger *zap.Logger) *Client {
	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		sessions: sessions,
		logger:   logger,
	}
}

// Do performs one request. body is JSON-encoded when non-nil; out is
// JSON-decoded from a 2xx response when non-nil. On 401/403 the session is
// expired before the error is returned — the caller still sees the failure,
// the redirect to the login view is driven by the session.expired event.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, c.sessions.Token(), "application/json", marshalBody(body), out)
}

// DoWithToken is Do with an explicit bearer token, used to probe /users/me
// with a token obtained out-of-band (OAuth browser hand-off) before any
// session exists.
func (c *Client) DoWithToken(ctx context.Context, method, path, token string, body, out any) error {
	return c.do(ctx, method, path, token, "application/json", marshalBody(body), out)
}

// PostText performs a POST with a text/plain body; the backend takes free-form
// reasons (order cancellation, product rejection) this way.
func (c *Client) PostText(ctx context.Context, path, text string) error {
	return c.do(ctx, http.MethodPost, path, c.sessions.Token(), "text/plain", func() (io.Reader, error) {
		return strings.NewReader(text), nil
	}, nil)
}

// Get issues GET path and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues POST path with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Patch issues PATCH path with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func marshalBody(body any) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		if body == nil {
			return nil, nil
		}
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		return bytes.NewReader(b), nil
	}
}

func (c *Client) do(ctx context.Context, method, path, token, contentType string, body func() (io.Reader, error), out any) error {
	reader, err := body()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Both statuses force-clear the session, matching the original
		// client's interceptor. The caller still gets the error.
		c.logger.Warn("session rejected by server",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path))
		c.sessions.Expire()
		return readAPIError(resp)
	}
	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Message == "" {
		eb.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: eb.Message}
}
