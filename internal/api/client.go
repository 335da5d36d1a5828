package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is where the file system backend listens by default
const DefaultBaseURL = "http://localhost:8080"

var (
	// ErrUnauthorized is returned when the backend rejects the bearer token
	ErrUnauthorized = errors.New("unauthorized")
	// ErrOperationFailed is returned when the backend answers with {"status":"error"}
	ErrOperationFailed = errors.New("operation failed")
)

// StatusError describes a non-2xx response
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Code, body)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is an HTTP client for the file system backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a client for the backend at baseURL.
// tokens may be nil for unauthenticated calls such as login.
func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTimeout changes the per-request timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// retry executes fn with exponential backoff
// Returns the result of fn or the last error after maxRetries attempts
func retry[T any](ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() (T, error)) (T, error) {
	var result T
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		// Stop early on cancellation and on errors that must not be repeated
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return result, perm.err
		}
		if errors.Is(err, ErrUnauthorized) {
			return result, err
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
				delay = delay * 2
				if delay > 5*time.Second {
					delay = 5 * time.Second
				}
			}
		}
	}

	return result, err
}

// permanentError stops retry and hands back the wrapped error
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retryNoResult executes fn with exponential backoff for functions that don't return a value
func retryNoResult(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	_, err := retry(ctx, maxRetries, initialDelay, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// segment escapes a single path component
func segment(name string) string {
	return url.PathEscape(name)
}

// do sends a request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// doJSON sends a JSON body (nil for none)
func (c *Client) doJSON(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	if in == nil {
		return c.do(ctx, op, method, path, nil, "")
	}
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(jsonBody), "application/json")
}

// doText sends a plain-text body, which is how file content travels
func (c *Client) doText(ctx context.Context, op, method, path, content string) ([]byte, error) {
	return c.do(ctx, op, method, path, strings.NewReader(content), "text/plain")
}

// statusBody is the {"status": "..."} envelope most mutating routes answer with
type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// checkStatus turns a 200 {"status":"error"} answer into ErrOperationFailed.
// Bodies that are not a status envelope are accepted as success.
func checkStatus(op string, body []byte) error {
	var sb statusBody
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil
	}
	if strings.EqualFold(sb.Status, "error") {
		if sb.Message != "" {
			return fmt.Errorf("%s: %w: %s", op, ErrOperationFailed, sb.Message)
		}
		return fmt.Errorf("%s: %w", op, ErrOperationFailed)
	}
	return nil
}

// decodeText accepts either a JSON string or a raw text body
func decodeText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(body)
}
