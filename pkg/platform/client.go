package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the fixed backend address. It is not configurable at
// runtime; builds may stamp it with -ldflags "-X".
var DefaultBaseURL = "http://ddns.i2g.cloud:8000/api"

// APIError is a non-2xx reply from the backend
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

// Error returns the server-provided detail when there is one
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = valueText(payload.Detail)
	}
	return apiErr
}

// ErrorMessage returns the text shown to the user for a failed call: the
// server detail if present, else the error's own message.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

// Client talks to the platform API
type Client struct {
	baseURL    string
	httpClient *resty.Client
}

// NewClient creates a new platform client. Requests carry no timeout and
// are never retried; they end with their context.
func NewClient(baseURL string) *Client {
	client := resty.New()
	client.SetHeader("Accept", "application/json")

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the address all calls are made against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// urlJoin joins base URL with path, preserving base path
func (c *Client) urlJoin(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// ListFiles fetches the file listing
func (c *Client) ListFiles(ctx context.Context) ([]FileEntry, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.urlJoin("/files"))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
		return nil, errors.New("failed to parse files response: empty body")
	case body[0] != '{':
		// Payloads without a content field clear the list.
		return []FileEntry{}, nil
	}

	var listing FileListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse files response: %w", err)
	}
	if listing.Content == nil {
		return []FileEntry{}, nil
	}
	return listing.Content, nil
}

// GetStatus fetches the status snapshot. A null payload yields nil.
func (c *Client) GetStatus(ctx context.Context) (*StatusSnapshot, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.urlJoin("/status"))
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	switch {
	case len(body) == 0:
		return nil, errors.New("failed to parse status response: empty body")
	case bytes.Equal(body, []byte("null")):
		return nil, nil
	case body[0] != '{':
		return &StatusSnapshot{raw: append(json.RawMessage(nil), body...)}, nil
	}

	var status StatusSnapshot
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// Query submits a free-text query and returns the response text
func (c *Client) Query(ctx context.Context, text string) (string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(QueryRequest{Query: text}).
		Post(c.urlJoin("/query"))
	if err != nil {
		return "", fmt.Errorf("failed to submit query: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	body := bytes.TrimSpace(resp.Body())
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
		return "", errors.New("failed to parse query response: empty body")
	case body[0] != '{':
		return "", nil
	}

	var result QueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse query response: %w", err)
	}
	return result.Text(), nil
}

// Health checks backend reachability through the status endpoint
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.urlJoin("/status"))
	if err != nil {
		return fmt.Errorf("failed to connect to platform: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("platform health check failed: %w", err)
	}
	return nil
}

func checkResponse(resp *resty.Response) error {
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return newAPIError(code, resp.Body())
	}
	return nil
}
