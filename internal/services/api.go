package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/soundwave/internal/shared"
)

// DefaultBaseURL is where the catalogue API listens in a local deployment.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// APIService makes requests against the catalogue REST API.
//
// Authentication is the client's concern: pass an [http.Client] whose
// transport is a session.Transport.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service rooted at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the root every path is resolved against.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data, "application/json")
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, data, "application/json")
}

// Do sends data (which may be nil) to path. The body is held in memory so
// the request can be replayed after a token refresh.
func (a *APIService) Do(ctx context.Context, method, path string, data []byte, contentType string) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// StatusError is returned by the typed endpoints for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap lets callers match the error with [errors.Is] against shared sentinels.
func (e *StatusError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusNotFound:
		errs = append(errs, shared.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusBadRequest:
		errs = append(errs, shared.ErrInvalidInput)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// newStatusError extracts the server's message from a Spring-style error body.
func newStatusError(method, path string, resp *APIResponse) *StatusError {
	e := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}

	fields, ok := resp.JSONData.(map[string]any)
	if !ok {
		e.Message = strings.TrimSpace(string(resp.Body))
		return e
	}

	for _, key := range []string{"message", "error"} {
		if s, ok := fields[key].(string); ok && s != "" {
			e.Message = s
			break
		}
	}

	if details, ok := fields["details"].(map[string]any); ok {
		var parts []string
		for field, reason := range details {
			parts = append(parts, fmt.Sprintf("%s: %v", field, reason))
		}
		if len(parts) > 0 {
			e.Message = strings.TrimSpace(e.Message + " (" + strings.Join(parts, "; ") + ")")
		}
	}
	return e
}
