package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/ueba"
)

// ingestTimeout bounds telemetry and feedback submissions.
const ingestTimeout = 30 * time.Second

// HTTPClient implements FleetClient over the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) ListDocuments(ctx context.Context, req *ListDocumentsRequest) (*ListDocumentsResponse, error) {
	q := url.Values{}
	if req.VehicleID != "" {
		q.Set("vehicle_id", req.VehicleID)
	}
	if req.CaseID != "" {
		q.Set("case_id", req.CaseID)
	}
	if req.Status != "" {
		q.Set("status", req.Status)
	}
	if req.Severity != "" {
		q.Set("severity", req.Severity)
	}
	if req.Component != "" {
		q.Set("component", req.Component)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}

	path := "/v1/collections/" + url.PathEscape(req.Collection)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListDocumentsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, collection, id string) (*model.Document, error) {
	var doc model.Document
	path := "/v1/collections/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, collection, id string) error {
	path := "/v1/collections/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) IngestTelemetry(ctx context.Context, payload map[string]any) (*model.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/v1/telemetry", payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) SubmitFeedback(ctx context.Context, payload map[string]any) (*model.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/v1/feedback", payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) ReviewCase(ctx context.Context, collection, id, status, reviewer string) (*model.Document, error) {
	body := map[string]string{"status": status}
	if reviewer != "" {
		body["reviewer"] = reviewer
	}
	path := "/v1/cases/" + url.PathEscape(collection) + "/" + url.PathEscape(id) + "/review"
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, path, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) TrackEvent(ctx context.Context, req *TrackEventRequest) (*ueba.TrackedEvent, error) {
	var evt ueba.TrackedEvent
	if err := c.doJSON(ctx, http.MethodPost, "/v1/ueba/events", req, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *HTTPClient) GetSummary(ctx context.Context) (*ueba.Summary, error) {
	var s ueba.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/v1/ueba/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
