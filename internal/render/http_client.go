package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ServiceError is a non-2xx answer from the render service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("render service: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx)
// are permanent.
func (e *ServiceError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient talks to the render service's job API over HTTP with bearer
// auth.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal render job: %w", err)
	}

	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/render/jobs", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("render service returned no task id")
	}

	if c.logger != nil {
		c.logger.Info("render job submitted",
			"task_id", resp.TaskID,
			"format", req.Format,
			"resolution", fmt.Sprintf("%dx%d", req.Width, req.Height),
			"body_bytes", len(body),
		)
	}
	return resp.TaskID, nil
}

func (c *HTTPClient) Status(ctx context.Context, taskID string) (*JobStatus, error) {
	var st JobStatus
	if err := c.do(ctx, http.MethodGet, "/api/render/jobs/"+taskID, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) Cancel(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodPost, "/api/render/jobs/"+taskID+"/cancel", nil, nil)
}

// FetchOutput streams the finished artifact. The caller owns the returned
// reader.
func (c *HTTPClient) FetchOutput(ctx context.Context, taskID string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/render/jobs/"+taskID+"/output", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode render service response: %w", err)
		}
	}
	return nil
}
