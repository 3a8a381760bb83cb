// Package render is the client side of the external render service: job
// submission, status polling, cancellation, and artifact download. The
// encoding pipeline itself is opaque; every call here is fallible and the
// export controller is responsible for mapping failures onto task state.
package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ErrNotConfigured is returned by the stub client when no render service
// endpoint has been configured.
var ErrNotConfigured = errors.New("render service not configured")

type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (taskID string, err error)
	Status(ctx context.Context, taskID string) (*JobStatus, error)
	Cancel(ctx context.Context, taskID string) error
	FetchOutput(ctx context.Context, taskID string) (io.ReadCloser, error)
}

// StubClient stands in when no render endpoint is configured. Submission
// fails with ErrNotConfigured so the export flow surfaces a readable error
// instead of silently doing nothing.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if c.logger != nil {
		c.logger.Warn("render stub: submit requested without a configured render service")
	}
	return "", ErrNotConfigured
}

func (c *StubClient) Status(ctx context.Context, taskID string) (*JobStatus, error) {
	return nil, ErrNotConfigured
}

func (c *StubClient) Cancel(ctx context.Context, taskID string) error {
	return ErrNotConfigured
}

func (c *StubClient) FetchOutput(ctx context.Context, taskID string) (io.ReadCloser, error) {
	return nil, ErrNotConfigured
}
