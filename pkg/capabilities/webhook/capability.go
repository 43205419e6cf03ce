// Package webhook implements the webhook action: an HTTP call to a
// customer-provided endpoint carrying the rendered body.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/template"
)

const defaultAttempts = 1
const maxAttempts = 3
const retryDelay = time.Second

type Capability struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewCapability(logger *slog.Logger) *Capability {
	return &Capability{
		httpClient: &http.Client{},
		logger:     logger.With("capability", "webhook"),
	}
}

func (*Capability) ID() string {
	return "webhook"
}

// Invoke performs the HTTP request. Server errors are retried up to the
// configured attempt count; 4xx responses are not, a misconfigured endpoint
// will not heal on retry.
func (c *Capability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	url := config["url"]
	if url == "" {
		return errors.New("webhook requires a url")
	}

	method := strings.ToUpper(config["method"])
	if method == "" {
		method = http.MethodPost
	}

	body, err := template.Render(config["body"], capCtx)
	if err != nil {
		return err
	}

	attempts := defaultAttempts

	if raw := config["retry_attempts"]; raw != "" {
		attempts, err = strconv.Atoi(raw)
		if err != nil || attempts < 1 || attempts > maxAttempts {
			return fmt.Errorf("invalid retry_attempts %q", raw)
		}
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logger.InfoContext(ctx, "Retrying webhook",
				"url", url, "attempt", attempt, "attempts", attempts)

			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.call(ctx, method, url, body)
		if lastErr == nil {
			return nil
		}

		var retryable *serverError
		if !errors.As(lastErr, &retryable) {
			return lastErr
		}
	}

	return lastErr
}

func (c *Capability) call(ctx context.Context, method, url, body string) error {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &serverError{status: resp.StatusCode}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return "webhook returned status " + strconv.Itoa(e.status)
}
