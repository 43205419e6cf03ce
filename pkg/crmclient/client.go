// Package crmclient is the HTTP client for the CRM core service's internal
// API. The engine's capabilities use it to request deal mutations, tasks,
// emails and notifications; the sweeper uses it to find rotting deals.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(logger *slog.Logger, baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// UpdateDealField requests a single field mutation on a deal.
func (c *Client) UpdateDealField(ctx context.Context, teamID, dealID, field, value string) error {
	path := fmt.Sprintf("/internal/teams/%s/deals/%s", teamID, dealID)

	return c.do(ctx, http.MethodPatch, path, map[string]string{field: value}, nil)
}

// CreateTask creates a task linked to a deal. A nil due date leaves the task
// unscheduled.
func (c *Client) CreateTask(ctx context.Context, teamID, dealID, title, description string, dueDate *time.Time) error {
	path := fmt.Sprintf("/internal/teams/%s/tasks", teamID)

	body := map[string]any{
		"deal_id":     dealID,
		"title":       title,
		"description": description,
	}
	if dueDate != nil {
		body["due_date"] = dueDate.Format(time.RFC3339)
	}

	return c.do(ctx, http.MethodPost, path, body, nil)
}

// SendEmail hands an outbound email to the provider integration layer.
func (c *Client) SendEmail(ctx context.Context, teamID, dealID, to, subject, emailBody string) error {
	path := fmt.Sprintf("/internal/teams/%s/emails", teamID)

	return c.do(ctx, http.MethodPost, path, map[string]string{
		"deal_id": dealID,
		"to":      to,
		"subject": subject,
		"body":    emailBody,
	}, nil)
}

// Notify asks the notification service to push a message to a user.
func (c *Client) Notify(ctx context.Context, teamID, userID, message string) error {
	path := fmt.Sprintf("/internal/teams/%s/notifications", teamID)

	return c.do(ctx, http.MethodPost, path, map[string]string{
		"user_id": userID,
		"message": message,
	}, nil)
}

// RottingDeals returns open deals that have sat untouched in their stage for
// at least idleDays.
func (c *Client) RottingDeals(ctx context.Context, idleDays int) ([]models.DealSnapshot, error) {
	path := "/internal/deals/rotting?idle_days=" + strconv.Itoa(idleDays)

	var response struct {
		Deals []models.DealSnapshot `json:"deals"`
	}

	err := c.do(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return nil, err
	}

	return response.Deals, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("crm returned status %d: %s", resp.StatusCode, string(snippet))
	}

	if out != nil {
		err = json.NewDecoder(resp.Body).Decode(out)
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
