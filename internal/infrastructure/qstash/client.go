package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

// defaultRetries is how many redelivery attempts the callback service makes
// before giving up on a webhook.
const defaultRetries = 3

// Client wraps the delayed-callback service's HTTP API. Alerts registered
// here come back later as signed webhook POSTs to this service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a callback service client.
func NewClient(baseURL, token string, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Schedule is one recurring registration held by the callback service.
type Schedule struct {
	ScheduleID  string `json:"scheduleId"`
	Destination string `json:"destination"`
	Cron        string `json:"cron"`
}

type publishResponse struct {
	MessageID  string `json:"messageId"`
	ScheduleID string `json:"scheduleId"`
}

// PublishOneShot schedules a single POST of body to targetURL after delay.
// dedupID suppresses duplicate registrations of the same alert. Returns the
// message id to cancel with.
func (c *Client) PublishOneShot(ctx context.Context, targetURL string, body interface{}, delay time.Duration, dedupID string) (string, error) {
	headers := http.Header{}
	headers.Set("Upstash-Delay", fmt.Sprintf("%ds", int64(delay.Seconds())))
	headers.Set("Upstash-Retries", fmt.Sprintf("%d", defaultRetries))
	if dedupID != "" {
		headers.Set("Upstash-Deduplication-Id", dedupID)
	}

	raw, err := c.do(ctx, http.MethodPost, "/v2/publish/"+targetURL, body, headers)
	if err != nil {
		return "", err
	}
	var resp publishResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode publish response: %v", appErrors.ErrScheduling, err)
	}
	c.log.Debug(fmt.Sprintf("Registered one-shot callback %s to %s in %s", resp.MessageID, targetURL, delay))
	return resp.MessageID, nil
}

// PublishCron installs a recurring schedule that POSTs body to targetURL on
// every cron occurrence. Returns the schedule id to cancel with.
func (c *Client) PublishCron(ctx context.Context, targetURL, cronExpr string, body interface{}) (string, error) {
	headers := http.Header{}
	headers.Set("Upstash-Cron", cronExpr)
	headers.Set("Upstash-Retries", fmt.Sprintf("%d", defaultRetries))

	raw, err := c.do(ctx, http.MethodPost, "/v2/schedules/"+targetURL, body, headers)
	if err != nil {
		return "", err
	}
	var resp publishResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode schedule response: %v", appErrors.ErrScheduling, err)
	}
	c.log.Debug(fmt.Sprintf("Registered cron callback %s to %s with spec %q", resp.ScheduleID, targetURL, cronExpr))
	return resp.ScheduleID, nil
}

// CancelMessage cancels a pending one-shot message.
func (c *Client) CancelMessage(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v2/messages/"+id, nil, nil)
	return err
}

// CancelSchedule removes a recurring schedule.
func (c *Client) CancelSchedule(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v2/schedules/"+id, nil, nil)
	return err
}

// ListSchedules returns every recurring schedule registered for this token.
func (c *Client) ListSchedules(ctx context.Context) ([]Schedule, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v2/schedules", nil, nil)
	if err != nil {
		return nil, err
	}
	var schedules []Schedule
	if err := json.Unmarshal(raw, &schedules); err != nil {
		return nil, fmt.Errorf("%w: decode schedule list: %v", appErrors.ErrScheduling, err)
	}
	return schedules, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers http.Header) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal callback body: %v", appErrors.ErrScheduling, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", appErrors.ErrScheduling, err)
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: callback service returned %d: %s", appErrors.ErrScheduling, res.StatusCode, raw)
	}
	return raw, nil
}
