package alerts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
)

// Alert is the JSON payload pushed to the configured webhook when a
// high-priority suggestion is active for a session.
type Alert struct {
	SessionID string                    `json:"session_id"`
	Priority  models.SuggestionPriority `json:"priority"`
	Category  string                    `json:"category"`
	Action    string                    `json:"action"`
	Impact    []models.ImpactEntry      `json:"impact,omitempty"`
}

// Client exposes the advisory notification operations used by the scheduler.
type Client interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookClient builds an alert client targeting the provided webhook URL.
func NewWebhookClient(webhookURL string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		url:        webhookURL,
	}
}

// SendAlert POSTs the alert to the webhook and treats any non-2xx status as
// an error.
func (c *WebhookClient) SendAlert(ctx context.Context, alert Alert) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send advisory alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("advisory webhook error: status=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
