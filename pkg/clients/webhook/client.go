package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client posts weekly attendance summaries to a staff notification webhook.
type Client interface {
	PostSummary(ctx context.Context, summary WeeklySummary) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client for the provided URL.
func NewClient(url string) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		url:        url,
	}
}

// WeeklySummary is the payload posted after each lab day.
type WeeklySummary struct {
	Date     string           `json:"date"`
	Sections []SectionSummary `json:"sections"`
	Text     string           `json:"text"`
}

// SectionSummary is one section's turnout for the summarized date.
type SectionSummary struct {
	Code    string `json:"code"`
	Present int    `json:"present"`
	Roster  int    `json:"roster"`
}

// PostSummary delivers the summary, treating any non-2xx response as an error.
func (c *APIClient) PostSummary(ctx context.Context, summary WeeklySummary) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(summary).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post weekly summary: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
