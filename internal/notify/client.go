// Package notify предоставляет клиент доставки событий изменений по вебхуку.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmeshcher/billing-system/internal/stream"
)

// Client инкапсулирует HTTP-доставку событий на внешний адрес вебхука.
type Client struct {
	url        string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент вебхука для указанного адреса. Временные ошибки
// и ответы 5xx повторяются клиентом с экспоненциальной выдержкой.
func NewClient(url string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = 10 * time.Second
	c.Logger = nil

	return &Client{
		url:        strings.TrimRight(url, "/"),
		httpClient: c,
	}
}

// Send отправляет одно событие изменения на адрес вебхука.
func (c *Client) Send(ctx context.Context, e stream.Event) error {
	if c == nil || c.url == "" {
		return fmt.Errorf("webhook client not configured")
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
