package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// PushClient delivers push notifications through the push gateway.
// Delivery is best-effort: callers fire it in a goroutine and only log
// failures, so there is no circuit breaker or retry here.
type PushClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewPushClient creates a new PushClient.
func NewPushClient(httpClient *http.Client, baseURL string, logger *zap.Logger) *PushClient {
	return &PushClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Notify sends one notification to a user's registered devices.
func (c *PushClient) Notify(ctx context.Context, userID, title, body string) error {
	ctx, span := tracer.Start(ctx, "PushClient.Notify")
	defer span.End()

	payload, err := json.Marshal(map[string]string{
		"user_id": userID,
		"title":   title,
		"body":    body,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/notifications", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("push: delivery failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("push: gateway non-2xx",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
