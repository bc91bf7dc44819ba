package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// AssistantClient calls the generative-AI proxy.
type AssistantClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAssistantClient creates a new AssistantClient.
func NewAssistantClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AssistantClient {
	return &AssistantClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Complete sends a text completion request to the proxy.
func (c *AssistantClient) Complete(ctx context.Context, req *domain.AIRequest) (*domain.AIResponse, error) {
	ctx, span := tracer.Start(ctx, "AssistantClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("ai.request_type", req.RequestType))

	var aiResp domain.AIResponse

	result, err := c.cb.Execute(func() (any, error) {
		var innerErr error
		innerErr = resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/ai/complete", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("AI proxy returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&aiResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &aiResp, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "ai-proxy", Err: err}
	}

	return result.(*domain.AIResponse), nil
}
