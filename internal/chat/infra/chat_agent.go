package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/chat/domain"
	maindomain "github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// tracer é o tracer OpenTelemetry para o módulo chat/infra.
var tracer = otel.Tracer("chat/infra")

// ============================================================
// SupportAgentClient — cliente HTTP que chama o agente de suporte
// ============================================================
//
// O agente responde perguntas frequentes sobre grupos, pagamentos e
// credenciais. Contrato:
//
//	Request:  {"query": "Não consigo acessar a senha do grupo"}
//	Response: {"answer": "...", "tokens_used": 820}
//
// Quando o agente decide escalar, a answer vem com o EscalationToken
// embutido — quem trata isso é o ChatService, nunca este client.

type SupportAgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewSupportAgentClient cria o client do agente de suporte.
// O baseURL deve ser a URL base do agente (sem /v1/chat no final).
func NewSupportAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SupportAgentClient {
	return &SupportAgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// SendChat envia uma mensagem para o agente e retorna a resposta.
//
// Fluxo:
//  1. Serializa o SupportAgentRequest como JSON
//  2. Faz POST para {baseURL}/v1/chat
//  3. Decodifica a resposta SupportAgentResponse
//  4. Usa circuit breaker + retry para resiliência
//
// O circuit breaker protege contra o agente estar fora do ar.
// O retry com backoff tenta novamente em caso de falha temporária.
func (c *SupportAgentClient) SendChat(ctx context.Context, req *domain.SupportAgentRequest) (*domain.SupportAgentResponse, error) {
	ctx, span := tracer.Start(ctx, "SupportAgentClient.SendChat")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	var agentResp domain.SupportAgentResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("marshal chat request: %w", err)
			}

			url := fmt.Sprintf("%s/v1/chat", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create http request: %w", err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("http call to support agent: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("support agent /v1/chat returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&agentResp)
		})

		if innerErr != nil {
			return nil, innerErr
		}
		return &agentResp, nil
	})

	if err != nil {
		return nil, &maindomain.ErrExternalService{Service: "support-agent", Err: err}
	}

	return result.(*domain.SupportAgentResponse), nil
}
