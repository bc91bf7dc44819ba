// Package service — chat_service.go implementa o ChatService.
//
// ============================================================
// ARQUITETURA — Strategy Pattern para Routing de Contexto
// ============================================================
//
// O ChatService é o orquestrador da rota POST /v1/support/chat.
// Ele recebe a mensagem do usuário, detecta a intenção (intent) e
// delega o processamento para a Strategy correta.
//
// Fluxo completo:
//  1. Handler recebe POST /v1/support/chat com {"message": "...", "history": [...]}
//  2. ChatService.ProcessMessage() é chamado
//  3. Detecta a intenção do usuário (pedindo humano? pergunta geral?)
//  4. Procura a Strategy correspondente na lista de strategies
//  5. Se não encontra, usa o handle default (manda pro agente de IA)
//  6. Se a resposta do agente contém o EscalationToken, o service
//     remove o token e devolve a oferta de escalonamento com o
//     chamado pré-preenchido a partir do transcript
//
// Strategies disponíveis:
//   - HumanRequestStrategy: usuário pediu atendente → escala direto,
//     sem gastar tokens com o agente
//   - (futuro) BillingStrategy, CredentialStrategy, etc.
package service

import (
	"context"
	"strings"

	"github.com/boddenberg/streampool-bff-go/internal/chat/domain"
	"github.com/boddenberg/streampool-bff-go/internal/chat/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

// ============================================================
// ChatStrategy — interface que cada contexto implementa
// ============================================================

// ChatStrategy define o contrato de uma estratégia de processamento.
//
// CanHandle: diz se essa strategy sabe lidar com a intenção detectada
// Handle:    processa a mensagem e retorna a resposta
type ChatStrategy interface {
	// CanHandle retorna true se essa strategy trata a intenção dada.
	// Exemplos de intent: "human", "general"
	CanHandle(intent string) bool

	// Handle processa a mensagem do chat dentro do contexto dessa strategy.
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error)
}

// ============================================================
// ChatService — orquestrador com strategy routing
// ============================================================

// ChatService é o serviço principal da rota de suporte com IA.
type ChatService struct {
	// agent é o client HTTP que chama o agente de suporte
	agent port.SupportAgentCaller

	// strategies é a lista de strategies registradas.
	// A ordem importa: a primeira strategy que aceita a intenção ganha.
	strategies []ChatStrategy

	// logger para logging estruturado
	logger *zap.Logger
}

// NewChatService cria o ChatService com as dependências injetadas.
func NewChatService(agent port.SupportAgentCaller, strategies []ChatStrategy, logger *zap.Logger) *ChatService {
	return &ChatService{
		agent:      agent,
		strategies: strategies,
		logger:     logger,
	}
}

// ProcessMessage é o ponto de entrada principal do chat de suporte.
func (s *ChatService) ProcessMessage(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	intent := s.detectIntent(req.Message)

	s.logger.Info("support chat message received",
		zap.String("user_id", userID),
		zap.String("intent", intent),
		zap.Int("history_length", len(req.History)),
	)

	chatCtx := &domain.ChatContext{
		UserID:         userID,
		Message:        req.Message,
		History:        req.History,
		DetectedIntent: intent,
	}

	for _, strategy := range s.strategies {
		if strategy.CanHandle(intent) {
			s.logger.Debug("delegating to strategy", zap.String("intent", intent))
			return strategy.Handle(ctx, chatCtx)
		}
	}

	return s.defaultHandle(ctx, chatCtx)
}

// defaultHandle envia a mensagem pro agente de IA. Trata o
// EscalationToken na resposta e degrada para a oferta de escalonamento
// quando o agente está indisponível — o usuário nunca fica sem saída.
func (s *ChatService) defaultHandle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	agentReq := &domain.SupportAgentRequest{
		Query:   chatCtx.Message,
		UserID:  chatCtx.UserID,
		Context: "support",
		History: chatCtx.History,
	}

	agentResp, err := s.agent.SendChat(ctx, agentReq)
	if err != nil {
		s.logger.Error("support agent call failed, offering escalation",
			zap.String("user_id", chatCtx.UserID),
			zap.Error(err),
		)
		// Agente fora do ar: oferece o atendente direto.
		return &domain.ChatResponse{
			Answer:            "Não consegui falar com o assistente agora. Quer abrir um chamado com nossa equipe?",
			EscalationOffered: true,
			Prefill:           BuildPrefill(chatCtx),
		}, nil
	}

	answer := agentResp.Answer
	if strings.Contains(answer, domain.EscalationToken) {
		// O token é um sinal interno: remove antes de devolver.
		answer = strings.TrimSpace(strings.ReplaceAll(answer, domain.EscalationToken, ""))
		if answer == "" {
			answer = "Vou te conectar com um atendente para resolver isso."
		}
		return &domain.ChatResponse{
			Answer:            answer,
			EscalationOffered: true,
			Prefill:           BuildPrefill(chatCtx),
		}, nil
	}

	return &domain.ChatResponse{Answer: answer}, nil
}

// ============================================================
// detectIntent — detecção simples de intenção por keywords
// ============================================================

// detectIntent analisa a mensagem do usuário e retorna o intent.
//
// Keywords mapeadas:
//   - "atendente", "humano", "falar com alguém", ...  → "human"
//   - qualquer outra coisa                            → "general"
//
// No futuro isso pode ser substituído por um classificador no agente.
func (s *ChatService) detectIntent(message string) string {
	lower := strings.ToLower(message)

	humanKeywords := []string{
		"atendente", "humano", "pessoa de verdade", "falar com alguém",
		"falar com alguem", "quero falar com", "suporte humano",
		"abrir chamado", "abrir um chamado",
	}
	for _, kw := range humanKeywords {
		if strings.Contains(lower, kw) {
			return "human"
		}
	}

	return "general"
}

// ============================================================
// BuildPrefill — monta o rascunho do chamado a partir do transcript
// ============================================================

// BuildPrefill deriva assunto e descrição do chamado da conversa.
// O assunto vem da primeira mensagem do usuário (truncada); a descrição
// é o transcript inteiro, para o atendente ter todo o contexto.
func BuildPrefill(chatCtx *domain.ChatContext) *domain.EscalationPrefill {
	subject := chatCtx.Message
	for _, entry := range chatCtx.History {
		if entry.Role == "user" {
			subject = entry.Text
			break
		}
	}
	if len(subject) > 80 {
		subject = subject[:77] + "..."
	}

	var b strings.Builder
	for _, entry := range chatCtx.History {
		if entry.Role == "user" {
			b.WriteString("Usuário: ")
		} else {
			b.WriteString("Assistente: ")
		}
		b.WriteString(entry.Text)
		b.WriteString("\n")
	}
	b.WriteString("Usuário: ")
	b.WriteString(chatCtx.Message)

	return &domain.EscalationPrefill{
		Subject: subject,
		Body:    b.String(),
	}
}
