// chat_strategy_human.go — HumanRequestStrategy.
//
// Quando o usuário pede explicitamente um atendente ("quero falar com
// um humano"), não faz sentido gastar uma chamada ao agente de IA: a
// strategy escala direto, com o chamado pré-preenchido.
package service

import (
	"context"

	"github.com/boddenberg/streampool-bff-go/internal/chat/domain"

	"go.uber.org/zap"
)

// HumanRequestStrategy trata o intent "human".
type HumanRequestStrategy struct {
	logger *zap.Logger
}

// NewHumanRequestStrategy cria a strategy de pedido explícito de humano.
func NewHumanRequestStrategy(logger *zap.Logger) *HumanRequestStrategy {
	return &HumanRequestStrategy{logger: logger}
}

// CanHandle aceita somente o intent "human".
func (s *HumanRequestStrategy) CanHandle(intent string) bool {
	return intent == "human"
}

// Handle responde com a oferta de escalonamento imediata.
func (s *HumanRequestStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	_, span := chatTracer.Start(ctx, "HumanRequestStrategy.Handle")
	defer span.End()

	s.logger.Info("user requested human support",
		zap.String("user_id", chatCtx.UserID),
	)

	return &domain.ChatResponse{
		Answer:            "Claro! Posso abrir um chamado com nossa equipe de atendimento. Revise o resumo abaixo e confirme.",
		EscalationOffered: true,
		Prefill:           BuildPrefill(chatCtx),
	}, nil
}
