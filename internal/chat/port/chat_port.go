// Package port — chat_port.go define a interface (port) para o client
// que se comunica com o agente de suporte via POST /v1/chat.
//
// Seguindo a arquitetura hexagonal, o ChatService depende dessa interface
// e NÃO do client concreto. Isso facilita testes e troca de implementação.
package port

import (
	"context"

	chatdomain "github.com/boddenberg/streampool-bff-go/internal/chat/domain"
)

// SupportAgentCaller é a interface para enviar mensagens ao agente de
// suporte. O client concreto (SupportAgentClient) implementa essa
// interface.
type SupportAgentCaller interface {
	SendChat(ctx context.Context, req *chatdomain.SupportAgentRequest) (*chatdomain.SupportAgentResponse, error)
}
