// Package handler — chat_handler.go implementa o handler da rota
// POST /v1/support/chat — a entrada do suporte com IA.
//
// Request:
//
//	Content-Type: application/json
//	Body: {"message": "Não consigo ver a senha do grupo", "history": [...]}
//
// Response (200 OK):
//
//	{"answer": "...", "escalation_offered": false}
//
// O handler é fino — só faz validação básica e delega pro ChatService.
// Toda a lógica (intent detection, strategy routing, tratamento do
// token de escalonamento) fica no service layer.
//
// NOTA: usamos POST (e não GET) porque proxies reversos (Railway,
// CloudFlare) removem o body de requisições GET.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/chat/domain"
	"github.com/boddenberg/streampool-bff-go/internal/chat/service"
	maindomain "github.com/boddenberg/streampool-bff-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// UserIDResolver extrai o usuário autenticado do request. Injetado pelo
// router principal para não acoplar este pacote ao middleware JWT.
type UserIDResolver func(r *http.Request) string

// ============================================================
// ChatHandler — POST /v1/support/chat
// ============================================================

// ChatHandler retorna o http.HandlerFunc da rota POST /v1/support/chat.
func ChatHandler(chatSvc *service.ChatService, resolveUserID UserIDResolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/support/chat")
		defer span.End()

		userID := resolveUserID(r)
		if userID == "" {
			userID = "anonymous"
		}
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"your message\"}")
			return
		}

		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		resp, err := chatSvc.ProcessMessage(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Helpers — funções utilitárias do chat handler
// ============================================================

// writeJSON serializa data como JSON e escreve na response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError escreve uma resposta de erro padronizada.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *maindomain.ErrExternalService:
		logger.Error("external service error", zap.String("service", e.Service), zap.Error(e.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+e.Service)
	case *maindomain.ErrNotFound:
		writeError(w, http.StatusNotFound, e.Error())
	case *maindomain.ErrValidation:
		writeError(w, http.StatusUnprocessableEntity, e.Error())
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
