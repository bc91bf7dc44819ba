package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// 🆘 Suporte — chamados
// ============================================================

func createTicketHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/support/tickets")
		defer span.End()

		var req domain.CreateTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		ticket, err := supportSvc.CreateTicket(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ticket)
	}
}

func listTicketsHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/support/tickets")
		defer span.End()

		userID := UserIDFromContext(ctx)
		tickets, err := supportSvc.ListTickets(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.SupportTicket]{
			Items: tickets,
			Page:  1, PageSize: len(tickets),
		})
	}
}

func getTicketHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/support/tickets/{ticketId}")
		defer span.End()

		ticketID := chi.URLParam(r, "ticketId")
		userID := UserIDFromContext(ctx)

		ticket, err := supportSvc.GetTicket(ctx, userID, ticketID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

func replyTicketHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/support/tickets/{ticketId}/reply")
		defer span.End()

		ticketID := chi.URLParam(r, "ticketId")

		var req domain.TicketReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		ticket, err := supportSvc.Reply(ctx, userID, ticketID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

func closeTicketHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/support/tickets/{ticketId}/close")
		defer span.End()

		ticketID := chi.URLParam(r, "ticketId")
		userID := UserIDFromContext(ctx)

		if err := supportSvc.CloseTicket(ctx, userID, ticketID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	}
}
