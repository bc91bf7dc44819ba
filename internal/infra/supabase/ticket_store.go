package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// TicketStore implementation — support_tickets table via PostgREST
// ============================================================

func (c *Client) CreateTicket(ctx context.Context, ticket *domain.SupportTicket) (*domain.SupportTicket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTicket")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ticket.UserID))

	id := ticket.ID
	if id == "" {
		id = uuid.New().String()
	}
	messages, err := json.Marshal(ticket.Messages)
	if err != nil {
		return nil, fmt.Errorf("encode ticket messages: %w", err)
	}

	row := map[string]any{
		"id":       id,
		"user_id":  ticket.UserID,
		"subject":  ticket.Subject,
		"status":   domain.TicketStatusOpen,
		"messages": json.RawMessage(messages),
	}

	body, err := c.doPost(ctx, "support_tickets", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}

	var results []domain.SupportTicket
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from support_tickets insert")
	}
	return &results[0], nil
}

// GetTicket fetches one ticket scoped to its owner, so users cannot read
// each other's conversations.
func (c *Client) GetTicket(ctx context.Context, userID, ticketID string) (*domain.SupportTicket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTicket")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	path := fmt.Sprintf("support_tickets?id=eq.%s&user_id=eq.%s&limit=1", ticketID, userID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}

	var rows []domain.SupportTicket
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}
	return &rows[0], nil
}

func (c *Client) ListTickets(ctx context.Context, userID string) ([]domain.SupportTicket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTickets")
	defer span.End()

	path := fmt.Sprintf("support_tickets?user_id=eq.%s&order=updated_at.desc", userID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}
	if body == nil {
		return []domain.SupportTicket{}, nil
	}

	var rows []domain.SupportTicket
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return rows, nil
}

func (c *Client) AppendTicketMessage(ctx context.Context, ticketID string, msg domain.TicketMessage) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendTicketMessage")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	path := fmt.Sprintf("support_tickets?id=eq.%s&limit=1", ticketID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}
	if body == nil {
		return &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}

	var rows []domain.SupportTicket
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode ticket: %w", err)
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}

	messages := append(rows[0].Messages, msg)
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode ticket messages: %w", err)
	}

	err = c.doPatch(ctx, fmt.Sprintf("support_tickets?id=eq.%s", ticketID), map[string]any{
		"messages":   json.RawMessage(encoded),
		"updated_at": time.Now().Format(time.RFC3339),
	})
	if err == errNoRowsMatched {
		return &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}
	return nil
}

func (c *Client) UpdateTicketStatus(ctx context.Context, ticketID, status string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTicketStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticket.id", ticketID),
		attribute.String("ticket.status", status),
	)

	err := c.doPatch(ctx, fmt.Sprintf("support_tickets?id=eq.%s", ticketID), map[string]any{
		"status":     status,
		"updated_at": time.Now().Format(time.RFC3339),
	})
	if err == errNoRowsMatched {
		return &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/support_tickets", Err: err}
	}
	return nil
}
