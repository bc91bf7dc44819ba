package service

import (
	"context"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var supportTracer = otel.Tracer("service/support")

// SupportService manages the help-desk ticket lifecycle.
type SupportService struct {
	tickets port.TicketStore
	logger  *zap.Logger
}

// NewSupportService creates a new support service.
func NewSupportService(tickets port.TicketStore, logger *zap.Logger) *SupportService {
	return &SupportService{tickets: tickets, logger: logger}
}

func (s *SupportService) CreateTicket(ctx context.Context, userID string, req *domain.CreateTicketRequest) (*domain.SupportTicket, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.CreateTicket")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.Subject == "" {
		return nil, &domain.ErrValidation{Field: "subject", Message: "required"}
	}
	if req.Body == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "required"}
	}

	ticket, err := s.tickets.CreateTicket(ctx, &domain.SupportTicket{
		UserID:  userID,
		Subject: req.Subject,
		Status:  domain.TicketStatusOpen,
		Messages: []domain.TicketMessage{
			{SenderID: userID, Text: req.Body, CreatedAt: time.Now()},
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("user_id", userID),
	)
	return ticket, nil
}

func (s *SupportService) GetTicket(ctx context.Context, userID, ticketID string) (*domain.SupportTicket, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.GetTicket")
	defer span.End()

	return s.tickets.GetTicket(ctx, userID, ticketID)
}

func (s *SupportService) ListTickets(ctx context.Context, userID string) ([]domain.SupportTicket, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.ListTickets")
	defer span.End()

	return s.tickets.ListTickets(ctx, userID)
}

// Reply appends one message to the ticket. Closed tickets reject
// appends; the user must open a new ticket.
func (s *SupportService) Reply(ctx context.Context, userID, ticketID string, req *domain.TicketReplyRequest) (*domain.SupportTicket, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.Reply")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	if req.Text == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "required"}
	}

	ticket, err := s.tickets.GetTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, &domain.ErrValidation{Field: "status", Message: "Chamado encerrado. Abra um novo chamado para continuar"}
	}

	msg := domain.TicketMessage{SenderID: userID, Text: req.Text, CreatedAt: time.Now()}
	if err := s.tickets.AppendTicketMessage(ctx, ticketID, msg); err != nil {
		return nil, err
	}

	return s.tickets.GetTicket(ctx, userID, ticketID)
}

// CloseTicket is terminal: a closed ticket never reopens.
func (s *SupportService) CloseTicket(ctx context.Context, userID, ticketID string) error {
	ctx, span := supportTracer.Start(ctx, "SupportService.CloseTicket")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	// Ownership check before the status write.
	if _, err := s.tickets.GetTicket(ctx, userID, ticketID); err != nil {
		return err
	}

	if err := s.tickets.UpdateTicketStatus(ctx, ticketID, domain.TicketStatusClosed); err != nil {
		return err
	}

	s.logger.Info("ticket closed",
		zap.String("ticket_id", ticketID),
		zap.String("user_id", userID),
	)
	return nil
}
