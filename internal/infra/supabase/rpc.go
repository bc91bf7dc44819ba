package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// WalletRPC implementation — PostgREST remote procedures
// ============================================================
//
// Balance moves between two wallets go through handle_transfer, a
// database function that debits, credits and writes both ledger rows in
// one transaction. The API never moves money between two users with
// separate writes.

func (c *Client) LookupByWalletHandle(ctx context.Context, handle string) (*domain.PublicProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LookupByWalletHandle")
	defer span.End()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRPC(ctx, "get_public_profile_by_wallet_id", map[string]any{
				"p_wallet_id": handle,
			})
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/rpc", Err: err}
	}
	if body == nil || string(body) == "[]" || string(body) == "null" {
		return nil, &domain.ErrNotFound{Resource: "wallet handle", ID: handle}
	}

	// The function returns SETOF; a single row comes back as a one-element
	// array.
	var rows []domain.PublicProfile
	if err := json.Unmarshal(body, &rows); err != nil {
		var single domain.PublicProfile
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("decode public profile: %w", err)
		}
		rows = []domain.PublicProfile{single}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "wallet handle", ID: handle}
	}
	return &rows[0], nil
}

// HandleTransfer executes the atomic balance move. Both ledger entries
// and both balance updates happen inside the database function.
func (c *Client) HandleTransfer(ctx context.Context, senderID, recipientID string, amount float64, description string) error {
	ctx, span := tracer.Start(ctx, "Supabase.HandleTransfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("sender.id", senderID),
		attribute.Float64("amount", amount),
	)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doRPC(ctx, "handle_transfer", map[string]any{
				"p_sender_id":    senderID,
				"p_recipient_id": recipientID,
				"p_amount":       amount,
				"p_description":  description,
			})
			return err
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/rpc", Err: err}
	}
	return nil
}

// SendGroupMessage appends one chat message through the send_group_message
// function, which also enforces membership server-side.
func (c *Client) SendGroupMessage(ctx context.Context, groupID, senderID, text string) (*domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SendGroupMessage")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID))

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRPC(ctx, "send_group_message", map[string]any{
				"p_group_id":  groupID,
				"p_sender_id": senderID,
				"p_text":      text,
			})
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/rpc", Err: err}
	}

	var msg domain.ChatMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		var rows []domain.ChatMessage
		if err2 := json.Unmarshal(body, &rows); err2 != nil || len(rows) == 0 {
			return nil, fmt.Errorf("decode group message: %w", err)
		}
		msg = rows[0]
	}
	return &msg, nil
}
