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
// LedgerStore implementation — transactions table via PostgREST
// ============================================================
//
// The ledger is append-only: this file exposes insert and select, and
// nothing else. Corrections are new offsetting entries.

func (c *Client) InsertEntry(ctx context.Context, entry *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertEntry")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", entry.UserID))

	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := entry.Status
	if status == "" {
		status = "completed"
	}

	row := map[string]any{
		"id":          id,
		"user_id":     entry.UserID,
		"amount":      entry.Amount,
		"category":    entry.Category,
		"description": entry.Description,
		"status":      status,
		"created_at":  time.Now().Format(time.RFC3339),
	}
	if len(entry.Metadata) > 0 {
		row["metadata"] = entry.Metadata
	}

	body, err := c.doPost(ctx, "transactions", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var results []domain.Transaction
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from transactions insert")
	}
	return &results[0], nil
}

func (c *Client) ListEntries(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEntries")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("transactions?user_id=eq.%s&order=created_at.desc&limit=%d&offset=%d",
		userID, pageSize, offset)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil {
		return []domain.Transaction{}, nil
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return rows, nil
}

// ListGroupEntries returns a user's ledger entries tied to one group,
// used for review eligibility.
func (c *Client) ListGroupEntries(ctx context.Context, userID, groupID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGroupEntries")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&metadata->>group_id=eq.%s&order=created_at.desc",
		userID, groupID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil {
		return []domain.Transaction{}, nil
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return rows, nil
}
