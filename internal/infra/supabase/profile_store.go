package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// ProfileStore implementation — profiles table via PostgREST
// ============================================================

func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("profiles?user_id=eq.%s&limit=1", userID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}

	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return &rows[0], nil
}

func (c *Client) CreateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	row := map[string]any{
		"id":            uuid.New().String(),
		"user_id":       profile.UserID,
		"wallet_handle": profile.WalletHandle,
		"name":          profile.Name,
		"avatar_url":    profile.AvatarURL,
		"document":      profile.Document,
		"balance":       profile.Balance,
	}

	body, err := c.doPost(ctx, "profiles", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}

	var results []domain.Profile
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from profiles insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, updates map[string]any) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()

	updates["updated_at"] = time.Now().Format(time.RFC3339)
	if err := c.doPatch(ctx, fmt.Sprintf("profiles?user_id=eq.%s", userID), updates); err != nil {
		if err == errNoRowsMatched {
			return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
		}
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}

	return c.GetProfile(ctx, userID)
}

// UpdateBalance applies a signed delta to the wallet. It re-fetches the
// profile after the patch to confirm the update persisted.
func (c *Client) UpdateBalance(ctx context.Context, userID string, delta float64) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBalance")
	defer span.End()

	profile, err := c.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	newBalance := profile.Balance + delta
	err = c.doPatch(ctx, fmt.Sprintf("profiles?user_id=eq.%s", userID), map[string]any{
		"balance":    newBalance,
		"updated_at": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}

	updated, err := c.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch after balance update: %w", err)
	}

	c.logger.Info("supabase: balance updated",
		zap.String("user_id", userID),
		zap.Float64("old_balance", profile.Balance),
		zap.Float64("new_balance", updated.Balance),
	)

	return updated, nil
}
