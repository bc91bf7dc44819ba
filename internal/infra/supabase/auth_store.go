package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// AuthStore implementation — auth CRUD via PostgREST
// ============================================================

// --- Profile lookup ---

// GetProfileByEmail returns (nil, nil) when no profile matches; absence
// is not an error for auth lookups.
func (c *Client) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileByEmail")
	defer span.End()

	path := fmt.Sprintf("profiles?email=eq.%s&limit=1", email)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	if body == nil {
		return nil, nil
	}

	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) GetProfileByID(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileByID")
	defer span.End()

	path := fmt.Sprintf("profiles?user_id=eq.%s&limit=1", userID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	if body == nil {
		return nil, nil
	}

	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// --- Registration ---

func (c *Client) CreateUserWithProfile(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.RegisterResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUserWithProfile")
	defer span.End()

	userID := uuid.New().String()

	// 1. Create profile with an empty wallet
	profileData := map[string]any{
		"id":            uuid.New().String(),
		"user_id":       userID,
		"email":         req.Email,
		"wallet_handle": req.WalletHandle,
		"name":          req.Name,
		"document":      req.Document,
		"balance":       0,
	}

	_, err := c.doPost(ctx, "profiles", profileData)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	// 2. Create auth credentials
	credData := map[string]any{
		"id":              uuid.New().String(),
		"user_id":         userID,
		"password_hash":   passwordHash,
		"failed_attempts": 0,
	}

	_, err = c.doPost(ctx, "auth_credentials", credData)
	if err != nil {
		return nil, fmt.Errorf("create auth credentials: %w", err)
	}

	return &domain.RegisterResponse{
		UserID:       userID,
		WalletHandle: req.WalletHandle,
	}, nil
}

// --- Credentials ---

func (c *Client) GetCredentials(ctx context.Context, userID string) (*domain.AuthCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s&limit=1", userID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth_credentials", Err: err}
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}

	var rows []domain.AuthCredential
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode auth_credentials: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return &rows[0], nil
}

func (c *Client) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s", userID)
	err := c.doPatch(ctx, path, updates)
	if err == errNoRowsMatched {
		return &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return err
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.Format(time.RFC3339),
		"revoked":    false,
	}

	_, err := c.doPost(ctx, "auth_refresh_tokens", data)
	return err
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", tokenHash)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	if body == nil {
		return nil, nil
	}

	var rows []domain.AuthRefreshToken
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode auth_refresh_tokens: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s", tokenHash)
	err := c.doPatch(ctx, path, map[string]any{"revoked": true})
	if err == errNoRowsMatched {
		return nil // already revoked or never stored
	}
	return err
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?user_id=eq.%s&revoked=eq.false", userID)
	err := c.doPatch(ctx, path, map[string]any{"revoked": true})
	if err == errNoRowsMatched {
		return nil
	}
	return err
}
