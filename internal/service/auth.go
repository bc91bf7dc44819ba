// Package service provides the business logic layer (use cases):
// authentication, profiles, groups and memberships, the wallet, the
// AI-assisted search and support tickets.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
	minPasswordLength = 8
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.AuthStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "E-mail inválido"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("Senha deve ter no mínimo %d caracteres", minPasswordLength)}
	}
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if req.WalletHandle == "" {
		return nil, &domain.ErrValidation{Field: "wallet_handle", Message: "required"}
	}

	existing, err := s.store.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing profile: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "E-mail já cadastrado"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	resp, err := s.store.CreateUserWithProfile(ctx, req, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", resp.UserID),
		zap.String("wallet_handle", resp.WalletHandle),
	)

	return resp, nil
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	profile, err := s.store.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	cred, err := s.store.GetCredentials(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	// Check if account is locked
	if cred.LockedUntil != nil && cred.LockedUntil.After(time.Now()) {
		remaining := time.Until(*cred.LockedUntil).Minutes()
		s.logger.Warn("login: account temporarily locked",
			zap.String("user_id", profile.UserID),
			zap.Float64("remaining_minutes", remaining),
		)
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("Conta temporariamente bloqueada. Tente novamente em %.0f minutos", remaining),
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		newAttempts := cred.FailedAttempts + 1
		updates := map[string]any{"failed_attempts": newAttempts}
		if newAttempts >= maxFailedAttempts {
			lockedUntil := time.Now().Add(lockDuration)
			updates["locked_until"] = lockedUntil.Format(time.RFC3339)
			s.logger.Warn("login: account locked after max attempts",
				zap.String("user_id", profile.UserID),
				zap.Int("attempts", newAttempts),
				zap.Duration("lock_duration", lockDuration),
			)
		} else {
			s.logger.Warn("login: failed password attempt",
				zap.String("user_id", profile.UserID),
				zap.Int("attempts", newAttempts),
				zap.Int("max", maxFailedAttempts),
			)
		}
		_ = s.store.UpdateCredentials(ctx, profile.UserID, updates)

		remaining := maxFailedAttempts - newAttempts
		if remaining <= 0 {
			return nil, &domain.ErrUnauthorized{
				Message: fmt.Sprintf("Conta bloqueada por %d minutos após %d tentativas", int(lockDuration.Minutes()), maxFailedAttempts),
			}
		}
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("Credenciais inválidas. %d tentativa(s) restante(s)", remaining),
		}
	}

	// Reset failed attempts on successful login
	_ = s.store.UpdateCredentials(ctx, profile.UserID, map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   time.Now().Format(time.RFC3339),
	})

	accessToken, err := s.signAccessToken(profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.store.StoreRefreshToken(ctx, profile.UserID, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", profile.UserID))

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		UserID:       profile.UserID,
		Name:         profile.Name,
	}, nil
}

// ============================================================
// Refresh — POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.store.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if stored == nil {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}

	if stored.ExpiresAt.Before(time.Now()) {
		s.logger.Warn("refresh: expired token used",
			zap.String("user_id", stored.UserID),
		)
		_ = s.store.RevokeRefreshToken(ctx, tokenHash)
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização expirado"}
	}

	// Revoke old token (rotation)
	_ = s.store.RevokeRefreshToken(ctx, tokenHash)

	userID := stored.UserID
	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	name := ""
	if profile != nil {
		name = profile.Name
	}

	accessToken, err := s.signAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	newRefreshToken, newRefreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.store.StoreRefreshToken(ctx, userID, newRefreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		UserID:       userID,
		Name:         name,
	}, nil
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.store.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// ============================================================
// ValidateToken — used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return claims, nil
}

// ============================================================
// Internal helpers
// ============================================================

func (s *AuthService) signAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  userID,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "streampool-bff",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	hashed = hashToken(raw)
	return raw, hashed, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
