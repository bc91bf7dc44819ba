package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type mockAuthStore struct {
	profile       *domain.Profile
	cred          *domain.AuthCredential
	refreshToken  *domain.AuthRefreshToken
	credUpdates   []map[string]any
	storedTokens  int
	revokedTokens int
	revokedAll    bool
	registered    *domain.RegisterResponse
}

func (m *mockAuthStore) GetProfileByEmail(_ context.Context, _ string) (*domain.Profile, error) {
	return m.profile, nil
}

func (m *mockAuthStore) GetProfileByID(_ context.Context, _ string) (*domain.Profile, error) {
	return m.profile, nil
}

func (m *mockAuthStore) CreateUserWithProfile(_ context.Context, req *domain.RegisterRequest, _ string) (*domain.RegisterResponse, error) {
	m.registered = &domain.RegisterResponse{UserID: "user-new", WalletHandle: req.WalletHandle}
	return m.registered, nil
}

func (m *mockAuthStore) GetCredentials(_ context.Context, _ string) (*domain.AuthCredential, error) {
	return m.cred, nil
}

func (m *mockAuthStore) UpdateCredentials(_ context.Context, _ string, updates map[string]any) error {
	m.credUpdates = append(m.credUpdates, updates)
	return nil
}

func (m *mockAuthStore) StoreRefreshToken(_ context.Context, _, _ string, _ time.Time) error {
	m.storedTokens++
	return nil
}

func (m *mockAuthStore) GetRefreshToken(_ context.Context, _ string) (*domain.AuthRefreshToken, error) {
	return m.refreshToken, nil
}

func (m *mockAuthStore) RevokeRefreshToken(_ context.Context, _ string) error {
	m.revokedTokens++
	return nil
}

func (m *mockAuthStore) RevokeAllRefreshTokens(_ context.Context, _ string) error {
	m.revokedAll = true
	return nil
}

func newAuthService(store *mockAuthStore) *service.AuthService {
	return service.NewAuthService(store, "test-secret", 15*time.Minute, 7*24*time.Hour, zap.NewNop())
}

func hashOf(password string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h)
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	store := &mockAuthStore{}
	svc := newAuthService(store)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:        "ana@example.com",
		Password:     "senha-forte-123",
		Name:         "Ana",
		WalletHandle: "@ana",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.UserID != "user-new" {
		t.Errorf("expected user-new, got %s", resp.UserID)
	}
	if resp.WalletHandle != "@ana" {
		t.Errorf("expected @ana, got %s", resp.WalletHandle)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newAuthService(&mockAuthStore{})

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:        "ana@example.com",
		Password:     "curta",
		Name:         "Ana",
		WalletHandle: "@ana",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no mínimo") {
		t.Errorf("expected password length message, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := &mockAuthStore{profile: &domain.Profile{UserID: "user-1", Email: "ana@example.com"}}
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:        "ana@example.com",
		Password:     "senha-forte-123",
		Name:         "Ana",
		WalletHandle: "@ana",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.ErrConflict); !ok {
		t.Fatalf("expected ErrConflict, got %T", err)
	}
}

func TestLogin_SuccessIssuesTokenPair(t *testing.T) {
	store := &mockAuthStore{
		profile: &domain.Profile{UserID: "user-1", Name: "Ana", Email: "ana@example.com"},
		cred:    &domain.AuthCredential{UserID: "user-1", PasswordHash: hashOf("senha-forte-123")},
	}
	svc := newAuthService(store)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-forte-123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if store.storedTokens != 1 {
		t.Errorf("expected refresh token stored, got %d", store.storedTokens)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued access token must validate, got %v", err)
	}
	if claims.Sub != "user-1" {
		t.Errorf("expected sub user-1, got %s", claims.Sub)
	}
}

func TestLogin_WrongPasswordCountsAttempt(t *testing.T) {
	store := &mockAuthStore{
		profile: &domain.Profile{UserID: "user-1", Email: "ana@example.com"},
		cred:    &domain.AuthCredential{UserID: "user-1", PasswordHash: hashOf("senha-forte-123"), FailedAttempts: 1},
	}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "errada",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "3 tentativa(s)") {
		t.Errorf("expected remaining attempts in message, got %v", err)
	}
	if len(store.credUpdates) != 1 || store.credUpdates[0]["failed_attempts"] != 2 {
		t.Errorf("expected failed_attempts incremented to 2, got %v", store.credUpdates)
	}
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	store := &mockAuthStore{
		profile: &domain.Profile{UserID: "user-1", Email: "ana@example.com"},
		cred:    &domain.AuthCredential{UserID: "user-1", PasswordHash: hashOf("senha-forte-123"), FailedAttempts: 4},
	}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "errada",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "bloqueada") {
		t.Errorf("expected lock message, got %v", err)
	}
	if len(store.credUpdates) != 1 {
		t.Fatalf("expected one credentials update, got %d", len(store.credUpdates))
	}
	if _, ok := store.credUpdates[0]["locked_until"]; !ok {
		t.Error("expected locked_until set on the fifth failed attempt")
	}
}

func TestLogin_LockedAccountRejected(t *testing.T) {
	lockedUntil := time.Now().Add(10 * time.Minute)
	store := &mockAuthStore{
		profile: &domain.Profile{UserID: "user-1", Email: "ana@example.com"},
		cred: &domain.AuthCredential{
			UserID:       "user-1",
			PasswordHash: hashOf("senha-forte-123"),
			LockedUntil:  &lockedUntil,
		},
	}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-forte-123",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "temporariamente bloqueada") {
		t.Errorf("expected temporary lock message, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	store := &mockAuthStore{
		profile: &domain.Profile{UserID: "user-1", Name: "Ana"},
		refreshToken: &domain.AuthRefreshToken{
			ID:        "rt-1",
			UserID:    "user-1",
			TokenHash: "hash",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	svc := newAuthService(store)

	resp, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: "raw-token"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.revokedTokens != 1 {
		t.Errorf("expected the old token revoked, got %d revocations", store.revokedTokens)
	}
	if store.storedTokens != 1 {
		t.Errorf("expected a new token stored, got %d", store.storedTokens)
	}
	if resp.RefreshToken == "raw-token" {
		t.Error("rotation must issue a different refresh token")
	}
}

func TestRefresh_ExpiredTokenRevoked(t *testing.T) {
	store := &mockAuthStore{
		refreshToken: &domain.AuthRefreshToken{
			ID:        "rt-1",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(-time.Hour),
		},
	}
	svc := newAuthService(store)

	_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: "raw-token"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if store.revokedTokens != 1 {
		t.Error("expected the expired token revoked")
	}
	if store.storedTokens != 0 {
		t.Error("expired token must not mint a replacement")
	}
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	store := &mockAuthStore{}
	svc := newAuthService(store)

	if err := svc.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !store.revokedAll {
		t.Error("expected all refresh tokens revoked")
	}
}

func TestValidateAccessToken_RejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthStore{})

	if _, err := svc.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
