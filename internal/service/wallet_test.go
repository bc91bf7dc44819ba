package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockWalletRPC struct {
	recipient     *domain.PublicProfile
	lookupErr     error
	transferErr   error
	transferCalls int
}

func (m *mockWalletRPC) LookupByWalletHandle(_ context.Context, _ string) (*domain.PublicProfile, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.recipient, nil
}

func (m *mockWalletRPC) HandleTransfer(_ context.Context, _, _ string, _ float64, _ string) error {
	m.transferCalls++
	return m.transferErr
}

func (m *mockWalletRPC) SendGroupMessage(_ context.Context, _, _, _ string) (*domain.ChatMessage, error) {
	return &domain.ChatMessage{}, nil
}

func newWalletService(profiles *mockProfileStore, ledger *mockLedgerStore, rpc *mockWalletRPC) *service.WalletService {
	return service.NewWalletService(profiles, ledger, rpc, observability.NewMetrics(), zap.NewNop())
}

// --- Tests ---

func TestPreviewTransfer_MasksDocument(t *testing.T) {
	rpc := &mockWalletRPC{recipient: &domain.PublicProfile{
		UserID:       "user-2",
		Name:         "Bruno",
		WalletHandle: "@bruno",
		Document:     "123.456.789-01",
	}}
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{UserID: "user-1"}}, &mockLedgerStore{}, rpc)

	preview, err := svc.PreviewTransfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@bruno",
		Amount:          25,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if preview.MaskedDocument != "***.456.789-**" {
		t.Errorf("expected '***.456.789-**', got '%s'", preview.MaskedDocument)
	}
	if preview.RecipientName != "Bruno" {
		t.Errorf("expected recipient name 'Bruno', got '%s'", preview.RecipientName)
	}
}

func TestPreviewTransfer_MalformedDocumentFullyMasked(t *testing.T) {
	rpc := &mockWalletRPC{recipient: &domain.PublicProfile{
		UserID:       "user-2",
		WalletHandle: "@bruno",
		Document:     "1234",
	}}
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{UserID: "user-1"}}, &mockLedgerStore{}, rpc)

	preview, err := svc.PreviewTransfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@bruno",
		Amount:          25,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if preview.MaskedDocument != "***.***.***-**" {
		t.Errorf("expected full mask, got '%s'", preview.MaskedDocument)
	}
}

func TestTransfer_Success(t *testing.T) {
	rpc := &mockWalletRPC{recipient: &domain.PublicProfile{UserID: "user-2", Name: "Bruno", WalletHandle: "@bruno"}}
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-1", Balance: 100}}
	svc := newWalletService(profiles, &mockLedgerStore{}, rpc)

	receipt, err := svc.Transfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@bruno",
		Amount:          40,
		Description:     "Pizza",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if rpc.transferCalls != 1 {
		t.Fatalf("expected one transfer RPC call, got %d", rpc.transferCalls)
	}
	if receipt.RecipientID != "user-2" {
		t.Errorf("expected recipient user-2, got %s", receipt.RecipientID)
	}
	if receipt.Amount != 40 {
		t.Errorf("expected amount 40, got %.2f", receipt.Amount)
	}
	if !strings.HasPrefix(receipt.EndToEndID, "E") || len(receipt.EndToEndID) != 32 {
		t.Errorf("expected E-prefixed 32-char end-to-end id, got '%s'", receipt.EndToEndID)
	}
	if receipt.ExecutedAt.IsZero() {
		t.Error("expected executed_at to be set")
	}
}

func TestTransfer_SelfTransferBlocked(t *testing.T) {
	rpc := &mockWalletRPC{recipient: &domain.PublicProfile{UserID: "user-1", WalletHandle: "@me"}}
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{UserID: "user-1", Balance: 100}}, &mockLedgerStore{}, rpc)

	_, err := svc.Transfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@me",
		Amount:          10,
	})

	var validationErr *domain.ErrValidation
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if rpc.transferCalls != 0 {
		t.Error("self transfer must never reach the RPC")
	}
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	rpc := &mockWalletRPC{recipient: &domain.PublicProfile{UserID: "user-2", WalletHandle: "@bruno"}}
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{UserID: "user-1", Balance: 10}}, &mockLedgerStore{}, rpc)

	_, err := svc.Transfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@bruno",
		Amount:          50,
	})

	var insufficientErr *domain.ErrInsufficientBalance
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if rpc.transferCalls != 0 {
		t.Error("overdraft must never reach the RPC")
	}
}

func TestTransfer_InvalidAmount(t *testing.T) {
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{}}, &mockLedgerStore{}, &mockWalletRPC{})

	_, err := svc.Transfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@bruno",
		Amount:          -5,
	})

	var validationErr *domain.ErrValidation
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransfer_UnknownHandle(t *testing.T) {
	rpc := &mockWalletRPC{lookupErr: &domain.ErrNotFound{Resource: "wallet handle", ID: "@ghost"}}
	svc := newWalletService(&mockProfileStore{profile: &domain.Profile{Balance: 100}}, &mockLedgerStore{}, rpc)

	_, err := svc.Transfer(context.Background(), "user-1", &domain.TransferRequest{
		RecipientHandle: "@ghost",
		Amount:          10,
	})

	var notFoundErr *domain.ErrNotFound
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeposit_UpdatesBalanceAndLedger(t *testing.T) {
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-1", Balance: 10}}
	ledger := &mockLedgerStore{}
	svc := newWalletService(profiles, ledger, &mockWalletRPC{})

	profile, err := svc.Deposit(context.Background(), "user-1", &domain.DepositRequest{Amount: 50})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if profile.Balance != 60 {
		t.Errorf("expected balance 60, got %.2f", profile.Balance)
	}
	if len(ledger.entries) != 1 || ledger.entries[0].Category != domain.CategoryDeposit {
		t.Errorf("expected one deposit entry, got %v", ledger.entries)
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	profiles := &mockProfileStore{profile: &domain.Profile{UserID: "user-1", Balance: 10}}
	ledger := &mockLedgerStore{}
	svc := newWalletService(profiles, ledger, &mockWalletRPC{})

	_, err := svc.Withdraw(context.Background(), "user-1", &domain.WithdrawRequest{Amount: 50})

	var insufficientErr *domain.ErrInsufficientBalance
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Error("rejected withdrawal must not write ledger entries")
	}
}
