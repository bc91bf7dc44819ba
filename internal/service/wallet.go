package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var walletTracer = otel.Tracer("service/wallet")

// WalletService handles deposits, withdrawals, transfers and the
// transaction history.
type WalletService struct {
	profiles port.ProfileStore
	ledger   port.LedgerStore
	rpc      port.WalletRPC
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewWalletService creates a new wallet service.
func NewWalletService(profiles port.ProfileStore, ledger port.LedgerStore, rpc port.WalletRPC, metrics *observability.Metrics, logger *zap.Logger) *WalletService {
	return &WalletService{
		profiles: profiles,
		ledger:   ledger,
		rpc:      rpc,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// Transfers
// ============================================================

// PreviewTransfer resolves the recipient by wallet handle and returns
// the confirmation data with the document already masked.
func (s *WalletService) PreviewTransfer(ctx context.Context, senderID string, req *domain.TransferRequest) (*domain.TransferPreview, error) {
	ctx, span := walletTracer.Start(ctx, "WalletService.PreviewTransfer")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", senderID))

	recipient, err := s.resolveRecipient(ctx, senderID, req)
	if err != nil {
		return nil, err
	}

	return &domain.TransferPreview{
		RecipientID:     recipient.UserID,
		RecipientName:   recipient.Name,
		RecipientHandle: recipient.WalletHandle,
		MaskedDocument:  maskDocument(recipient.Document),
		Amount:          req.Amount,
	}, nil
}

// Transfer moves balance to another wallet. The debit, credit and both
// ledger entries happen atomically in the remote procedure; only the
// receipt is assembled locally.
func (s *WalletService) Transfer(ctx context.Context, senderID string, req *domain.TransferRequest) (*domain.TransferReceipt, error) {
	ctx, span := walletTracer.Start(ctx, "WalletService.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", senderID),
		attribute.Float64("amount", req.Amount),
	)

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transfer", time.Since(start)) }()

	recipient, err := s.resolveRecipient(ctx, senderID, req)
	if err != nil {
		s.metrics.IncrTransfer("rejected")
		return nil, err
	}

	sender, err := s.profiles.GetProfile(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender.Balance < req.Amount {
		s.metrics.IncrTransfer("rejected")
		return nil, &domain.ErrInsufficientBalance{Available: sender.Balance, Required: req.Amount}
	}

	if err := s.rpc.HandleTransfer(ctx, senderID, recipient.UserID, req.Amount, req.Description); err != nil {
		s.metrics.IncrTransfer("error")
		return nil, err
	}

	now := time.Now()
	receipt := &domain.TransferReceipt{
		ID:            uuid.New().String(),
		EndToEndID:    newEndToEndID(),
		SenderID:      senderID,
		RecipientID:   recipient.UserID,
		RecipientName: recipient.Name,
		Amount:        req.Amount,
		Description:   req.Description,
		ExecutedAt:    now,
	}

	s.metrics.IncrTransfer("success")
	s.logger.Info("transfer completed",
		zap.String("sender_id", senderID),
		zap.String("recipient_id", recipient.UserID),
		zap.Float64("amount", req.Amount),
		zap.String("end_to_end_id", receipt.EndToEndID),
	)

	return receipt, nil
}

func (s *WalletService) resolveRecipient(ctx context.Context, senderID string, req *domain.TransferRequest) (*domain.PublicProfile, error) {
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if req.RecipientHandle == "" {
		return nil, &domain.ErrValidation{Field: "recipient_handle", Message: "required"}
	}

	recipient, err := s.rpc.LookupByWalletHandle(ctx, req.RecipientHandle)
	if err != nil {
		return nil, err
	}
	if recipient.UserID == senderID {
		return nil, &domain.ErrValidation{Field: "recipient_handle", Message: "Não é possível transferir para você mesmo"}
	}
	return recipient, nil
}

// ============================================================
// Deposits and withdrawals
// ============================================================

func (s *WalletService) Deposit(ctx context.Context, userID string, req *domain.DepositRequest) (*domain.Profile, error) {
	ctx, span := walletTracer.Start(ctx, "WalletService.Deposit")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	if _, err := s.ledger.InsertEntry(ctx, &domain.Transaction{
		UserID:      userID,
		Amount:      req.Amount,
		Category:    domain.CategoryDeposit,
		Description: "Depósito na carteira",
	}); err != nil {
		return nil, err
	}

	return s.profiles.UpdateBalance(ctx, userID, req.Amount)
}

func (s *WalletService) Withdraw(ctx context.Context, userID string, req *domain.WithdrawRequest) (*domain.Profile, error) {
	ctx, span := walletTracer.Start(ctx, "WalletService.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Balance < req.Amount {
		return nil, &domain.ErrInsufficientBalance{Available: profile.Balance, Required: req.Amount}
	}

	if _, err := s.ledger.InsertEntry(ctx, &domain.Transaction{
		UserID:      userID,
		Amount:      -req.Amount,
		Category:    domain.CategoryWithdrawal,
		Description: "Saque da carteira",
	}); err != nil {
		return nil, err
	}

	return s.profiles.UpdateBalance(ctx, userID, -req.Amount)
}

// ListTransactions returns the caller's ledger history, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error) {
	ctx, span := walletTracer.Start(ctx, "WalletService.ListTransactions")
	defer span.End()

	return s.ledger.ListEntries(ctx, userID, page, pageSize)
}

// ============================================================
// Helpers
// ============================================================

// maskDocument hides a CPF, keeping only the middle digits visible
// (***.456.789-** for 12345678901). Anything that is not 11 digits is
// fully masked.
func maskDocument(document string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, document)

	if len(digits) != 11 {
		return "***.***.***-**"
	}
	return fmt.Sprintf("***.%s.%s-**", digits[3:6], digits[6:9])
}

// newEndToEndID builds a 32-char transfer identifier in the E-prefixed
// format receipts use.
func newEndToEndID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "E" + raw[:31]
}
