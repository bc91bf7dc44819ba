package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var membershipTracer = otel.Tracer("service/membership")

// MembershipService orchestrates joining and leaving groups. Joining
// spans three writes across tables with no shared transaction, so
// failures after the first write are compensated with offsetting
// ledger entries instead of rollbacks.
type MembershipService struct {
	groups   port.GroupStore
	profiles port.ProfileStore
	ledger   port.LedgerStore
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewMembershipService creates a new membership service.
func NewMembershipService(groups port.GroupStore, profiles port.ProfileStore, ledger port.LedgerStore, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		groups:   groups,
		profiles: profiles,
		ledger:   ledger,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// JoinGroup — POST /v1/groups/{id}/join
// ============================================================

// JoinGroup checks every precondition before the first write: a
// rejected join leaves no trace in any table.
func (s *MembershipService) JoinGroup(ctx context.Context, userID, groupID string) (*domain.JoinGroupResponse, error) {
	ctx, span := membershipTracer.Start(ctx, "MembershipService.JoinGroup")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("group.id", groupID),
	)

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("join_group", time.Since(start)) }()

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// ── Preconditions, in order ──
	if profile.Balance < group.Price {
		s.metrics.IncrJoin("rejected")
		return nil, &domain.ErrInsufficientBalance{Available: profile.Balance, Required: group.Price}
	}
	if group.HasMember(userID) {
		s.metrics.IncrJoin("rejected")
		return nil, &domain.ErrAlreadyMember{GroupID: groupID, UserID: userID}
	}
	if group.Members >= group.MaxMembers {
		s.metrics.IncrJoin("rejected")
		return nil, &domain.ErrGroupFull{GroupID: groupID, MaxMembers: group.MaxMembers}
	}

	// ── 1. Ledger entry ──
	entry, err := s.ledger.InsertEntry(ctx, &domain.Transaction{
		UserID:      userID,
		Amount:      -group.Price,
		Category:    domain.CategoryPayment,
		Description: fmt.Sprintf("Assinatura compartilhada - %s", group.Name),
		Metadata:    map[string]string{"group_id": groupID},
	})
	if err != nil {
		s.metrics.IncrJoin("error")
		return nil, err
	}

	// ── 2. Roster append ──
	member := domain.GroupMember{
		UserID:    userID,
		Role:      domain.RoleMember,
		AvatarURL: profile.AvatarURL,
		JoinedAt:  time.Now(),
	}
	if err := s.groups.AppendMember(ctx, groupID, group.Members, member); err != nil {
		s.compensateLedger(ctx, userID, groupID, group.Price, entry.ID)
		s.metrics.IncrJoin("compensated")
		return nil, err
	}

	// ── 3. Balance debit ──
	updated, err := s.profiles.UpdateBalance(ctx, userID, -group.Price)
	if err != nil {
		s.compensateRoster(ctx, userID, groupID)
		s.compensateLedger(ctx, userID, groupID, group.Price, entry.ID)
		s.metrics.IncrJoin("compensated")
		return nil, err
	}

	s.metrics.IncrJoin("success")
	s.logger.Info("group joined",
		zap.String("user_id", userID),
		zap.String("group_id", groupID),
		zap.Float64("price", group.Price),
		zap.Int("members", group.Members+1),
	)

	s.notifyHost(group, profile)

	joined, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		// The join already succeeded; fall back to a locally patched copy.
		joined = group
		joined.Roster = append(joined.Roster, member)
		joined.Members++
	}

	return &domain.JoinGroupResponse{
		Group:         joined,
		Balance:       updated.Balance,
		TransactionID: entry.ID,
	}, nil
}

// compensateLedger appends an offsetting cashback entry. The original
// entry stays: the ledger is append-only.
func (s *MembershipService) compensateLedger(ctx context.Context, userID, groupID string, amount float64, originalID string) {
	_, err := s.ledger.InsertEntry(ctx, &domain.Transaction{
		UserID:      userID,
		Amount:      amount,
		Category:    domain.CategoryCashback,
		Description: "Estorno - falha ao entrar no grupo",
		Metadata:    map[string]string{"group_id": groupID, "compensates": originalID},
	})
	if err != nil {
		s.logger.Error("failed to write compensating ledger entry",
			zap.String("user_id", userID),
			zap.String("group_id", groupID),
			zap.String("original_entry", originalID),
			zap.Error(err),
		)
	}
}

func (s *MembershipService) compensateRoster(ctx context.Context, userID, groupID string) {
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		s.logger.Error("failed to remove member during join compensation",
			zap.String("user_id", userID),
			zap.String("group_id", groupID),
			zap.Error(err),
		)
	}
}

// notifyHost fires a best-effort push to the host. Never blocks or
// fails the join.
func (s *MembershipService) notifyHost(group *domain.Group, joiner *domain.Profile) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		name := joiner.Name
		if name == "" {
			name = "Um novo membro"
		}
		if err := s.notifier.Notify(ctx, group.HostID,
			"Novo membro no seu grupo",
			fmt.Sprintf("%s entrou no grupo %s", name, group.Name),
		); err != nil {
			s.logger.Warn("host notification failed",
				zap.String("host_id", group.HostID),
				zap.String("group_id", group.ID),
				zap.Error(err),
			)
		}
	}()
}

// ============================================================
// LeaveGroup — POST /v1/groups/{id}/leave
// ============================================================

// LeaveGroup frees the seat. Paid periods are not refunded; the host
// cannot leave their own group.
func (s *MembershipService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	ctx, span := membershipTracer.Start(ctx, "MembershipService.LeaveGroup")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("group.id", groupID),
	)

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HostID == userID {
		return &domain.ErrValidation{Field: "group_id", Message: "O anfitrião não pode sair do próprio grupo"}
	}
	if !group.HasMember(userID) {
		return &domain.ErrNotFound{Resource: "group member", ID: userID}
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.logger.Info("group left",
		zap.String("user_id", userID),
		zap.String("group_id", groupID),
	)
	return nil
}
