package service

import (
	"context"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var groupTracer = otel.Tracer("service/group")

const (
	minGroupCapacity = 2
	maxGroupCapacity = 10
)

// GroupService manages shared-subscription groups and their chat.
type GroupService struct {
	groups  port.GroupStore
	reviews port.ReviewStore
	rpc     port.WalletRPC
	logger  *zap.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(groups port.GroupStore, reviews port.ReviewStore, rpc port.WalletRPC, logger *zap.Logger) *GroupService {
	return &GroupService{groups: groups, reviews: reviews, rpc: rpc, logger: logger}
}

// ============================================================
// Create / list / detail
// ============================================================

func (s *GroupService) CreateGroup(ctx context.Context, hostID string, req *domain.CreateGroupRequest) (*domain.Group, error) {
	ctx, span := groupTracer.Start(ctx, "GroupService.CreateGroup")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", hostID))

	if req.ServiceName == "" {
		return nil, &domain.ErrValidation{Field: "service_name", Message: "required"}
	}
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if req.Price <= 0 {
		return nil, &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}
	if req.MaxMembers < minGroupCapacity || req.MaxMembers > maxGroupCapacity {
		return nil, &domain.ErrValidation{Field: "max_members", Message: "O grupo deve ter entre 2 e 10 vagas"}
	}
	if req.Credential.Email == "" || req.Credential.Password == "" {
		return nil, &domain.ErrValidation{Field: "credential", Message: "Credenciais do serviço são obrigatórias"}
	}

	// The host occupies the first seat.
	group := &domain.Group{
		ID:          uuid.New().String(),
		HostID:      hostID,
		ServiceName: req.ServiceName,
		Name:        req.Name,
		Price:       req.Price,
		MaxMembers:  req.MaxMembers,
		Members:     1,
		Roster: []domain.GroupMember{
			{UserID: hostID, Role: domain.RoleHost, JoinedAt: time.Now()},
		},
		Rules:      req.Rules,
		Credential: &req.Credential,
		Status:     domain.GroupStatusPending,
	}

	created, err := s.groups.CreateGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		zap.String("group_id", created.ID),
		zap.String("host_id", hostID),
		zap.String("service_name", created.ServiceName),
	)
	return created, nil
}

func (s *GroupService) ListGroups(ctx context.Context, serviceName string, page, pageSize int) ([]domain.Group, error) {
	ctx, span := groupTracer.Start(ctx, "GroupService.ListGroups")
	defer span.End()

	groups, err := s.groups.ListGroups(ctx, serviceName, page, pageSize)
	if err != nil {
		return nil, err
	}

	// Listings never expose the shared login.
	for i := range groups {
		groups[i].Credential = nil
	}
	return groups, nil
}

// GetGroupDetail loads the group and its reviews concurrently. The
// shared login is only revealed to roster members.
func (s *GroupService) GetGroupDetail(ctx context.Context, userID, groupID string) (*domain.GroupDetail, error) {
	ctx, span := groupTracer.Start(ctx, "GroupService.GetGroupDetail")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID))

	var (
		group   *domain.Group
		reviews []domain.Review
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = s.groups.GetGroup(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = s.reviews.ListGroupReviews(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !group.HasMember(userID) {
		group.Credential = nil
	}

	return &domain.GroupDetail{Group: group, Reviews: reviews}, nil
}

// ============================================================
// Group chat
// ============================================================

func (s *GroupService) SendMessage(ctx context.Context, userID, groupID string, req *domain.SendMessageRequest) (*domain.ChatMessage, error) {
	ctx, span := groupTracer.Start(ctx, "GroupService.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID))

	if req.Text == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "required"}
	}

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, &domain.ErrForbidden{Action: "enviar mensagens neste grupo"}
	}

	return s.rpc.SendGroupMessage(ctx, groupID, userID, req.Text)
}

func (s *GroupService) ListMessages(ctx context.Context, userID, groupID string, page, pageSize int) ([]domain.ChatMessage, error) {
	ctx, span := groupTracer.Start(ctx, "GroupService.ListMessages")
	defer span.End()

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, &domain.ErrForbidden{Action: "ler mensagens deste grupo"}
	}

	return s.groups.ListMessages(ctx, groupID, page, pageSize)
}
