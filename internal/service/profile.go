package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profile")

// ProfileService reads and updates user profiles.
type ProfileService struct {
	store  port.ProfileStore
	logger *zap.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store port.ProfileStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// GetProfile fetches the caller's profile, creating an empty one on the
// first authenticated fetch. Registration normally creates the profile;
// the lazy path covers users provisioned out-of-band.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	s.logger.Info("profile missing, creating on first fetch", zap.String("user_id", userID))
	created, createErr := s.store.CreateProfile(ctx, &domain.Profile{
		UserID:  userID,
		Balance: 0,
	})
	if createErr != nil {
		return nil, fmt.Errorf("lazy-create profile: %w", createErr)
	}
	return created, nil
}

// UpdateProfile edits the mutable profile fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.UpdateProfile")
	defer span.End()

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}
	if req.PrivateProfile != nil {
		updates["private_profile"] = *req.PrivateProfile
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "Nenhum campo para atualizar"}
	}

	return s.store.UpdateProfile(ctx, userID, updates)
}
