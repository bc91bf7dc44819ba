package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 👤 Perfil
// ============================================================

func getProfileHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/me")
		defer span.End()

		userID := UserIDFromContext(ctx)
		profile, err := profileSvc.GetProfile(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func updateProfileHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profiles/me")
		defer span.End()

		var req domain.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		profile, err := profileSvc.UpdateProfile(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
