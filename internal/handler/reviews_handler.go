package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// ⭐ Avaliações
// ============================================================

func createReviewHandler(reviewSvc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/groups/{groupId}/reviews")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")

		var req domain.CreateReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		raterID := UserIDFromContext(ctx)
		review, err := reviewSvc.CreateReview(ctx, raterID, groupID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, review)
	}
}

func listReviewsHandler(reviewSvc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/groups/{groupId}/reviews")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")
		reviews, err := reviewSvc.ListGroupReviews(ctx, groupID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Review]{
			Items: reviews,
			Page:  1, PageSize: len(reviews),
		})
	}
}
