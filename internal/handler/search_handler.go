package handler

import (
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 🔎 Busca com IA
// ============================================================

func searchHandler(searchSvc *service.SearchService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/search")
		defer span.End()

		query := r.URL.Query().Get("q")
		span.SetAttributes(attribute.String("search.query", query))

		resp, err := searchSvc.Search(ctx, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
