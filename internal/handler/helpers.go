package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var insufficientBalance *domain.ErrInsufficientBalance
	var groupFull *domain.ErrGroupFull
	var alreadyMember *domain.ErrAlreadyMember
	var duplicate *domain.ErrDuplicate
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var accountLocked *domain.ErrAccountLocked
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientBalance):
		logger.Warn("insufficient balance",
			zap.Float64("available", insufficientBalance.Available),
			zap.Float64("required", insufficientBalance.Required),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &groupFull):
		logger.Debug("group full", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &alreadyMember):
		logger.Debug("already a member", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &duplicate):
		logger.Debug("duplicate resource", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &accountLocked):
		logger.Warn("account locked", zap.String("status", accountLocked.Status))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error",
			zap.String("service", external.Service),
			zap.Error(external.Err),
		)
		writeError(w, http.StatusBadGateway, "external service unavailable: "+external.Service)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
