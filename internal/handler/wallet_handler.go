package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 💰 Carteira
// ============================================================

func previewTransferHandler(walletSvc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wallet/transfers/preview")
		defer span.End()

		var req domain.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		senderID := UserIDFromContext(ctx)
		preview, err := walletSvc.PreviewTransfer(ctx, senderID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}

func transferHandler(walletSvc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wallet/transfers")
		defer span.End()

		var req domain.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		senderID := UserIDFromContext(ctx)
		receipt, err := walletSvc.Transfer(ctx, senderID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, receipt)
	}
}

func depositHandler(walletSvc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wallet/deposit")
		defer span.End()

		var req domain.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		profile, err := walletSvc.Deposit(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func withdrawHandler(walletSvc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wallet/withdraw")
		defer span.End()

		var req domain.WithdrawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		profile, err := walletSvc.Withdraw(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func listTransactionsHandler(walletSvc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/transactions")
		defer span.End()

		page, pageSize := parsePagination(r)
		userID := UserIDFromContext(ctx)

		txs, err := walletSvc.ListTransactions(ctx, userID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Transaction]{
			Items:    txs,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
