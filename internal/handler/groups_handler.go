package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 📺 Grupos
// ============================================================

func listGroupsHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/groups")
		defer span.End()

		serviceName := r.URL.Query().Get("service")
		page, pageSize := parsePagination(r)

		groups, err := groupSvc.ListGroups(ctx, serviceName, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Group]{
			Items:    groups,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

func createGroupHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/groups")
		defer span.End()

		var req domain.CreateGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		hostID := UserIDFromContext(ctx)
		group, err := groupSvc.CreateGroup(ctx, hostID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, group)
	}
}

func getGroupHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/groups/{groupId}")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")
		span.SetAttributes(attribute.String("group.id", groupID))

		userID := UserIDFromContext(ctx)
		detail, err := groupSvc.GetGroupDetail(ctx, userID, groupID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// ============================================================
// 🤝 Participação
// ============================================================

func joinGroupHandler(membershipSvc *service.MembershipService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/groups/{groupId}/join")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")
		span.SetAttributes(attribute.String("group.id", groupID))

		userID := UserIDFromContext(ctx)
		resp, err := membershipSvc.JoinGroup(ctx, userID, groupID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func leaveGroupHandler(membershipSvc *service.MembershipService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/groups/{groupId}/leave")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")
		userID := UserIDFromContext(ctx)
		if err := membershipSvc.LeaveGroup(ctx, userID, groupID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
	}
}

// ============================================================
// 💬 Chat do grupo
// ============================================================

func listMessagesHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/groups/{groupId}/messages")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")
		page, pageSize := parsePagination(r)

		userID := UserIDFromContext(ctx)
		messages, err := groupSvc.ListMessages(ctx, userID, groupID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.ChatMessage]{
			Items:    messages,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

func sendMessageHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/groups/{groupId}/messages")
		defer span.End()

		groupID := chi.URLParam(r, "groupId")

		var req domain.SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		msg, err := groupSvc.SendMessage(ctx, userID, groupID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}
