// Package handler wires the HTTP surface: routing, middleware, and the
// translation between HTTP and the service layer.
package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/streampool-bff-go/internal/chat/handler"
	chatservice "github.com/boddenberg/streampool-bff-go/internal/chat/service"
	maindomain "github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups everything the router needs. All fields are optional:
// a nil service makes its routes answer 503, which keeps local setups
// with partial configuration bootable.
type Services struct {
	Auth       *service.AuthService
	Profile    *service.ProfileService
	Group      *service.GroupService
	Membership *service.MembershipService
	Wallet     *service.WalletService
	Search     *service.SearchService
	Support    *service.SupportService
	Review     *service.ReviewService
	Chat       *chatservice.ChatService
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Group, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 🔐 Autenticação
		// POST /v1/auth/register | login | refresh
		// =============================================
		if svcs.Auth != nil {
			r.Post("/auth/register", registerHandler(svcs.Auth, logger))
			r.Post("/auth/login", loginHandler(svcs.Auth, logger))
			r.Post("/auth/refresh", refreshHandler(svcs.Auth, logger))
		} else {
			unavailable := func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "authentication is not configured")
			}
			r.Post("/auth/register", unavailable)
			r.Post("/auth/login", unavailable)
			r.Post("/auth/refresh", unavailable)
		}

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			if svcs.Auth != nil {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/auth/logout", logoutHandler(svcs.Auth, logger))
			}

			// =============================================
			// 2. 👤 Perfil
			// GET|PUT /v1/profiles/me
			// =============================================
			r.Get("/profiles/me", getProfileHandler(svcs.Profile, logger))
			r.Put("/profiles/me", updateProfileHandler(svcs.Profile, logger))

			// =============================================
			// 3. 📺 Grupos
			// GET|POST /v1/groups, GET /v1/groups/{groupId}
			// =============================================
			r.Get("/groups", listGroupsHandler(svcs.Group, logger))
			r.Post("/groups", createGroupHandler(svcs.Group, logger))
			r.Get("/groups/{groupId}", getGroupHandler(svcs.Group, logger))

			// =============================================
			// 4. 🤝 Participação
			// POST /v1/groups/{groupId}/join | leave
			// =============================================
			r.Post("/groups/{groupId}/join", joinGroupHandler(svcs.Membership, logger))
			r.Post("/groups/{groupId}/leave", leaveGroupHandler(svcs.Membership, logger))

			// =============================================
			// 5. 💬 Chat do grupo
			// GET|POST /v1/groups/{groupId}/messages
			// =============================================
			r.Get("/groups/{groupId}/messages", listMessagesHandler(svcs.Group, logger))
			r.Post("/groups/{groupId}/messages", sendMessageHandler(svcs.Group, logger))

			// =============================================
			// 6. ⭐ Avaliações
			// GET|POST /v1/groups/{groupId}/reviews
			// =============================================
			r.Get("/groups/{groupId}/reviews", listReviewsHandler(svcs.Review, logger))
			r.Post("/groups/{groupId}/reviews", createReviewHandler(svcs.Review, logger))

			// =============================================
			// 7. 💰 Carteira
			// POST /v1/wallet/transfers (+ preview), deposit, withdraw
			// GET  /v1/wallet/transactions
			// =============================================
			r.Post("/wallet/transfers/preview", previewTransferHandler(svcs.Wallet, logger))
			r.Post("/wallet/transfers", transferHandler(svcs.Wallet, logger))
			r.Post("/wallet/deposit", depositHandler(svcs.Wallet, logger))
			r.Post("/wallet/withdraw", withdrawHandler(svcs.Wallet, logger))
			r.Get("/wallet/transactions", listTransactionsHandler(svcs.Wallet, logger))

			// =============================================
			// 8. 🔎 Busca com IA
			// GET /v1/search?q=
			// =============================================
			r.Get("/search", searchHandler(svcs.Search, logger))

			// =============================================
			// 9. 🆘 Suporte
			// POST /v1/support/chat + chamados
			// =============================================
			if svcs.Chat != nil {
				r.Post("/support/chat", chathandler.ChatHandler(svcs.Chat, func(req *http.Request) string {
					return UserIDFromContext(req.Context())
				}, logger))
			}
			r.Post("/support/tickets", createTicketHandler(svcs.Support, logger))
			r.Get("/support/tickets", listTicketsHandler(svcs.Support, logger))
			r.Get("/support/tickets/{ticketId}", getTicketHandler(svcs.Support, logger))
			r.Post("/support/tickets/{ticketId}/reply", replyTicketHandler(svcs.Support, logger))
			r.Post("/support/tickets/{ticketId}/close", closeTicketHandler(svcs.Support, logger))

			// =============================================
			// 10. 📊 Métricas do assistente
			// GET /v1/metrics/assistant
			// =============================================
			r.Get("/metrics/assistant", assistantMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Métricas & Health
// ============================================================

func healthzHandler(groupSvc *service.GroupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []maindomain.ServiceHealth{
			{Name: "streampool-bff", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if groupSvc != nil {
			start := time.Now()
			_, err := groupSvc.ListGroups(ctx, "", 1, 1)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, maindomain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, maindomain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAssistantSnapshot())
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
