package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatinfra "github.com/boddenberg/streampool-bff-go/internal/chat/infra"
	chatservice "github.com/boddenberg/streampool-bff-go/internal/chat/service"
	"github.com/boddenberg/streampool-bff-go/internal/config"
	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/handler"
	"github.com/boddenberg/streampool-bff-go/internal/infra/cache"
	"github.com/boddenberg/streampool-bff-go/internal/infra/client"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"
	"github.com/boddenberg/streampool-bff-go/internal/infra/supabase"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "streampool-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	genreCache := cache.New[[]domain.Genre](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var supabaseClient *supabase.Client
	if cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		supabaseClient = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Warn("Supabase not configured, data routes unavailable")
	}

	tmdbClient := client.NewTMDBClient(httpClient, cfg.MetadataAPIURL, cfg.MetadataAPIKey, cb, resilienceCfg)
	assistantClient := client.NewAssistantClient(httpClient, cfg.AIProxyURL, cb, resilienceCfg)
	pushClient := client.NewPushClient(httpClient, cfg.PushAPIURL, logger)

	// --- Chat de suporte ---
	supportAgent := chatinfra.NewSupportAgentClient(httpClient, cfg.SupportAgentURL, cb, resilienceCfg)
	chatStrategies := []chatservice.ChatStrategy{
		chatservice.NewHumanRequestStrategy(logger),
	}
	chatSvc := chatservice.NewChatService(supportAgent, chatStrategies, logger)

	// --- Services ---
	searchSvc := service.NewSearchService(tmdbClient, assistantClient, genreCache, metrics, logger)

	svcs := handler.Services{
		Search: searchSvc,
		Chat:   chatSvc,
	}
	if supabaseClient != nil {
		svcs.Auth = service.NewAuthService(supabaseClient, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
		svcs.Profile = service.NewProfileService(supabaseClient, logger)
		svcs.Group = service.NewGroupService(supabaseClient, supabaseClient, supabaseClient, logger)
		svcs.Membership = service.NewMembershipService(supabaseClient, supabaseClient, supabaseClient, pushClient, metrics, logger)
		svcs.Wallet = service.NewWalletService(supabaseClient, supabaseClient, supabaseClient, metrics, logger)
		svcs.Support = service.NewSupportService(supabaseClient, logger)
		svcs.Review = service.NewReviewService(supabaseClient, supabaseClient, supabaseClient, logger)
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
