package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chatinfra "github.com/boddenberg/streampool-bff-go/internal/chat/infra"
	chatservice "github.com/boddenberg/streampool-bff-go/internal/chat/service"
	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/handler"
	"github.com/boddenberg/streampool-bff-go/internal/infra/cache"
	"github.com/boddenberg/streampool-bff-go/internal/infra/client"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// TestIntegration_SearchFlow spins up mock external services and runs a
// classified search end to end through the router.
func TestIntegration_SearchFlow(t *testing.T) {
	// --- Mock metadata (TMDB-style) API ---
	tmdbServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/multi":
			fmt.Fprint(w, `{"results": [
				{"id": 1, "media_type": "tv", "name": "Stranger Things", "first_air_date": "2016-07-15", "vote_average": 8.6},
				{"id": 2, "media_type": "person", "name": "Someone"}
			]}`)
		default:
			fmt.Fprint(w, `{"results": []}`)
		}
	}))
	defer tmdbServer.Close()

	// --- Mock AI proxy ---
	aiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := domain.AIResponse{
			Text:       `{"intent": "title", "value": "stranger things"}`,
			TokensUsed: 120,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer aiServer.Close()

	// --- Build router ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	searchSvc := service.NewSearchService(
		client.NewTMDBClient(httpClient, tmdbServer.URL, "test-key", cb, cfg),
		client.NewAssistantClient(httpClient, aiServer.URL, cb, cfg),
		cache.New[[]domain.Genre](5*time.Minute),
		metrics,
		logger,
	)

	router := handler.NewRouter(handler.Services{Search: searchSvc}, metrics, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=aquela+serie+dos+anos+80", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fallback {
		t.Error("expected classified response, got fallback")
	}
	if resp.Intent != domain.IntentTitle {
		t.Errorf("expected intent title, got %s", resp.Intent)
	}
	// The person hit from /search/multi must be filtered out.
	if len(resp.Results) != 1 || resp.Results[0].Title != "Stranger Things" {
		t.Errorf("expected only the tv result, got %v", resp.Results)
	}
}

// TestIntegration_SearchFallbackWhenAIDown verifies the degraded path:
// the AI proxy is unreachable and the search still answers.
func TestIntegration_SearchFallbackWhenAIDown(t *testing.T) {
	tmdbServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [{"id": 1, "media_type": "movie", "title": "Matrix", "release_date": "1999-03-31"}]}`)
	}))
	defer tmdbServer.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test-fallback")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 2 * time.Second}

	searchSvc := service.NewSearchService(
		client.NewTMDBClient(httpClient, tmdbServer.URL, "test-key", cb, cfg),
		// Points at a closed port: every call fails fast.
		client.NewAssistantClient(httpClient, "http://127.0.0.1:1", cb, cfg),
		cache.New[[]domain.Genre](5*time.Minute),
		metrics,
		logger,
	)

	router := handler.NewRouter(handler.Services{Search: searchSvc}, metrics, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=matrix", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Fallback {
		t.Error("expected fallback response when the AI proxy is down")
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Matrix" {
		t.Errorf("expected the raw-query title search results, got %v", resp.Results)
	}
}

// TestIntegration_SupportChatEscalation runs the support chat through the
// router with an agent that emits the internal escalation token.
func TestIntegration_SupportChatEscalation(t *testing.T) {
	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer": "Entendo o problema. [[FALAR_COM_ATENDENTE]]", "tokens_used": 80}`)
	}))
	defer agentServer.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test-chat")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	agent := chatinfra.NewSupportAgentClient(httpClient, agentServer.URL, cb, cfg)
	chatSvc := chatservice.NewChatService(agent, []chatservice.ChatStrategy{
		chatservice.NewHumanRequestStrategy(logger),
	}, logger)

	router := handler.NewRouter(handler.Services{Chat: chatSvc}, metrics, logger)

	body := bytes.NewBufferString(`{"message": "minha cobrança veio duplicada"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/support/chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer            string `json:"answer"`
		EscalationOffered bool   `json:"escalation_offered"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.EscalationOffered {
		t.Error("expected escalation offered")
	}
	if resp.Answer == "" || bytes.Contains([]byte(resp.Answer), []byte("[[")) {
		t.Errorf("token must be stripped from the answer, got '%s'", resp.Answer)
	}
}
