package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/cache"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockCatalog struct {
	titles       []domain.MediaItem
	titlesErr    error
	titleQueries []string

	personID  int
	personErr error
	credits   []domain.MediaItem

	genres    []domain.Genre
	genresErr error

	discovered      []domain.MediaItem
	discoverErr     error
	discoveredGenre int
}

func (m *mockCatalog) SearchTitles(_ context.Context, query string) ([]domain.MediaItem, error) {
	m.titleQueries = append(m.titleQueries, query)
	return m.titles, m.titlesErr
}

func (m *mockCatalog) FindPerson(_ context.Context, _ string) (int, error) {
	return m.personID, m.personErr
}

func (m *mockCatalog) PersonCredits(_ context.Context, _ int) ([]domain.MediaItem, error) {
	return m.credits, nil
}

func (m *mockCatalog) ListGenres(_ context.Context) ([]domain.Genre, error) {
	return m.genres, m.genresErr
}

func (m *mockCatalog) DiscoverByGenre(_ context.Context, genreID int) ([]domain.MediaItem, error) {
	m.discoveredGenre = genreID
	return m.discovered, m.discoverErr
}

type mockAssistant struct {
	response *domain.AIResponse
	err      error
}

func (m *mockAssistant) Complete(_ context.Context, _ *domain.AIRequest) (*domain.AIResponse, error) {
	return m.response, m.err
}

func newSearchService(catalog *mockCatalog, assistant *mockAssistant) *service.SearchService {
	return service.NewSearchService(
		catalog,
		assistant,
		cache.New[[]domain.Genre](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

// --- Tests ---

func TestSearch_ClassifiedTitle(t *testing.T) {
	catalog := &mockCatalog{titles: []domain.MediaItem{{ID: 1, Title: "Stranger Things", Kind: domain.MediaKindTV}}}
	assistant := &mockAssistant{response: &domain.AIResponse{
		Text:       `{"intent": "title", "value": "stranger things"}`,
		TokensUsed: 42,
	}}

	svc := newSearchService(catalog, assistant)

	resp, err := svc.Search(context.Background(), "aquela série dos anos 80 com monstros")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Fallback {
		t.Error("expected classified response, got fallback")
	}
	if resp.Intent != domain.IntentTitle {
		t.Errorf("expected intent title, got %s", resp.Intent)
	}
	if len(catalog.titleQueries) != 1 || catalog.titleQueries[0] != "stranger things" {
		t.Errorf("expected title search with cleaned value, got %v", catalog.titleQueries)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestSearch_ClassifiedPerson(t *testing.T) {
	catalog := &mockCatalog{
		personID: 500,
		credits:  []domain.MediaItem{{ID: 9, Title: "Top Gun", Kind: domain.MediaKindMovie}},
	}
	assistant := &mockAssistant{response: &domain.AIResponse{
		Text: `{"intent": "person", "value": "tom cruise"}`,
	}}

	resp, err := newSearchService(catalog, assistant).Search(context.Background(), "filmes do tom cruise")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Fallback || resp.Intent != domain.IntentPerson {
		t.Errorf("expected classified person response, got fallback=%v intent=%s", resp.Fallback, resp.Intent)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Top Gun" {
		t.Errorf("expected person credits, got %v", resp.Results)
	}
}

func TestSearch_ClassifiedGenre(t *testing.T) {
	catalog := &mockCatalog{
		genres:     []domain.Genre{{ID: 35, Name: "Comédia"}, {ID: 27, Name: "Terror"}},
		discovered: []domain.MediaItem{{ID: 3, Title: "Invocação do Mal", Kind: domain.MediaKindMovie}},
	}
	assistant := &mockAssistant{response: &domain.AIResponse{
		Text: `{"intent": "genre", "value": "terror"}`,
	}}

	resp, err := newSearchService(catalog, assistant).Search(context.Background(), "quero um filme de terror")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Fallback {
		t.Error("expected classified response, got fallback")
	}
	if catalog.discoveredGenre != 27 {
		t.Errorf("expected discover with genre 27, got %d", catalog.discoveredGenre)
	}
}

func TestSearch_AssistantDownFallsBack(t *testing.T) {
	catalog := &mockCatalog{titles: []domain.MediaItem{{ID: 1, Title: "Matrix"}}}
	assistant := &mockAssistant{err: errors.New("proxy unavailable")}

	resp, err := newSearchService(catalog, assistant).Search(context.Background(), "matrix")
	if err != nil {
		t.Fatalf("fallback must not surface the classifier error, got %v", err)
	}
	if !resp.Fallback {
		t.Error("expected fallback response")
	}
	if len(catalog.titleQueries) != 1 || catalog.titleQueries[0] != "matrix" {
		t.Errorf("fallback must search with the raw query, got %v", catalog.titleQueries)
	}
}

func TestSearch_UnparseableReplyFallsBack(t *testing.T) {
	catalog := &mockCatalog{titles: []domain.MediaItem{}}
	assistant := &mockAssistant{response: &domain.AIResponse{Text: "desculpe, não entendi"}}

	resp, err := newSearchService(catalog, assistant).Search(context.Background(), "algo para assistir")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.Fallback {
		t.Error("expected fallback on unparseable classifier reply")
	}
}

func TestSearch_UnknownGenreFallsBack(t *testing.T) {
	catalog := &mockCatalog{
		genres: []domain.Genre{{ID: 35, Name: "Comédia"}},
		titles: []domain.MediaItem{},
	}
	assistant := &mockAssistant{response: &domain.AIResponse{
		Text: `{"intent": "genre", "value": "faroeste espacial"}`,
	}}

	resp, err := newSearchService(catalog, assistant).Search(context.Background(), "faroeste espacial")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.Fallback {
		t.Error("expected fallback when no genre matches")
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newSearchService(&mockCatalog{}, &mockAssistant{})

	_, err := svc.Search(context.Background(), "   ")

	var validationErr *domain.ErrValidation
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch_CatalogDownInFallbackReturnsError(t *testing.T) {
	catalog := &mockCatalog{titlesErr: &domain.ErrExternalService{Service: "tmdb", Err: errors.New("503")}}
	assistant := &mockAssistant{err: errors.New("proxy unavailable")}

	_, err := newSearchService(catalog, assistant).Search(context.Background(), "matrix")

	var externalErr *domain.ErrExternalService
	if !errors.As(err, &externalErr) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
