package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/observability"
	"github.com/boddenberg/streampool-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var searchTracer = otel.Tracer("service/search")

const genreCacheKey = "genres"

const classifierSystemPrompt = `Você é um classificador de buscas de um catálogo de filmes e séries.
Classifique a consulta do usuário em uma de três intenções:
- "title": o usuário procura um filme ou série pelo nome
- "person": o usuário procura por ator, atriz ou diretor
- "genre": o usuário procura por gênero (comédia, terror, etc.)
Responda APENAS com JSON no formato {"intent": "...", "value": "..."},
onde value é o termo limpo a buscar.`

// classifierSchema constrains the proxy's completion to the exact JSON
// shape the parser expects.
var classifierSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{"title", "person", "genre"},
		},
		"value": map[string]any{"type": "string"},
	},
	"required": []string{"intent", "value"},
}

// SearchService runs the AI-assisted catalog search. Classification is
// best-effort: any failure in the AI path degrades to a plain title
// search with the raw query, never to an error.
type SearchService struct {
	catalog    port.MetadataClient
	assistant  port.AssistantCaller
	genreCache port.Cache[[]domain.Genre]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(catalog port.MetadataClient, assistant port.AssistantCaller, genreCache port.Cache[[]domain.Genre], metrics *observability.Metrics, logger *zap.Logger) *SearchService {
	return &SearchService{
		catalog:    catalog,
		assistant:  assistant,
		genreCache: genreCache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Search classifies the free-text query and routes it to the matching
// catalog lookup.
func (s *SearchService) Search(ctx context.Context, query string) (*domain.SearchResponse, error) {
	ctx, span := searchTracer.Start(ctx, "SearchService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("search", time.Since(start)) }()

	if strings.TrimSpace(query) == "" {
		return nil, &domain.ErrValidation{Field: "q", Message: "required"}
	}

	classification := s.classify(ctx, query)
	if !classification.Classified {
		return s.fallbackSearch(ctx, query)
	}

	switch classification.Intent {
	case domain.IntentTitle:
		results, err := s.catalog.SearchTitles(ctx, classification.Value)
		if err != nil {
			return s.fallbackSearch(ctx, query)
		}
		return s.classifiedResponse(classification, results), nil

	case domain.IntentPerson:
		personID, err := s.catalog.FindPerson(ctx, classification.Value)
		if err != nil {
			return s.fallbackSearch(ctx, query)
		}
		results, err := s.catalog.PersonCredits(ctx, personID)
		if err != nil {
			return s.fallbackSearch(ctx, query)
		}
		return s.classifiedResponse(classification, results), nil

	case domain.IntentGenre:
		genreID, ok := s.matchGenre(ctx, classification.Value)
		if !ok {
			return s.fallbackSearch(ctx, query)
		}
		results, err := s.catalog.DiscoverByGenre(ctx, genreID)
		if err != nil {
			return s.fallbackSearch(ctx, query)
		}
		return s.classifiedResponse(classification, results), nil
	}

	return s.fallbackSearch(ctx, query)
}

// classify asks the AI proxy for a structured intent. Returns the
// fallback classification on any error or unparseable reply.
func (s *SearchService) classify(ctx context.Context, query string) domain.Classification {
	resp, err := s.assistant.Complete(ctx, &domain.AIRequest{
		RequestType:    domain.AIRequestText,
		Prompt:         query,
		System:         classifierSystemPrompt,
		ResponseSchema: classifierSchema,
	})
	if err != nil {
		s.logger.Warn("search classifier unavailable, using fallback", zap.Error(err))
		return domain.Fallback()
	}

	s.metrics.RecordTokens(resp.TokensUsed, 0)

	var parsed struct {
		Intent string `json:"intent"`
		Value  string `json:"value"`
	}
	if err := json.Unmarshal([]byte(resp.Text), &parsed); err != nil {
		s.logger.Warn("search classifier returned unparseable reply",
			zap.String("reply", resp.Text),
			zap.Error(err),
		)
		return domain.Fallback()
	}
	if parsed.Value == "" {
		return domain.Fallback()
	}

	switch domain.SearchIntent(parsed.Intent) {
	case domain.IntentTitle, domain.IntentPerson, domain.IntentGenre:
		return domain.Classified(domain.SearchIntent(parsed.Intent), parsed.Value)
	}
	return domain.Fallback()
}

// matchGenre resolves a genre name case-insensitively against the
// cached genre list.
func (s *SearchService) matchGenre(ctx context.Context, name string) (int, bool) {
	genres, ok := s.genreCache.Get(genreCacheKey)
	if ok {
		s.metrics.IncrCacheHit(genreCacheKey)
	} else {
		s.metrics.IncrCacheMiss(genreCacheKey)
		var err error
		genres, err = s.catalog.ListGenres(ctx)
		if err != nil {
			s.logger.Warn("genre list unavailable", zap.Error(err))
			return 0, false
		}
		s.genreCache.Set(genreCacheKey, genres)
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for _, g := range genres {
		if strings.ToLower(g.Name) == needle {
			return g.ID, true
		}
	}
	return 0, false
}

func (s *SearchService) classifiedResponse(c domain.Classification, results []domain.MediaItem) *domain.SearchResponse {
	s.metrics.IncrSearch("classified")
	return &domain.SearchResponse{
		Intent:   c.Intent,
		Value:    c.Value,
		Fallback: false,
		Results:  results,
	}
}

// fallbackSearch is the deterministic degraded path: a plain title
// search with the user's raw query.
func (s *SearchService) fallbackSearch(ctx context.Context, query string) (*domain.SearchResponse, error) {
	s.metrics.IncrSearch("fallback")

	results, err := s.catalog.SearchTitles(ctx, query)
	if err != nil {
		return nil, err
	}
	return &domain.SearchResponse{
		Fallback: true,
		Results:  results,
	}, nil
}
