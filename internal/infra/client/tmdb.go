// Package client holds HTTP clients for the external services the BFF
// fronts: the movie/TV catalog, the generative-AI proxy and the push
// gateway.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/boddenberg/streampool-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// TMDBClient reads the movie/TV catalog (TMDB v3 API).
type TMDBClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewTMDBClient creates a new TMDBClient.
func NewTMDBClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *TMDBClient {
	return &TMDBClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
	}
}

// tmdbResult is the raw shape shared by movie and TV payloads. Movies
// carry title/release_date, shows carry name/first_air_date.
type tmdbResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

type tmdbPage struct {
	Results []tmdbResult `json:"results"`
}

func (r tmdbResult) toMediaItem(kind domain.MediaKind) domain.MediaItem {
	item := domain.MediaItem{
		ID:          r.ID,
		Kind:        kind,
		Title:       r.Title,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		ReleaseDate: r.ReleaseDate,
		VoteAverage: r.VoteAverage,
		GenreIDs:    r.GenreIDs,
	}
	if kind == domain.MediaKindTV {
		item.Title = r.Name
		item.ReleaseDate = r.FirstAirDate
	}
	return item
}

// get runs one resilient GET against the catalog API. The api_key and
// pt-BR language params are appended here so call sites pass only their
// own query params.
func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			if params == nil {
				params = url.Values{}
			}
			params.Set("api_key", c.apiKey)
			params.Set("language", "pt-BR")

			reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "tmdb", Err: err}
	}
	return nil
}

// SearchTitles searches movies and shows by title in a single multi
// search, dropping person results.
func (c *TMDBClient) SearchTitles(ctx context.Context, query string) ([]domain.MediaItem, error) {
	ctx, span := tracer.Start(ctx, "TMDBClient.SearchTitles")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	var page tmdbPage
	params := url.Values{"query": {query}}
	if err := c.get(ctx, "/search/multi", params, &page); err != nil {
		return nil, err
	}

	items := make([]domain.MediaItem, 0, len(page.Results))
	for _, r := range page.Results {
		switch r.MediaType {
		case "movie":
			items = append(items, r.toMediaItem(domain.MediaKindMovie))
		case "tv":
			items = append(items, r.toMediaItem(domain.MediaKindTV))
		}
	}
	return items, nil
}

// FindPerson resolves a person's name to their catalog ID, taking the
// top-ranked match.
func (c *TMDBClient) FindPerson(ctx context.Context, name string) (int, error) {
	ctx, span := tracer.Start(ctx, "TMDBClient.FindPerson")
	defer span.End()

	var page struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	params := url.Values{"query": {name}}
	if err := c.get(ctx, "/search/person", params, &page); err != nil {
		return 0, err
	}
	if len(page.Results) == 0 {
		return 0, &domain.ErrNotFound{Resource: "person", ID: name}
	}
	return page.Results[0].ID, nil
}

// PersonCredits lists the movies and shows a person is credited in.
func (c *TMDBClient) PersonCredits(ctx context.Context, personID int) ([]domain.MediaItem, error) {
	ctx, span := tracer.Start(ctx, "TMDBClient.PersonCredits")
	defer span.End()
	span.SetAttributes(attribute.Int("person.id", personID))

	var credits struct {
		Cast []tmdbResult `json:"cast"`
	}
	path := fmt.Sprintf("/person/%d/combined_credits", personID)
	if err := c.get(ctx, path, nil, &credits); err != nil {
		return nil, err
	}

	items := make([]domain.MediaItem, 0, len(credits.Cast))
	for _, r := range credits.Cast {
		switch r.MediaType {
		case "movie":
			items = append(items, r.toMediaItem(domain.MediaKindMovie))
		case "tv":
			items = append(items, r.toMediaItem(domain.MediaKindTV))
		}
	}
	return items, nil
}

// ListGenres merges the movie and TV genre lists, de-duplicated by ID.
func (c *TMDBClient) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	ctx, span := tracer.Start(ctx, "TMDBClient.ListGenres")
	defer span.End()

	var movieList, tvList struct {
		Genres []domain.Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &movieList); err != nil {
		return nil, err
	}
	if err := c.get(ctx, "/genre/tv/list", nil, &tvList); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(movieList.Genres))
	genres := make([]domain.Genre, 0, len(movieList.Genres)+len(tvList.Genres))
	for _, g := range movieList.Genres {
		seen[g.ID] = true
		genres = append(genres, g)
	}
	for _, g := range tvList.Genres {
		if !seen[g.ID] {
			genres = append(genres, g)
		}
	}
	return genres, nil
}

// DiscoverByGenre lists popular movies tagged with the genre.
func (c *TMDBClient) DiscoverByGenre(ctx context.Context, genreID int) ([]domain.MediaItem, error) {
	ctx, span := tracer.Start(ctx, "TMDBClient.DiscoverByGenre")
	defer span.End()
	span.SetAttributes(attribute.Int("genre.id", genreID))

	var page tmdbPage
	params := url.Values{
		"with_genres": {fmt.Sprintf("%d", genreID)},
		"sort_by":     {"popularity.desc"},
	}
	if err := c.get(ctx, "/discover/movie", params, &page); err != nil {
		return nil, err
	}

	items := make([]domain.MediaItem, 0, len(page.Results))
	for _, r := range page.Results {
		items = append(items, r.toMediaItem(domain.MediaKindMovie))
	}
	return items, nil
}
