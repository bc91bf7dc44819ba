package domain

// ============================================================
// Catalog content — movie/TV metadata and AI search types
// ============================================================

// MediaKind discriminates movies from TV shows explicitly, instead of
// inferring the kind from which of title/name is populated upstream.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// MediaItem is one catalog result, normalized across movies and shows.
type MediaItem struct {
	ID          int       `json:"id"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	PosterPath  string    `json:"poster_path,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	VoteAverage float64   `json:"vote_average"`
	GenreIDs    []int     `json:"genre_ids,omitempty"`
}

// Genre is one entry of the catalog's genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchIntent is the structured intent extracted from a free-text query.
type SearchIntent string

const (
	IntentTitle  SearchIntent = "title"
	IntentPerson SearchIntent = "person"
	IntentGenre  SearchIntent = "genre"
)

// Classification is the outcome of the AI intent classifier.
// Classified == false means the deterministic fallback path (plain
// title search) must run; the fallback is a first-class branch, not an
// error.
type Classification struct {
	Classified bool
	Intent     SearchIntent
	Value      string
}

// Classified builds a successful classification.
func Classified(intent SearchIntent, value string) Classification {
	return Classification{Classified: true, Intent: intent, Value: value}
}

// Fallback builds the degraded classification that routes to plain
// title search.
func Fallback() Classification {
	return Classification{Classified: false}
}

// SearchResponse is the search endpoint payload.
type SearchResponse struct {
	Intent   SearchIntent `json:"intent,omitempty"`
	Value    string       `json:"value,omitempty"`
	Fallback bool         `json:"fallback"`
	Results  []MediaItem  `json:"results"`
}
