package domain

// ============================================================
// Generative-AI proxy — request/response contract
// ============================================================

// AI proxy request types. The proxy multiplexes text completions and
// image generation behind a single endpoint.
const (
	AIRequestText          = "text"
	AIRequestImageGenerate = "image-generate"
	AIRequestImageEdit     = "image-edit"
)

// AIRequest is the payload sent to the generative-AI proxy.
// ResponseSchema constrains text completions to a fixed JSON shape
// (used by the search classifier).
type AIRequest struct {
	RequestType    string         `json:"requestType"`
	Prompt         string         `json:"prompt"`
	System         string         `json:"system,omitempty"`
	ResponseSchema map[string]any `json:"responseSchema,omitempty"`
}

// AIResponse is the proxy's reply for text completions.
type AIResponse struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
}

// AssistantMetrics is the snapshot served by GET /v1/metrics/assistant.
type AssistantMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	FallbackRate        float64 `json:"fallback_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	EstimatedCostUsd    float64 `json:"estimated_cost_usd"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Period              string  `json:"period"`
}
