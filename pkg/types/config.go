package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refresolve/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig controls the shared retry wrapper.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first (default 3).
	Attempts int `json:"attempts" yaml:"attempts"`

	// BaseDelay is the first backoff delay; it doubles on each retry (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
}

// DefaultRetryConfig returns the retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, BaseDelay: time.Second}
}

// ScoringConfig holds the URL candidate scorer thresholds. The numbers are
// calibration defaults, not contracts.
type ScoringConfig struct {
	// PrimaryGate is the minimum title similarity for Primary eligibility (default 0.55).
	PrimaryGate float64 `json:"primary_gate" yaml:"primary_gate"`

	// SecondaryGate is the minimum title similarity for Secondary eligibility (default 0.45).
	SecondaryGate float64 `json:"secondary_gate" yaml:"secondary_gate"`

	// ExclusivityThreshold is the Primary score at which the Secondary score
	// is capped (default 70).
	ExclusivityThreshold int `json:"exclusivity_threshold" yaml:"exclusivity_threshold"`

	// ExclusivityCap is the Secondary ceiling applied above the threshold (default 30).
	ExclusivityCap int `json:"exclusivity_cap" yaml:"exclusivity_cap"`

	// NonEnglishCap caps the Primary score of non-English sources (default 70).
	NonEnglishCap int `json:"non_english_cap" yaml:"non_english_cap"`

	// NotPrimaryCap caps reviews, listings and tables of contents (default 55).
	NotPrimaryCap int `json:"not_primary_cap" yaml:"not_primary_cap"`
}

// DefaultScoringConfig returns the calibrated scorer defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PrimaryGate:          0.55,
		SecondaryGate:        0.45,
		ExclusivityThreshold: 70,
		ExclusivityCap:       30,
		NonEnglishCap:        70,
		NotPrimaryCap:        55,
	}
}

// ValidationConfig holds settings for deep content validation.
type ValidationConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRedirects is the redirect hop limit (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`

	// MaxBodyBytes is the size of the body prefix inspected (default 100 KB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// Concurrency is the number of simultaneous fetches per reference (default 6).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// HostInterval is the minimum spacing between requests to one host (default 500ms).
	HostInterval time.Duration `json:"host_interval" yaml:"host_interval"`

	// MatchThreshold is the content-match confidence that counts as a match (default 0.6).
	MatchThreshold float64 `json:"match_threshold" yaml:"match_threshold"`

	// RedisURL enables the cross-run validation cache when set.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`

	// CacheTTL is how long cached validation results stay valid (default 24h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultValidationConfig returns the validator defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; refresolve/0.1)",
		},
		MaxRedirects:   5,
		MaxBodyBytes:   100 * 1024,
		Concurrency:    6,
		HostInterval:   500 * time.Millisecond,
		MatchThreshold: 0.6,
		CacheTTL:       24 * time.Hour,
	}
}

// SelectionConfig holds the selection and finalization thresholds.
type SelectionConfig struct {
	// AcceptScore is the minimum validation score for Primary/Secondary (default 75).
	AcceptScore int `json:"accept_score" yaml:"accept_score"`

	// FinalizeScore must be exceeded by the Primary score to finalize (default 85).
	FinalizeScore int `json:"finalize_score" yaml:"finalize_score"`
}

// DefaultSelectionConfig returns the selection defaults.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{AcceptScore: 75, FinalizeScore: 85}
}

// AIConfig holds shared settings for stages that call a language-model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens bounds each completion (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// SearchConfig holds settings for the external search service.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey and EngineID authenticate the Custom Search JSON API.
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`

	// ResultsPerQuery is the number of results requested per query (max 10
	// for Custom Search).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// Backends lists the searchers to query: "google", "openalex",
	// "semantic_scholar". Empty means google alone.
	Backends []string `json:"backends,omitempty" yaml:"backends,omitempty"`

	// Email is sent to OpenAlex as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// SemanticScholarKey is the optional Semantic Scholar API key.
	SemanticScholarKey string `json:"semantic_scholar_key,omitempty" yaml:"semantic_scholar_key,omitempty"`

	// Concurrency bounds the simultaneous search requests (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// DefaultSearchConfig returns the search defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   20 * time.Second,
			UserAgent: "refresolve/0.1",
		},
		ResultsPerQuery: 10,
		Backends:        []string{"google"},
		Concurrency:     4,
	}
}

// Costs assigns budget units to each billable operation.
type Costs struct {
	Search float64 `json:"search" yaml:"search"`
	LLM    float64 `json:"llm" yaml:"llm"`
	Fetch  float64 `json:"fetch" yaml:"fetch"`
}

// ResolveConfig holds the per-reference pipeline settings.
type ResolveConfig struct {
	// TopN is the number of scored candidates sent to validation (default 20).
	TopN int `json:"top_n" yaml:"top_n"`

	// MaxQueries bounds the queries issued per reference (default 8).
	MaxQueries int `json:"max_queries" yaml:"max_queries"`

	// Budget is the cost ceiling for a batch; 0 disables it.
	Budget float64 `json:"budget" yaml:"budget"`

	Costs Costs `json:"costs" yaml:"costs"`

	// SemanticWeight is the share of an external ranking in the blended
	// scores (default 0.3).
	SemanticWeight float64 `json:"semantic_weight" yaml:"semantic_weight"`

	// BatchVersion is written as the BATCH_<version> flag on resolved records.
	BatchVersion string `json:"batch_version" yaml:"batch_version"`
}

// DefaultResolveConfig returns the pipeline defaults.
func DefaultResolveConfig() ResolveConfig {
	return ResolveConfig{
		TopN:           20,
		MaxQueries:     8,
		Costs:          Costs{Search: 0.005, LLM: 0.01, Fetch: 0},
		SemanticWeight: 0.3,
		BatchVersion:   "v1",
	}
}
