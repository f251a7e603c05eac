// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/refresolve/internal/secrets"
	"github.com/pdiddy/refresolve/pkg/types"
)

// envKeyReplacer maps "scoring.primary_gate" to REFRESOLVE_SCORING_PRIMARY_GATE.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// setDefaults registers every config key with its default so that config
// files and environment variables can override any of them.
func setDefaults() {
	sc := types.DefaultScoringConfig()
	viper.SetDefault("scoring.primary_gate", sc.PrimaryGate)
	viper.SetDefault("scoring.secondary_gate", sc.SecondaryGate)
	viper.SetDefault("scoring.exclusivity_threshold", sc.ExclusivityThreshold)
	viper.SetDefault("scoring.exclusivity_cap", sc.ExclusivityCap)
	viper.SetDefault("scoring.non_english_cap", sc.NonEnglishCap)
	viper.SetDefault("scoring.not_primary_cap", sc.NotPrimaryCap)

	sel := types.DefaultSelectionConfig()
	viper.SetDefault("selection.accept_score", sel.AcceptScore)
	viper.SetDefault("selection.finalize_score", sel.FinalizeScore)

	v := types.DefaultValidationConfig()
	viper.SetDefault("validation.timeout", v.Timeout)
	viper.SetDefault("validation.user_agent", v.UserAgent)
	viper.SetDefault("validation.max_redirects", v.MaxRedirects)
	viper.SetDefault("validation.max_body_bytes", v.MaxBodyBytes)
	viper.SetDefault("validation.concurrency", v.Concurrency)
	viper.SetDefault("validation.host_interval", v.HostInterval)
	viper.SetDefault("validation.match_threshold", v.MatchThreshold)
	viper.SetDefault("validation.redis_url", "")
	viper.SetDefault("validation.cache_ttl", v.CacheTTL)

	s := types.DefaultSearchConfig()
	viper.SetDefault("search.timeout", s.Timeout)
	viper.SetDefault("search.user_agent", s.UserAgent)
	viper.SetDefault("search.results_per_query", s.ResultsPerQuery)
	viper.SetDefault("search.backends", s.Backends)
	viper.SetDefault("search.concurrency", s.Concurrency)
	viper.SetDefault("search.email", "")

	r := types.DefaultResolveConfig()
	viper.SetDefault("resolve.top_n", r.TopN)
	viper.SetDefault("resolve.max_queries", r.MaxQueries)
	viper.SetDefault("resolve.budget", r.Budget)
	viper.SetDefault("resolve.costs.search", r.Costs.Search)
	viper.SetDefault("resolve.costs.llm", r.Costs.LLM)
	viper.SetDefault("resolve.costs.fetch", r.Costs.Fetch)
	viper.SetDefault("resolve.semantic_weight", r.SemanticWeight)
	viper.SetDefault("resolve.batch_version", r.BatchVersion)

	rc := types.DefaultRetryConfig()
	viper.SetDefault("retry.attempts", rc.Attempts)
	viper.SetDefault("retry.base_delay", rc.BaseDelay)

	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.max_tokens", 0)
}

func scoringConfig() types.ScoringConfig {
	return types.ScoringConfig{
		PrimaryGate:          viper.GetFloat64("scoring.primary_gate"),
		SecondaryGate:        viper.GetFloat64("scoring.secondary_gate"),
		ExclusivityThreshold: viper.GetInt("scoring.exclusivity_threshold"),
		ExclusivityCap:       viper.GetInt("scoring.exclusivity_cap"),
		NonEnglishCap:        viper.GetInt("scoring.non_english_cap"),
		NotPrimaryCap:        viper.GetInt("scoring.not_primary_cap"),
	}
}

func selectionConfig() types.SelectionConfig {
	return types.SelectionConfig{
		AcceptScore:   viper.GetInt("selection.accept_score"),
		FinalizeScore: viper.GetInt("selection.finalize_score"),
	}
}

func validationConfig() types.ValidationConfig {
	return types.ValidationConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("validation.timeout"),
			UserAgent: viper.GetString("validation.user_agent"),
		},
		MaxRedirects:   viper.GetInt("validation.max_redirects"),
		MaxBodyBytes:   viper.GetInt64("validation.max_body_bytes"),
		Concurrency:    viper.GetInt("validation.concurrency"),
		HostInterval:   viper.GetDuration("validation.host_interval"),
		MatchThreshold: viper.GetFloat64("validation.match_threshold"),
		RedisURL:       viper.GetString("validation.redis_url"),
		CacheTTL:       viper.GetDuration("validation.cache_ttl"),
	}
}

func searchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: viper.GetString("search.user_agent"),
		},
		APIKey:             loadedSecrets.Get(secrets.GoogleAPIKey, viper.GetString("search.api_key")),
		EngineID:           loadedSecrets.Get(secrets.GoogleEngineID, viper.GetString("search.engine_id")),
		ResultsPerQuery:    viper.GetInt("search.results_per_query"),
		Backends:           viper.GetStringSlice("search.backends"),
		Email:              loadedSecrets.Get(secrets.OpenAlexEmail, viper.GetString("search.email")),
		SemanticScholarKey: loadedSecrets.Get(secrets.SemanticScholarKey, viper.GetString("search.semantic_scholar_key")),
		Concurrency:        viper.GetInt("search.concurrency"),
	}
}

func resolveConfig() types.ResolveConfig {
	return types.ResolveConfig{
		TopN:       viper.GetInt("resolve.top_n"),
		MaxQueries: viper.GetInt("resolve.max_queries"),
		Budget:     viper.GetFloat64("resolve.budget"),
		Costs: types.Costs{
			Search: viper.GetFloat64("resolve.costs.search"),
			LLM:    viper.GetFloat64("resolve.costs.llm"),
			Fetch:  viper.GetFloat64("resolve.costs.fetch"),
		},
		SemanticWeight: viper.GetFloat64("resolve.semantic_weight"),
		BatchVersion:   viper.GetString("resolve.batch_version"),
	}
}

func retryConfig() types.RetryConfig {
	return types.RetryConfig{
		Attempts:  viper.GetInt("retry.attempts"),
		BaseDelay: viper.GetDuration("retry.base_delay"),
	}
}

func aiConfig() types.AIConfig {
	return types.AIConfig{
		Model:     viper.GetString("ai.model"),
		APIKey:    loadedSecrets.Get(secrets.AnthropicAPIKey, viper.GetString("ai.api_key")),
		MaxTokens: viper.GetInt("ai.max_tokens"),
	}
}
