package domain

import "fmt"

// RetrievalSettings is the per-tenant retrieval configuration.
type RetrievalSettings struct {
	EmbeddingModel string  `json:"embedding_model"`
	TopK           int     `json:"top_k"`
	MatchThreshold float64 `json:"match_threshold"`
	// RerankEnabled is reserved; no reranker is wired yet.
	RerankEnabled bool `json:"rerank_enabled"`
	HydeEnabled   bool `json:"hyde_enabled"`
}

// DefaultRetrievalSettings are used when a tenant has no stored settings
// or the settings store is unavailable.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		EmbeddingModel: "text-embedding-3-small",
		TopK:           8,
		MatchThreshold: 0.15,
		RerankEnabled:  false,
		HydeEnabled:    false,
	}
}

// Validate checks per-field bounds: top_k in [1,20], match_threshold in [0,1].
func (s RetrievalSettings) Validate() error {
	if s.TopK < 1 || s.TopK > 20 {
		return fmt.Errorf("top_k must be between 1 and 20, got %d: %w", s.TopK, ErrInvalidSettings)
	}
	if s.MatchThreshold < 0 || s.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be between 0 and 1, got %g: %w", s.MatchThreshold, ErrInvalidSettings)
	}
	if s.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required: %w", ErrInvalidSettings)
	}
	return nil
}
