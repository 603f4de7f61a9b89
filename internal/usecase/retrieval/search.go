// Package retrieval implements tenant-scoped hybrid search: vector
// similarity over embedded fragments merged with lexical keyword matches,
// trimmed to relevant excerpts and summarized into a confidence signal.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campusply/ragcore/internal/domain"
	"github.com/campusply/ragcore/internal/metrics"
)

// VectorSearcher runs a tenant-scoped nearest-neighbour query. The
// implementation applies the similarity floor server-side when it can and
// falls back to an unfloored query otherwise; the engine filters
// client-side either way.
type VectorSearcher interface {
	Search(ctx context.Context, tenantID string, vector []float32, limit int, floor float64) ([]domain.SearchResult, error)
}

// SettingsSource yields the tenant's effective retrieval settings.
type SettingsSource interface {
	Get(ctx context.Context, tenantID string) domain.RetrievalSettings
}

// QueryRewriter produces the text to embed for a query.
type QueryRewriter interface {
	ForEmbedding(ctx context.Context, query, language string, hydeEnabled bool) string
}

// Options override tenant settings for a single query. Nil fields defer
// to the tenant's stored configuration.
type Options struct {
	TopK      *int
	Threshold *float64
	Language  string
}

// Response is the outcome of one hybrid search.
type Response struct {
	Results     []domain.SearchResult
	Confidence  domain.Confidence
	SearchQuery string
}

// Engine orchestrates one retrieval query end to end.
type Engine struct {
	settings SettingsSource
	rewriter QueryRewriter
	embedder domain.Embedder
	vectors  VectorSearcher
	keywords KeywordStore
	logger   *zap.Logger
}

// NewEngine wires a retrieval engine.
func NewEngine(
	settings SettingsSource,
	rewriter QueryRewriter,
	embedder domain.Embedder,
	vectors VectorSearcher,
	keywords KeywordStore,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		settings: settings,
		rewriter: rewriter,
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		logger:   logger,
	}
}

// Search runs the full pipeline: resolve settings, rewrite the query,
// embed it, run vector and keyword legs, merge under the reservation
// policy, excerpt oversized fragments, and assess confidence. An empty
// result set is a valid answer, not an error.
func (e *Engine) Search(ctx context.Context, tenantID, query string, opts Options) (Response, error) {
	start := time.Now()
	settings := e.settings.Get(ctx, tenantID)

	topK := settings.TopK
	if opts.TopK != nil {
		topK = *opts.TopK
	}
	threshold := settings.MatchThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	language := opts.Language
	if language == "" {
		language = "ko"
	}

	searchQuery := e.rewriter.ForEmbedding(ctx, query, language, settings.HydeEnabled)

	embedded, err := e.embedder.Embed(ctx, searchQuery)
	if err != nil {
		return Response{}, fmt.Errorf("embed query: %w", err)
	}

	// Both legs degrade to empty results on failure, so the group never
	// carries an error; it is only here to join the two goroutines.
	var vectorResults, keywordResults []domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorResults = e.vectorSearch(gctx, tenantID, embedded.Embedding, topK, threshold)
		return nil
	})
	g.Go(func() error {
		keywordResults = e.keywordSearch(gctx, searchQuery, tenantID, topK)
		return nil
	})
	_ = g.Wait()

	merged := mergeHybrid(vectorResults, keywordResults, topK)
	final := extractRelevantContent(merged, searchQuery)

	confidence := assessConfidence(final)
	metrics.SearchesTotal.WithLabelValues(string(confidence.Level)).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("hybrid search done",
		zap.String("tenant_id", tenantID),
		zap.Int("vector_results", len(vectorResults)),
		zap.Int("keyword_results", len(keywordResults)),
		zap.Int("final_results", len(final)),
		zap.String("confidence", string(confidence.Level)),
	)

	return Response{Results: final, Confidence: confidence, SearchQuery: searchQuery}, nil
}

// vectorSearch runs the semantic leg and enforces the similarity floor
// client-side regardless of what the store did. A store failure degrades
// to keyword-only results.
func (e *Engine) vectorSearch(ctx context.Context, tenantID string, vector []float32, topK int, threshold float64) []domain.SearchResult {
	rows, err := e.vectors.Search(ctx, tenantID, vector, topK, threshold)
	if err != nil {
		e.logger.Warn("vector search failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}

	results := rows[:0:0]
	for _, r := range rows {
		if r.Similarity >= threshold {
			results = append(results, r)
		}
	}
	if len(rows) > 0 && len(results) == 0 {
		e.logger.Debug("all vector results below threshold",
			zap.Float64("threshold", threshold),
			zap.Float64("top_similarity", rows[0].Similarity))
	}
	return results
}
