// Package embedding turns fragment texts into vectors in bounded batches.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// Provider limits.
const (
	// MaxInputChars is the hard truncation applied to every input.
	MaxInputChars = 8000
	// MaxBatchSize bounds simultaneous inputs per provider call.
	MaxBatchSize = 100
)

// Batcher embeds ordered fragment texts through a batch-capable provider.
// Provider failures are fatal to the enclosing ingestion: embeddings are
// not best-effort.
type Batcher struct {
	embedder domain.BatchEmbedder
	logger   *zap.Logger
}

// NewBatcher creates a batcher.
func NewBatcher(embedder domain.BatchEmbedder, logger *zap.Logger) *Batcher {
	return &Batcher{embedder: embedder, logger: logger}
}

// EmbedAll returns one vector per input text, in input order. Each text is
// truncated to MaxInputChars; calls are grouped into batches of at most
// MaxBatchSize.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	var tokens int

	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := make([]string, 0, end-start)
		for _, t := range texts[start:end] {
			batch = append(batch, Truncate(t))
		}

		res, err := b.embedder.BatchEmbed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(res.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors for %d inputs: %w",
				start, end, len(res.Embeddings), len(batch), domain.ErrEmbeddingProviderError)
		}

		vectors = append(vectors, res.Embeddings...)
		tokens += res.TotalTokens
	}

	b.logger.Debug("embedded fragments",
		zap.Int("count", len(texts)),
		zap.Int("total_tokens", tokens),
	)
	return vectors, nil
}

// Truncate bounds a single embedding input to MaxInputChars characters.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxInputChars {
		return text
	}
	return string(runes[:MaxInputChars])
}
