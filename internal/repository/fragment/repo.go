// Package fragment stores embedded document fragments as flat hashes and
// serves both legs of hybrid retrieval over one FT index.
package fragment

import (
	"context"
	"fmt"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/db/filter"
	"github.com/campusply/ragcore/internal/domain"
)

// store is the consumer interface for fragment operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchRange(ctx context.Context, q *db.RangeQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements fragment persistence for ingestion and search for retrieval.
type Repo struct {
	store store
}

// New creates a fragment repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// BulkInsert writes fragments in a single pipelined round-trip.
func (r *Repo) BulkInsert(ctx context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(fragments))
	for i := range fragments {
		f := &fragments[i]
		items[i] = db.HashSetItem{
			Key:    fragKey(f.TenantID, f.DocumentID, f.ID),
			Fields: buildHashFields(f),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("bulk insert %d fragments: %w", len(fragments), err)
	}
	return nil
}

// DeleteByDocument removes every fragment of one document and returns
// how many were deleted.
func (r *Repo) DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	keys, err := r.store.Scan(ctx, fragPattern(tenantID, documentID))
	if err != nil {
		return 0, fmt.Errorf("scan fragments of %s: %w", documentID, err)
	}

	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return 0, fmt.Errorf("del %s: %w", key, err)
		}
	}
	return len(keys), nil
}

// Search performs a tenant-scoped vector search, dropping hits below floor.
// With a positive floor it tries a server-side range query first (radius is
// the cosine distance equivalent of the similarity floor) and falls back to
// plain KNN when the server rejects VECTOR_RANGE.
func (r *Repo) Search(
	ctx context.Context, tenantID string, vector []float32, limit int, floor float64,
) ([]domain.SearchResult, error) {
	filters := filter.MustAll(filter.MustMatch("tenant_id", tenantID))

	var sr *db.SearchResult
	var err error
	if floor > 0 {
		sr, err = r.store.SearchRange(ctx, &db.RangeQuery{
			IndexName:    IndexName,
			Filters:      filters,
			Vector:       vector,
			Radius:       1 - floor,
			Limit:        limit,
			ReturnFields: knnReturnFields,
		})
	}
	if floor <= 0 || err != nil {
		sr, err = r.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    IndexName,
			Filters:      filters,
			Vector:       vector,
			K:            limit,
			ReturnFields: knnReturnFields,
		})
		if err != nil {
			return nil, fmt.Errorf("search knn: %w", err)
		}
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if entry.Score < floor {
			continue
		}
		results = append(results, parseEntry(entry))
	}
	return results, nil
}

// SearchAll returns fragments containing every keyword.
func (r *Repo) SearchAll(
	ctx context.Context, tenantID string, keywords []string, limit int,
) ([]domain.SearchResult, error) {
	return r.searchText(ctx, tenantID, keywords, limit, false)
}

// SearchAny returns fragments containing at least one keyword.
func (r *Repo) SearchAny(
	ctx context.Context, tenantID string, keywords []string, limit int,
) ([]domain.SearchResult, error) {
	return r.searchText(ctx, tenantID, keywords, limit, true)
}

func (r *Repo) searchText(
	ctx context.Context, tenantID string, keywords []string, limit int, matchAny bool,
) ([]domain.SearchResult, error) {
	q := &db.TextQuery{
		IndexName:    IndexName,
		Field:        "content",
		Terms:        keywords,
		MatchAny:     matchAny,
		Filters:      filter.MustAll(filter.MustMatch("tenant_id", tenantID)),
		TopK:         limit,
		ReturnFields: searchReturnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		// Lexical scores are recomputed by the retrieval engine; the raw
		// BM25 score is discarded here.
		entry.Score = 0
		results = append(results, parseEntry(entry))
	}
	return results, nil
}
