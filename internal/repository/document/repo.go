// Package document persists document records as JSON and lists them
// per tenant through the document FT index.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// store is the consumer interface for document operations (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements document persistence for the ingestion pipeline and
// the management endpoints.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes the full document record.
func (r *Repo) Save(ctx context.Context, doc domain.Document) error {
	key := docKey(doc.TenantID, doc.ID)
	data, err := json.Marshal(toJSON(&doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a tenant's document by ID.
func (r *Repo) Get(ctx context.Context, tenantID, id string) (domain.Document, error) {
	key := docKey(tenantID, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// Delete removes a document record. Fragments are deleted separately by
// the fragment repository.
func (r *Repo) Delete(ctx context.Context, tenantID, id string) error {
	key := docKey(tenantID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns a page of the tenant's documents ordered by the index.
func (r *Repo) List(ctx context.Context, tenantID string, offset, limit int) ([]domain.Document, int, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchList(ctx, IndexName, tenantQuery(tenantID), offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("list documents for %s: %w", tenantID, err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	docs := make([]domain.Document, 0, len(result.Entries))
	for _, entry := range result.Entries {
		jsonStr := entry.Fields["$"]
		if jsonStr == "" {
			continue
		}
		doc, err := parseJSONGetResult([]byte(jsonStr))
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, result.Total, nil
}

// Count returns the tenant's document count.
func (r *Repo) Count(ctx context.Context, tenantID string) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, tenantQuery(tenantID))
	if err != nil {
		return 0, fmt.Errorf("count documents for %s: %w", tenantID, err)
	}
	return n, nil
}
