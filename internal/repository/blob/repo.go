// Package blob stores raw uploaded document bytes so file documents can
// be reprocessed without re-uploading.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// store is the consumer interface for blob operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type deleter interface {
	Del(ctx context.Context, key string) error
}

// Repo persists raw document bytes keyed by tenant and document.
type Repo struct {
	store   store
	deleter deleter
}

// New creates a blob repository. The full db.Store satisfies both roles.
func New(s interface {
	store
	deleter
}) *Repo {
	return &Repo{store: s, deleter: s}
}

// Save writes the raw bytes and returns the storage path the document
// record should carry.
func (r *Repo) Save(ctx context.Context, tenantID, documentID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty blob for document %s", documentID)
	}
	path := blobKey(tenantID, documentID)
	if err := r.store.Set(ctx, path, data); err != nil {
		return "", fmt.Errorf("store blob %s: %w", path, err)
	}
	return path, nil
}

// Fetch returns the raw bytes at path. Missing blobs surface as
// domain.ErrDocumentNotFound so reprocessing a purged upload fails cleanly.
func (r *Repo) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, err := r.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("blob %s: %w", path, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("fetch blob %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the stored bytes for a document. Deleting a missing blob
// is not an error.
func (r *Repo) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := r.deleter.Del(ctx, blobKey(tenantID, documentID)); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func blobKey(tenantID, documentID string) string {
	return domain.KeyPrefix + "blob:" + tenantID + ":" + documentID
}
