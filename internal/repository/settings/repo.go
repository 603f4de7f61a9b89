// Package settings persists per-tenant retrieval settings as JSON.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// store is the consumer interface for settings operations (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements settings persistence.
type Repo struct {
	store store
}

// New creates a settings repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns a tenant's stored settings, or domain.ErrSettingsNotFound
// when none were ever written.
func (r *Repo) Get(ctx context.Context, tenantID string) (domain.RetrievalSettings, error) {
	key := settingsKey(tenantID)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.RetrievalSettings{}, domain.ErrSettingsNotFound
		}
		return domain.RetrievalSettings{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// Upsert validates and writes a tenant's settings.
func (r *Repo) Upsert(ctx context.Context, tenantID string, s domain.RetrievalSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	key := settingsKey(tenantID)
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// parseJSONGetResult handles both the bare object and the JSONPath
// array-of-one shape JSON.GET returns for "$".
func parseJSONGetResult(raw []byte) (domain.RetrievalSettings, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []domain.RetrievalSettings
		if err := json.Unmarshal(raw, &list); err != nil {
			return domain.RetrievalSettings{}, fmt.Errorf("unmarshal settings list: %w", err)
		}
		if len(list) == 0 {
			return domain.RetrievalSettings{}, domain.ErrSettingsNotFound
		}
		return list[0], nil
	}

	var s domain.RetrievalSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.RetrievalSettings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

func settingsKey(tenantID string) string {
	return domain.KeyPrefix + "settings:" + tenantID
}
