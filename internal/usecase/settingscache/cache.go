// Package settingscache serves per-tenant retrieval settings from a
// short-lived in-process cache in front of the settings store.
package settingscache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// DefaultTTL is how long a tenant's settings stay cached before the store
// is consulted again.
const DefaultTTL = 60 * time.Second

// Store loads persisted retrieval settings for a tenant.
type Store interface {
	Get(ctx context.Context, tenantID string) (domain.RetrievalSettings, error)
}

type entry struct {
	settings domain.RetrievalSettings
	expires  time.Time
}

// Cache caches settings per tenant. A store miss resolves to defaults and
// is cached like any other answer; transient store errors also resolve to
// defaults so retrieval keeps working while the store is down.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// Option adjusts cache construction.
type Option func(*Cache)

// WithTTL overrides the default cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock substitutes the time source. Tests use this to expire entries
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a settings cache over the given store.
func New(store Store, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logger,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the tenant's retrieval settings, consulting the store at
// most once per TTL window.
func (c *Cache) Get(ctx context.Context, tenantID string) domain.RetrievalSettings {
	c.mu.RLock()
	e, ok := c.entries[tenantID]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return e.settings
	}

	settings, err := c.store.Get(ctx, tenantID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSettingsNotFound):
		settings = domain.DefaultRetrievalSettings()
	default:
		c.logger.Warn("settings load failed, using defaults",
			zap.String("tenant_id", tenantID), zap.Error(err))
		settings = domain.DefaultRetrievalSettings()
	}

	c.mu.Lock()
	c.entries[tenantID] = entry{settings: settings, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return settings
}

// Invalidate drops the tenant's cached entry. Called after a settings
// update so the next Get observes the new values immediately.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
}
