package settingscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

type fakeStore struct {
	settings domain.RetrievalSettings
	err      error
	calls    int
}

func (f *fakeStore) Get(_ context.Context, _ string) (domain.RetrievalSettings, error) {
	f.calls++
	return f.settings, f.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(store Store, clock *fakeClock) *Cache {
	return New(store, zap.NewNop(), WithClock(clock.now))
}

func TestGet_CachesWithinTTL(t *testing.T) {
	store := &fakeStore{settings: domain.RetrievalSettings{EmbeddingModel: "m", TopK: 5, MatchThreshold: 0.2}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(store, clock)

	ctx := context.Background()
	first := c.Get(ctx, "univ-a")
	clock.advance(DefaultTTL - time.Second)
	second := c.Get(ctx, "univ-a")

	if store.calls != 1 {
		t.Errorf("store consulted %d times within TTL, want 1", store.calls)
	}
	if first != second {
		t.Errorf("cached settings differ: %+v vs %+v", first, second)
	}
}

func TestGet_ReloadsAfterTTL(t *testing.T) {
	store := &fakeStore{settings: domain.RetrievalSettings{EmbeddingModel: "m", TopK: 5}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(store, clock)

	ctx := context.Background()
	c.Get(ctx, "univ-a")
	clock.advance(DefaultTTL + time.Second)
	store.settings.TopK = 12
	got := c.Get(ctx, "univ-a")

	if store.calls != 2 {
		t.Errorf("store consulted %d times across TTL expiry, want 2", store.calls)
	}
	if got.TopK != 12 {
		t.Errorf("stale settings served after expiry: %+v", got)
	}
}

func TestGet_MissingSettingsFallBackToDefaults(t *testing.T) {
	store := &fakeStore{err: domain.ErrSettingsNotFound}
	c := newTestCache(store, &fakeClock{t: time.Unix(1000, 0)})

	got := c.Get(context.Background(), "univ-b")
	if got != domain.DefaultRetrievalSettings() {
		t.Errorf("got %+v, want defaults", got)
	}
}

func TestGet_StoreErrorFallsBackToDefaultsAndCaches(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(store, clock)

	ctx := context.Background()
	got := c.Get(ctx, "univ-c")
	if got != domain.DefaultRetrievalSettings() {
		t.Errorf("got %+v, want defaults", got)
	}
	c.Get(ctx, "univ-c")
	if store.calls != 1 {
		t.Errorf("failed lookup not cached, store consulted %d times", store.calls)
	}
}

func TestGet_TenantsAreIndependent(t *testing.T) {
	store := &fakeStore{settings: domain.RetrievalSettings{EmbeddingModel: "m", TopK: 3}}
	c := newTestCache(store, &fakeClock{t: time.Unix(1000, 0)})

	ctx := context.Background()
	c.Get(ctx, "univ-a")
	c.Get(ctx, "univ-b")
	if store.calls != 2 {
		t.Errorf("store consulted %d times for two tenants, want 2", store.calls)
	}
}

func TestInvalidate(t *testing.T) {
	store := &fakeStore{settings: domain.RetrievalSettings{EmbeddingModel: "m", TopK: 3}}
	c := newTestCache(store, &fakeClock{t: time.Unix(1000, 0)})

	ctx := context.Background()
	c.Get(ctx, "univ-a")
	c.Invalidate("univ-a")
	c.Get(ctx, "univ-a")
	if store.calls != 2 {
		t.Errorf("store consulted %d times after invalidation, want 2", store.calls)
	}
}
