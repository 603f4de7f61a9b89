package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func TestGet_RoundTrip(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	stored := domain.RetrievalSettings{
		EmbeddingModel: "text-embedding-3-small",
		TopK:           12,
		MatchThreshold: 0.2,
		HydeEnabled:    true,
	}
	data, _ := json.Marshal([]domain.RetrievalSettings{stored})
	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "ragcore:settings:univ-a" {
			t.Errorf("unexpected key: %s", key)
		}
		return data, nil
	}

	got, err := repo.Get(context.Background(), "univ-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != stored {
		t.Errorf("got %+v, want %+v", got, stored)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New(&mockStore{})

	_, err := repo.Get(context.Background(), "univ-a")
	if !errors.Is(err, domain.ErrSettingsNotFound) {
		t.Errorf("expected ErrSettingsNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := &mockStore{}
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, errors.New("down")
	}
	repo := New(ms)

	_, err := repo.Get(context.Background(), "univ-a")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrSettingsNotFound) {
		t.Error("store failure must not read as not-found")
	}
}

func TestUpsert_Valid(t *testing.T) {
	ms := &mockStore{}
	var gotKey string
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		gotKey = key
		if path != "$" {
			t.Errorf("path = %q, want $", path)
		}
		var s domain.RetrievalSettings
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("stored data not valid JSON: %v", err)
		}
		return nil
	}
	repo := New(ms)

	err := repo.Upsert(context.Background(), "univ-a", domain.DefaultRetrievalSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "ragcore:settings:univ-a" {
		t.Errorf("unexpected key: %s", gotKey)
	}
}

func TestUpsert_RejectsInvalid(t *testing.T) {
	ms := &mockStore{}
	ms.jsonSetFn = func(_ context.Context, _ string, _ string, _ []byte) error {
		t.Fatal("invalid settings must not reach the store")
		return nil
	}
	repo := New(ms)

	bad := domain.DefaultRetrievalSettings()
	bad.TopK = 50

	err := repo.Upsert(context.Background(), "univ-a", bad)
	if !errors.Is(err, domain.ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
}
