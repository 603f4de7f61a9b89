package chi

import (
	"context"
	"net/http"
	"testing"

	chiRouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
	"github.com/campusply/ragcore/internal/usecase/ingest"
	"github.com/campusply/ragcore/internal/usecase/retrieval"
)

type mockDocs struct {
	saveFn   func(ctx context.Context, doc domain.Document) error
	getFn    func(ctx context.Context, tenantID, id string) (domain.Document, error)
	deleteFn func(ctx context.Context, tenantID, id string) error
	listFn   func(ctx context.Context, tenantID string, offset, limit int) ([]domain.Document, int, error)
}

func (m *mockDocs) Save(ctx context.Context, doc domain.Document) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, doc)
	}
	return nil
}

func (m *mockDocs) Get(ctx context.Context, tenantID, id string) (domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, tenantID, id)
	}
	return domain.Document{}, domain.ErrDocumentNotFound
}

func (m *mockDocs) Delete(ctx context.Context, tenantID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID, id)
	}
	return nil
}

func (m *mockDocs) List(ctx context.Context, tenantID string, offset, limit int) ([]domain.Document, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tenantID, offset, limit)
	}
	return nil, 0, nil
}

type mockFrags struct {
	deleteByDocumentFn func(ctx context.Context, tenantID, documentID string) (int, error)
}

func (m *mockFrags) DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	if m.deleteByDocumentFn != nil {
		return m.deleteByDocumentFn(ctx, tenantID, documentID)
	}
	return 0, nil
}

type mockBlobs struct {
	saveFn   func(ctx context.Context, tenantID, documentID string, data []byte) (string, error)
	deleteFn func(ctx context.Context, tenantID, documentID string) error
}

func (m *mockBlobs) Save(ctx context.Context, tenantID, documentID string, data []byte) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, tenantID, documentID, data)
	}
	return "ragcore:blob:" + tenantID + ":" + documentID, nil
}

func (m *mockBlobs) Delete(ctx context.Context, tenantID, documentID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID, documentID)
	}
	return nil
}

type mockIngester struct {
	processFn func(ctx context.Context, tenantID, documentID string, opts ingest.Options) (ingest.Result, error)
}

func (m *mockIngester) Process(ctx context.Context, tenantID, documentID string, opts ingest.Options) (ingest.Result, error) {
	if m.processFn != nil {
		return m.processFn(ctx, tenantID, documentID, opts)
	}
	return ingest.Result{ChunkCount: 3, TextLength: 1200}, nil
}

type mockSearcher struct {
	searchFn func(ctx context.Context, tenantID, query string, opts retrieval.Options) (retrieval.Response, error)
}

func (m *mockSearcher) Search(ctx context.Context, tenantID, query string, opts retrieval.Options) (retrieval.Response, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, tenantID, query, opts)
	}
	return retrieval.Response{}, nil
}

type mockSettings struct {
	getFn    func(ctx context.Context, tenantID string) (domain.RetrievalSettings, error)
	upsertFn func(ctx context.Context, tenantID string, s domain.RetrievalSettings) error
}

func (m *mockSettings) Get(ctx context.Context, tenantID string) (domain.RetrievalSettings, error) {
	if m.getFn != nil {
		return m.getFn(ctx, tenantID)
	}
	return domain.RetrievalSettings{}, domain.ErrSettingsNotFound
}

func (m *mockSettings) Upsert(ctx context.Context, tenantID string, s domain.RetrievalSettings) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, tenantID, s)
	}
	return nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) Invalidate(tenantID string) {
	m.invalidated = append(m.invalidated, tenantID)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// testDeps bundles every fake the server touches.
type testDeps struct {
	docs        *mockDocs
	frags       *mockFrags
	blobs       *mockBlobs
	ingester    *mockIngester
	searcher    *mockSearcher
	settings    *mockSettings
	invalidator *mockInvalidator
	pinger      *mockPinger
}

func newTestServer(t *testing.T) (http.Handler, *Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		docs:        &mockDocs{},
		frags:       &mockFrags{},
		blobs:       &mockBlobs{},
		ingester:    &mockIngester{},
		searcher:    &mockSearcher{},
		settings:    &mockSettings{},
		invalidator: &mockInvalidator{},
		pinger:      &mockPinger{},
	}

	s := NewServer(
		deps.docs, deps.frags, deps.blobs,
		deps.ingester, deps.searcher,
		deps.settings, deps.invalidator,
		deps.pinger, zap.NewNop(),
	)
	s.newID = func() string { return "fixed-id" }

	r := chiRouter.NewRouter()
	s.Routes(r)
	return r, s, deps
}
