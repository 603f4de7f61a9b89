package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campusply/ragcore/internal/domain"
	"github.com/campusply/ragcore/internal/usecase/ingest"
	"github.com/campusply/ragcore/internal/usecase/retrieval"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateDocument_File(t *testing.T) {
	h, _, deps := newTestServer(t)

	var savedDoc domain.Document
	deps.docs.saveFn = func(_ context.Context, doc domain.Document) error {
		savedDoc = doc
		return nil
	}
	var blobData []byte
	deps.blobs.saveFn = func(_ context.Context, tenantID, documentID string, data []byte) (string, error) {
		blobData = data
		return "ragcore:blob:" + tenantID + ":" + documentID, nil
	}

	content := base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 fake"))
	body := `{"name":"guide.pdf","source":"file","content_base64":"` + content + `"}`
	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if savedDoc.TenantID != "univ-a" || savedDoc.Source != domain.SourceFile {
		t.Errorf("unexpected saved document: %+v", savedDoc)
	}
	if savedDoc.Status != domain.StatusPending {
		t.Errorf("new document must be pending, got %s", savedDoc.Status)
	}
	if savedDoc.StoragePath != "ragcore:blob:univ-a:fixed-id" {
		t.Errorf("unexpected storage path: %s", savedDoc.StoragePath)
	}
	if string(blobData) != "%PDF-1.7 fake" {
		t.Errorf("blob not decoded: %q", blobData)
	}
}

func TestCreateDocument_URL(t *testing.T) {
	h, _, deps := newTestServer(t)

	var savedDoc domain.Document
	deps.docs.saveFn = func(_ context.Context, doc domain.Document) error {
		savedDoc = doc
		return nil
	}

	body := `{"name":"notice page","source":"url","source_url":"https://example.ac.kr/notice/1"}`
	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusCreated)
	}
	if savedDoc.Meta.SourceURL != "https://example.ac.kr/notice/1" {
		t.Errorf("unexpected source url: %s", savedDoc.Meta.SourceURL)
	}
}

func TestCreateDocument_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"source":"file","content_base64":"aGk="}`},
		{"unknown source", `{"name":"x","source":"ftp"}`},
		{"file without content", `{"name":"x","source":"file"}`},
		{"bad base64", `{"name":"x","source":"file","content_base64":"%%%"}`},
		{"qa without answer", `{"name":"x","source":"qa","question":"등록금?"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestProcessDocument_Success(t *testing.T) {
	h, _, deps := newTestServer(t)

	var gotOpts ingest.Options
	deps.ingester.processFn = func(_ context.Context, tenantID, documentID string, opts ingest.Options) (ingest.Result, error) {
		if tenantID != "univ-a" || documentID != "doc-1" {
			t.Errorf("unexpected args: %s %s", tenantID, documentID)
		}
		gotOpts = opts
		return ingest.Result{ChunkCount: 7, TextLength: 3500}, nil
	}

	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents/doc-1/process", `{"structured":true}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !gotOpts.Structured {
		t.Error("structured option not propagated")
	}

	var resp processResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ChunkCount != 7 || resp.Status != "completed" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProcessDocument_NotFound(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.ingester.processFn = func(context.Context, string, string, ingest.Options) (ingest.Result, error) {
		return ingest.Result{}, domain.ErrDocumentNotFound
	}

	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents/gone/process", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestProcessDocument_InvalidTransition(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.ingester.processFn = func(context.Context, string, string, ingest.Options) (ingest.Result, error) {
		return ingest.Result{}, &domain.InvalidTransitionError{
			From: domain.StatusProcessing, To: domain.StatusProcessing,
		}
	}

	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/documents/doc-1/process", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("got %d, want %d", rr.Code, http.StatusConflict)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeInvalidState {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeInvalidState)
	}
}

func TestCreateQA_IngestsInline(t *testing.T) {
	h, _, deps := newTestServer(t)

	var savedDoc domain.Document
	deps.docs.saveFn = func(_ context.Context, doc domain.Document) error {
		savedDoc = doc
		return nil
	}
	var processed string
	deps.ingester.processFn = func(_ context.Context, _, documentID string, _ ingest.Options) (ingest.Result, error) {
		processed = documentID
		return ingest.Result{ChunkCount: 1, TextLength: 40}, nil
	}

	body := `{"question":"수강신청은 언제 하나요?","answer":"포털에서 2월 중 진행합니다."}`
	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/qa", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if savedDoc.Source != domain.SourceQA || savedDoc.DocType != domain.DocTypeQA {
		t.Errorf("unexpected qa document: %+v", savedDoc)
	}
	if savedDoc.Meta.Question == "" || savedDoc.Meta.Answer == "" {
		t.Error("question/answer not stored on document meta")
	}
	if processed != savedDoc.ID {
		t.Errorf("processed %s, saved %s", processed, savedDoc.ID)
	}
}

func TestCreateQA_Validation(t *testing.T) {
	h, _, _ := newTestServer(t)

	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/qa", `{"question":"만 있음"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestQuery_Success(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.searcher.searchFn = func(_ context.Context, tenantID, query string, opts retrieval.Options) (retrieval.Response, error) {
		if tenantID != "univ-a" || query != "장학금 신청 방법" {
			t.Errorf("unexpected args: %s %q", tenantID, query)
		}
		if opts.TopK == nil || *opts.TopK != 5 {
			t.Errorf("top_k not propagated: %v", opts.TopK)
		}
		return retrieval.Response{
			Results: []domain.SearchResult{
				{ID: "frag-1", Content: "장학금은 3월에 신청합니다.", Similarity: 0.82},
			},
			Confidence:  domain.Confidence{Level: domain.ConfidenceHigh, Score: 0.82},
			SearchQuery: "장학금 신청 방법",
		}, nil
	}

	body := `{"query":"장학금 신청 방법","top_k":5,"language":"ko"}`
	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/query", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp queryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "frag-1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
	if resp.Confidence.Level != domain.ConfidenceHigh {
		t.Errorf("unexpected confidence: %+v", resp.Confidence)
	}
	if resp.Prompt == "" {
		t.Error("prompt must be rendered")
	}
}

func TestQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":""}`},
		{"top_k too large", `{"query":"q","top_k":50}`},
		{"negative threshold", `{"query":"q","threshold":-0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/query", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestQuery_EmbeddingProviderDown(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.searcher.searchFn = func(context.Context, string, string, retrieval.Options) (retrieval.Response, error) {
		return retrieval.Response{}, domain.ErrEmbeddingProviderError
	}

	rr := doJSON(t, h, "POST", "/v1/tenants/univ-a/query", `{"query":"q"}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestListDocuments(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.docs.listFn = func(_ context.Context, tenantID string, offset, limit int) ([]domain.Document, int, error) {
		if tenantID != "univ-a" || offset != 20 || limit != 10 {
			t.Errorf("unexpected args: %s %d %d", tenantID, offset, limit)
		}
		return []domain.Document{{ID: "doc-1", TenantID: tenantID, Status: domain.StatusCompleted}}, 31, nil
	}

	rr := doJSON(t, h, "GET", "/v1/tenants/univ-a/documents?offset=20&limit=10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp documentListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 31 || len(resp.Items) != 1 {
		t.Errorf("unexpected list response: %+v", resp)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	h, _, _ := newTestServer(t)

	rr := doJSON(t, h, "GET", "/v1/tenants/univ-a/documents/gone", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteDocument_PurgesFragmentsAndBlob(t *testing.T) {
	h, _, deps := newTestServer(t)

	var purged, blobDeleted bool
	deps.frags.deleteByDocumentFn = func(_ context.Context, tenantID, documentID string) (int, error) {
		purged = true
		return 4, nil
	}
	deps.blobs.deleteFn = func(_ context.Context, tenantID, documentID string) error {
		blobDeleted = true
		return nil
	}

	rr := doJSON(t, h, "DELETE", "/v1/tenants/univ-a/documents/doc-1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if !purged {
		t.Error("fragments not purged")
	}
	if !blobDeleted {
		t.Error("blob not deleted")
	}
}

func TestGetSettings_DefaultsWhenMissing(t *testing.T) {
	h, _, _ := newTestServer(t)

	rr := doJSON(t, h, "GET", "/v1/tenants/univ-a/settings", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var settings domain.RetrievalSettings
	if err := json.NewDecoder(rr.Body).Decode(&settings); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if settings != domain.DefaultRetrievalSettings() {
		t.Errorf("expected defaults, got %+v", settings)
	}
}

func TestPutSettings_InvalidatesCache(t *testing.T) {
	h, _, deps := newTestServer(t)

	var stored domain.RetrievalSettings
	deps.settings.upsertFn = func(_ context.Context, tenantID string, s domain.RetrievalSettings) error {
		stored = s
		return nil
	}

	body := `{"embedding_model":"text-embedding-3-small","top_k":12,"match_threshold":0.2,"hyde_enabled":true}`
	rr := doJSON(t, h, "PUT", "/v1/tenants/univ-a/settings", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if stored.TopK != 12 || !stored.HydeEnabled {
		t.Errorf("unexpected stored settings: %+v", stored)
	}
	if len(deps.invalidator.invalidated) != 1 || deps.invalidator.invalidated[0] != "univ-a" {
		t.Errorf("cache not invalidated: %v", deps.invalidator.invalidated)
	}
}

func TestPutSettings_Invalid(t *testing.T) {
	h, _, deps := newTestServer(t)

	deps.settings.upsertFn = func(context.Context, string, domain.RetrievalSettings) error {
		return domain.ErrInvalidSettings
	}

	rr := doJSON(t, h, "PUT", "/v1/tenants/univ-a/settings", `{"top_k":50}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHealthCheck(t *testing.T) {
	h, _, deps := newTestServer(t)

	rr := doJSON(t, h, "GET", "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Errorf("healthy: got %d, want %d", rr.Code, http.StatusOK)
	}

	deps.pinger.err = context.DeadlineExceeded
	rr = doJSON(t, h, "GET", "/healthz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
