// Package chi exposes the ingestion and retrieval services over HTTP.
package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
	"github.com/campusply/ragcore/internal/prompt"
	"github.com/campusply/ragcore/internal/usecase/ingest"
	"github.com/campusply/ragcore/internal/usecase/retrieval"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeDocumentNotFound     = "document_not_found"
	codeSettingsNotFound     = "settings_not_found"
	codeInvalidState         = "invalid_state"
	codeExtractEmpty         = "extract_empty"
	codeEmbeddingProviderErr = "embedding_provider_error"
	codeChatProviderErr      = "chat_provider_error"
	codeInternalError        = "internal_error"
	codeUnauthorized         = "unauthorized"
	codeServiceUnavailable   = "service_unavailable"
)

const (
	maxUploadBytes   = 50 << 20
	defaultListLimit = 20
	maxListLimit     = 100
)

// documentStore is the document persistence surface the handlers need.
type documentStore interface {
	Save(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, tenantID, id string) (domain.Document, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, offset, limit int) ([]domain.Document, int, error)
}

// fragmentStore purges a document's fragments on delete.
type fragmentStore interface {
	DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error)
}

// blobStore persists raw uploads for file documents.
type blobStore interface {
	Save(ctx context.Context, tenantID, documentID string, data []byte) (string, error)
	Delete(ctx context.Context, tenantID, documentID string) error
}

// ingester runs the ingestion pipeline for one document.
type ingester interface {
	Process(ctx context.Context, tenantID, documentID string, opts ingest.Options) (ingest.Result, error)
}

// searcher runs one hybrid retrieval query.
type searcher interface {
	Search(ctx context.Context, tenantID, query string, opts retrieval.Options) (retrieval.Response, error)
}

// settingsStore reads and writes per-tenant retrieval settings.
type settingsStore interface {
	Get(ctx context.Context, tenantID string) (domain.RetrievalSettings, error)
	Upsert(ctx context.Context, tenantID string, s domain.RetrievalSettings) error
}

// settingsInvalidator drops a tenant's cached settings after an update.
type settingsInvalidator interface {
	Invalidate(tenantID string)
}

// pinger checks store connectivity for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the tenant-scoped API.
type Server struct {
	documents   documentStore
	fragments   fragmentStore
	blobs       blobStore
	ingester    ingester
	searcher    searcher
	settings    settingsStore
	invalidator settingsInvalidator
	pinger      pinger
	logger      *zap.Logger

	now           func() time.Time
	newID         func() string
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	documents documentStore,
	fragments fragmentStore,
	blobs blobStore,
	ing ingester,
	search searcher,
	settings settingsStore,
	invalidator settingsInvalidator,
	ping pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:   documents,
		fragments:   fragments,
		blobs:       blobs,
		ingester:    ing,
		searcher:    search,
		settings:    settings,
		invalidator: invalidator,
		pinger:      ping,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrSettingsNotFound, http.StatusNotFound, codeSettingsNotFound),
		sentinelHandler(domain.ErrInvalidSettings, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidTransition, http.StatusConflict, codeInvalidState),
		sentinelHandler(domain.ErrUnsupportedSource, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrExtractEmpty, http.StatusUnprocessableEntity, codeExtractEmpty),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, codeChatProviderErr),
	}
	return s
}

// Routes mounts all endpoints on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1/tenants/{tenant}", func(r chi.Router) {
		r.Post("/documents", s.CreateDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/documents/{id}/process", s.ProcessDocument)
		r.Post("/qa", s.CreateQA)
		r.Post("/query", s.Query)
		r.Get("/settings", s.GetSettings)
		r.Put("/settings", s.PutSettings)
	})
}

// CreateDocument handles POST /v1/tenants/{tenant}/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	var req createDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, raw, err := documentFromCreate(tenantID, req, s.newID(), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	if doc.Source == domain.SourceFile {
		path, err := s.blobs.Save(r.Context(), tenantID, doc.ID, raw)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		doc.StoragePath = path
	}

	if err := s.documents.Save(r.Context(), doc); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentToResponse(doc))
}

// ProcessDocument handles POST /v1/tenants/{tenant}/documents/{id}/process.
func (s *Server) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	id := chi.URLParam(r, "id")

	var req processRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	res, err := s.ingester.Process(r.Context(), tenantID, id, ingest.Options{Structured: req.Structured})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		DocumentID: id,
		Status:     string(domain.StatusCompleted),
		ChunkCount: res.ChunkCount,
		TextLength: res.TextLength,
	})
}

// CreateQA handles POST /v1/tenants/{tenant}/qa. The document is created
// and ingested in one call; Q&A content needs no extraction so inline
// processing stays fast.
func (s *Server) CreateQA(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	var req createQARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "question and answer are required")
		return
	}

	name := req.Title
	if name == "" {
		name = req.Question
	}
	doc := domain.Document{
		ID:        s.newID(),
		TenantID:  tenantID,
		Name:      name,
		Source:    domain.SourceQA,
		Status:    domain.StatusPending,
		Language:  req.Language,
		DocType:   domain.DocTypeQA,
		Meta:      domain.DocumentMeta{Question: req.Question, Answer: req.Answer},
		CreatedAt: s.now(),
	}

	if err := s.documents.Save(r.Context(), doc); err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.ingester.Process(r.Context(), tenantID, doc.ID, ingest.Options{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, processResponse{
		DocumentID: doc.ID,
		Status:     string(domain.StatusCompleted),
		ChunkCount: res.ChunkCount,
		TextLength: res.TextLength,
	})
}

// GetDocument handles GET /v1/tenants/{tenant}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	id := chi.URLParam(r, "id")

	doc, err := s.documents.Get(r.Context(), tenantID, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// ListDocuments handles GET /v1/tenants/{tenant}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	docs, total, err := s.documents.List(r.Context(), tenantID, offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentResponse, len(docs))
	for i, d := range docs {
		items[i] = documentToResponse(d)
	}

	writeJSON(w, http.StatusOK, documentListResponse{
		Items:  items,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// DeleteDocument handles DELETE /v1/tenants/{tenant}/documents/{id}.
// The document record, its fragments, and any stored upload go together.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	id := chi.URLParam(r, "id")

	if err := s.documents.Delete(r.Context(), tenantID, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	if _, err := s.fragments.DeleteByDocument(r.Context(), tenantID, id); err != nil {
		s.logger.Error("fragment purge failed after document delete",
			zap.String("tenant_id", tenantID), zap.String("document_id", id), zap.Error(err))
	}
	if err := s.blobs.Delete(r.Context(), tenantID, id); err != nil {
		s.logger.Warn("blob delete failed",
			zap.String("tenant_id", tenantID), zap.String("document_id", id), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

// Query handles POST /v1/tenants/{tenant}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}
	if req.TopK != nil && (*req.TopK < 1 || *req.TopK > 20) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be between 1 and 20")
		return
	}
	if req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 1) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "threshold must be between 0 and 1")
		return
	}

	resp, err := s.searcher.Search(r.Context(), tenantID, req.Query, retrieval.Options{
		TopK:      req.TopK,
		Threshold: req.Threshold,
		Language:  req.Language,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	university := req.UniversityName
	if university == "" {
		university = tenantID
	}
	lang := req.Language
	if lang == "" {
		lang = "ko"
	}

	items := make([]searchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToItem(&resp.Results[i])
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Results:     items,
		Confidence:  resp.Confidence,
		SearchQuery: resp.SearchQuery,
		Prompt:      prompt.BuildSystemPrompt(university, lang, resp.Results),
	})
}

// GetSettings handles GET /v1/tenants/{tenant}/settings. Tenants without
// stored settings see the defaults rather than a 404.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	settings, err := s.settings.Get(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			writeJSON(w, http.StatusOK, domain.DefaultRetrievalSettings())
			return
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// PutSettings handles PUT /v1/tenants/{tenant}/settings.
func (s *Server) PutSettings(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	var settings domain.RetrievalSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.settings.Upsert(r.Context(), tenantID, settings); err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.invalidator.Invalidate(tenantID)
	writeJSON(w, http.StatusOK, settings)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"code":   codeServiceUnavailable,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func documentFromCreate(
	tenantID string, req createDocumentRequest, id string, now time.Time,
) (domain.Document, []byte, error) {
	if req.Name == "" {
		return domain.Document{}, nil, errors.New("name is required")
	}

	doc := domain.Document{
		ID:           id,
		TenantID:     tenantID,
		Name:         req.Name,
		Status:       domain.StatusPending,
		Language:     req.Language,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		CreatedAt:    now,
	}
	if req.DocType != "" {
		doc.DocType = domain.ParseDocType(req.DocType)
	}

	var raw []byte
	switch domain.SourceKind(req.Source) {
	case domain.SourceFile:
		if req.ContentBase64 == "" {
			return domain.Document{}, nil, errors.New("content_base64 is required for file documents")
		}
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			return domain.Document{}, nil, errors.New("content_base64 is not valid base64")
		}
		doc.Source = domain.SourceFile
		raw = decoded
	case domain.SourceURL:
		url := req.SourceURL
		if url == "" {
			url = req.Name
		}
		doc.Source = domain.SourceURL
		doc.Meta.SourceURL = url
	case domain.SourceQA:
		if req.Question == "" || req.Answer == "" {
			return domain.Document{}, nil, errors.New("question and answer are required for qa documents")
		}
		doc.Source = domain.SourceQA
		doc.DocType = domain.DocTypeQA
		doc.Meta.Question = req.Question
		doc.Meta.Answer = req.Answer
	default:
		return domain.Document{}, nil, errors.New("source must be file, url, or qa")
	}

	return doc, raw, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrSettingsNotFound,
		domain.ErrInvalidSettings,
		domain.ErrInvalidTransition,
		domain.ErrUnsupportedSource,
		domain.ErrExtractEmpty,
		domain.ErrEmbeddingProviderError,
		domain.ErrChatProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
