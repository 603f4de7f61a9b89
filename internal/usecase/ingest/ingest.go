// Package ingest drives a document through the full pipeline: fetch,
// extract, classify, preprocess, chunk, table handling, embed, persist.
// Each run owns the document's status transitions.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
	"github.com/campusply/ragcore/internal/metrics"
	"github.com/campusply/ragcore/internal/usecase/chunk"
	"github.com/campusply/ragcore/internal/usecase/extract"
	"github.com/campusply/ragcore/internal/usecase/language"
	"github.com/campusply/ragcore/internal/usecase/tables"
)

// InsertBatchSize bounds how many fragments go into one store write.
const InsertBatchSize = 50

// DocumentStore persists document records and their lifecycle state.
type DocumentStore interface {
	Get(ctx context.Context, tenantID, id string) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
}

// FragmentStore persists embedded fragments.
type FragmentStore interface {
	DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error)
	BulkInsert(ctx context.Context, fragments []domain.Fragment) error
}

// BlobStore fetches raw uploaded bytes for file documents.
type BlobStore interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Extractor turns raw bytes or URLs into clean text.
type Extractor interface {
	FromBytes(ctx context.Context, raw []byte, fileName string, opts extract.Options) (extract.Result, error)
	Crawl(ctx context.Context, url string) (extract.Result, error)
}

// Classifier detects document language and structural type.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
	Fallback(defaultLanguage string) domain.Classification
}

// TableService rebuilds and summarizes tabular content.
type TableService interface {
	Restructure(ctx context.Context, text string) string
	Summarize(ctx context.Context, text, fileName string) []tables.Summary
}

// FragmentEmbedder vectorizes fragment texts in order.
type FragmentEmbedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// Options tune a single ingestion run.
type Options struct {
	// Structured selects the chat-model PDF reconstruction strategy.
	Structured bool
}

// Result reports what a completed run produced.
type Result struct {
	ChunkCount int
	TextLength int
}

// Orchestrator runs the ingestion pipeline for one document at a time.
// There is no per-document locking; two concurrent runs for the same
// document race on status and fragments.
type Orchestrator struct {
	documents  DocumentStore
	fragments  FragmentStore
	blobs      BlobStore
	extractor  Extractor
	classifier Classifier
	tables     TableService
	embedder   FragmentEmbedder

	defaultLanguage string
	now             func() time.Time
	logger          *zap.Logger
}

// NewOrchestrator wires the pipeline. defaultLanguage backs the classifier
// fallback; empty means Korean.
func NewOrchestrator(
	documents DocumentStore,
	fragments FragmentStore,
	blobs BlobStore,
	extractor Extractor,
	classifier Classifier,
	tableSvc TableService,
	embedder FragmentEmbedder,
	defaultLanguage string,
	logger *zap.Logger,
) *Orchestrator {
	if defaultLanguage == "" {
		defaultLanguage = "ko"
	}
	return &Orchestrator{
		documents:       documents,
		fragments:       fragments,
		blobs:           blobs,
		extractor:       extractor,
		classifier:      classifier,
		tables:          tableSvc,
		embedder:        embedder,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
		logger:          logger,
	}
}

// Process runs the pipeline for an existing document. The document moves
// to processing first; on success it lands in completed with run metadata,
// on any failure in failed with the error message recorded. The error is
// returned either way. Fragments written before a late failure are not
// rolled back.
func (o *Orchestrator) Process(ctx context.Context, tenantID, documentID string, opts Options) (Result, error) {
	doc, err := o.documents.Get(ctx, tenantID, documentID)
	if err != nil {
		return Result{}, fmt.Errorf("load document %s: %w", documentID, err)
	}

	if err := doc.Transition(domain.StatusProcessing); err != nil {
		return Result{}, err
	}
	if err := o.documents.Save(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("mark processing: %w", err)
	}

	start := o.now()
	res, runErr := o.run(ctx, &doc, opts)
	if runErr != nil {
		o.markFailed(ctx, doc, runErr)
		metrics.DocumentsProcessedTotal.WithLabelValues(string(doc.Source), "failed").Inc()
		return Result{}, runErr
	}

	if err := doc.Transition(domain.StatusCompleted); err != nil {
		return Result{}, err
	}
	if err := o.documents.Save(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("mark completed: %w", err)
	}

	metrics.DocumentsProcessedTotal.WithLabelValues(string(doc.Source), "completed").Inc()
	metrics.IngestDuration.WithLabelValues(string(doc.Source)).Observe(o.now().Sub(start).Seconds())
	metrics.FragmentsWrittenTotal.Add(float64(res.ChunkCount))

	o.logger.Info("document ingested",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
		zap.Int("chunks", res.ChunkCount),
		zap.Int("text_length", res.TextLength),
	)
	return res, nil
}

// markFailed records the failure on the document. Question/answer content
// survives so qa documents stay reprocessable.
func (o *Orchestrator) markFailed(ctx context.Context, doc domain.Document, cause error) {
	if err := doc.Transition(domain.StatusFailed); err != nil {
		o.logger.Error("cannot mark document failed", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	doc.Meta = domain.DocumentMeta{
		Error:     cause.Error(),
		SourceURL: doc.Meta.SourceURL,
		Question:  doc.Meta.Question,
		Answer:    doc.Meta.Answer,
	}
	if err := o.documents.Save(ctx, doc); err != nil {
		o.logger.Error("failed-status write lost", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (o *Orchestrator) run(ctx context.Context, doc *domain.Document, opts Options) (Result, error) {
	if doc.Source == domain.SourceQA {
		return o.runQA(ctx, doc)
	}

	extracted, err := o.extract(ctx, doc, opts)
	if err != nil {
		return Result{}, err
	}
	text := extracted.Text

	// Admin-set language/type wins over classification.
	if doc.Language == "" || doc.DocType == "" {
		verdict, err := o.classifier.Classify(ctx, text)
		if err != nil {
			o.logger.Warn("classification failed, using defaults",
				zap.String("document_id", doc.ID), zap.Error(err))
			verdict = o.classifier.Fallback(o.defaultLanguage)
		}
		if doc.Language == "" {
			doc.Language = verdict.Language
		}
		if doc.DocType == "" {
			doc.DocType = verdict.DocType
		}
	}

	text = language.Preprocess(text, doc.Language)

	if doc.DocType == domain.DocTypeTableHeavy && !extracted.Structured {
		text = o.tables.Restructure(ctx, text)
	}

	size := doc.ChunkSize
	if size <= 0 {
		size = chunk.DefaultSize
	}
	overlap := doc.ChunkOverlap
	if overlap <= 0 {
		overlap = language.ChunkOverlapFor(doc.Language, size)
	}

	chunks := chunk.Split(text, chunk.Options{Size: size, Overlap: overlap})
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("document %s: %w", doc.ID, domain.ErrExtractEmpty)
	}

	fragments := make([]domain.Fragment, 0, len(chunks))
	for _, c := range chunks {
		fragments = append(fragments, domain.Fragment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			Content:    c.Content,
			Meta: domain.FragmentMeta{
				FileName:   doc.Name,
				ChunkIndex: c.Index,
				StartChar:  c.StartChar,
				EndChar:    c.EndChar,
			},
		})
	}

	if doc.DocType == domain.DocTypeTableHeavy {
		for _, summary := range o.tables.Summarize(ctx, text, doc.Name) {
			fragments = append(fragments, domain.Fragment{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				TenantID:   doc.TenantID,
				Content:    summary.Content,
				Meta: domain.FragmentMeta{
					FileName:   doc.Name,
					ChunkIndex: summary.Index,
					Kind:       domain.FragmentTableSummary,
				},
			})
		}
	}

	if err := o.persistFragments(ctx, doc, fragments); err != nil {
		return Result{}, err
	}

	textLength := utf8.RuneCountInString(text)
	now := o.now()
	doc.Meta = domain.DocumentMeta{
		ChunkCount:  len(fragments),
		TextLength:  textLength,
		ProcessedAt: &now,
		PageTitle:   extracted.Title,
		SourceURL:   doc.Meta.SourceURL,
	}
	return Result{ChunkCount: len(fragments), TextLength: textLength}, nil
}

// runQA bypasses extraction and chunking for question/answer documents.
// Short content becomes a single fragment; long content is chunked with
// the question prepended to every chunk for retrieval context.
func (o *Orchestrator) runQA(ctx context.Context, doc *domain.Document) (Result, error) {
	question := doc.Meta.Question
	answer := doc.Meta.Answer
	if question == "" || answer == "" {
		return Result{}, fmt.Errorf("document %s: qa document missing question or answer", doc.ID)
	}

	content := "질문: " + question + "\n답변: " + answer

	var fragments []domain.Fragment
	chunks := chunk.Split(content, chunk.Options{})
	if len(chunks) <= 1 {
		fragments = append(fragments, domain.Fragment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			Content:    content,
			Meta: domain.FragmentMeta{
				FileName: doc.Name,
				Kind:     domain.FragmentQA,
				Question: question,
			},
		})
	} else {
		prefix := "질문: " + question + "\n"
		for _, c := range chunks {
			body := c.Content
			if !strings.HasPrefix(body, prefix) {
				body = prefix + body
			}
			fragments = append(fragments, domain.Fragment{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				TenantID:   doc.TenantID,
				Content:    body,
				Meta: domain.FragmentMeta{
					FileName:   doc.Name,
					ChunkIndex: c.Index,
					Kind:       domain.FragmentQA,
					Question:   question,
				},
			})
		}
	}

	if err := o.persistFragments(ctx, doc, fragments); err != nil {
		return Result{}, err
	}

	textLength := utf8.RuneCountInString(content)
	now := o.now()
	doc.Meta = domain.DocumentMeta{
		ChunkCount:  len(fragments),
		TextLength:  textLength,
		ProcessedAt: &now,
		Question:    question,
		Answer:      answer,
	}
	return Result{ChunkCount: len(fragments), TextLength: textLength}, nil
}

func (o *Orchestrator) extract(ctx context.Context, doc *domain.Document, opts Options) (extract.Result, error) {
	switch doc.Source {
	case domain.SourceURL:
		url := doc.Meta.SourceURL
		if url == "" {
			url = doc.Name
		}
		return o.extractor.Crawl(ctx, url)
	case domain.SourceFile:
		raw, err := o.blobs.Fetch(ctx, doc.StoragePath)
		if err != nil {
			return extract.Result{}, fmt.Errorf("fetch %s: %w", doc.StoragePath, err)
		}
		return o.extractor.FromBytes(ctx, raw, doc.Name, extract.Options{Structured: opts.Structured})
	default:
		return extract.Result{}, fmt.Errorf("source %q: %w", doc.Source, domain.ErrUnsupportedSource)
	}
}

// persistFragments embeds all fragment texts, purges the document's prior
// fragments, and writes the new set in bounded batches. Reprocessing
// therefore replaces rather than appends.
func (o *Orchestrator) persistFragments(ctx context.Context, doc *domain.Document, fragments []domain.Fragment) error {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Content
	}

	vectors, err := o.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed fragments: %w", err)
	}
	for i := range fragments {
		fragments[i].Vector = vectors[i]
	}

	purged, err := o.fragments.DeleteByDocument(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return fmt.Errorf("purge prior fragments: %w", err)
	}
	if purged > 0 {
		o.logger.Info("purged prior fragments",
			zap.String("document_id", doc.ID), zap.Int("count", purged))
	}

	for start := 0; start < len(fragments); start += InsertBatchSize {
		end := start + InsertBatchSize
		if end > len(fragments) {
			end = len(fragments)
		}
		if err := o.fragments.BulkInsert(ctx, fragments[start:end]); err != nil {
			return fmt.Errorf("insert fragments [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}
