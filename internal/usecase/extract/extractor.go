// Package extract converts raw document bytes (PDF, HTML, plain text) and
// crawled web pages into clean plain text for the ingestion pipeline.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// Crawl limits.
const (
	crawlTimeout  = 15 * time.Second
	crawlMaxBytes = 20 << 20
	crawlUA       = "ragcore-crawler/1.0"
)

// Options select the extraction strategy per request.
type Options struct {
	// Structured enables the chat-model page reconstruction strategy for
	// PDFs dominated by tables. Slower and costs tokens.
	Structured bool
}

// Result is the extractor output.
type Result struct {
	Text string
	// Title is set for web sources when the page carries one.
	Title string
	// Structured records whether the structured PDF strategy ran; the
	// table restructurer is skipped in that case.
	Structured bool
}

// Extractor turns raw bytes or URLs into clean text.
type Extractor struct {
	chat   domain.ChatCompleter
	client *http.Client
	logger *zap.Logger
}

// New creates an extractor. chat is only used by the structured PDF strategy.
func New(chat domain.ChatCompleter, logger *zap.Logger) *Extractor {
	return &Extractor{
		chat:   chat,
		client: &http.Client{Timeout: crawlTimeout},
		logger: logger,
	}
}

// FromBytes extracts text from raw bytes, sniffing PDF by magic header and
// falling back to plain text. Empty text after cleaning is fatal for the
// document.
func (e *Extractor) FromBytes(ctx context.Context, raw []byte, fileName string, opts Options) (Result, error) {
	var (
		res Result
		err error
	)

	switch {
	case isPDF(raw, fileName):
		if opts.Structured {
			res.Structured = true
			res.Text, err = e.extractPDFStructured(ctx, raw)
		} else {
			res.Text, err = ExtractPDFText(raw)
		}
	case looksLikeHTML(raw):
		res.Text, res.Title, err = ExtractHTML(string(raw))
	default:
		res.Text = CleanText(string(raw))
	}
	if err != nil {
		return Result{}, err
	}

	if strings.TrimSpace(res.Text) == "" {
		return Result{}, fmt.Errorf("%s: %w", fileName, domain.ErrExtractEmpty)
	}
	return res, nil
}

// Crawl fetches a URL and extracts its content, dispatching on the
// response content type. The fetch is bounded by the crawl timeout.
func (e *Extractor) Crawl(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", crawlUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, crawlMaxBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/pdf") {
		text, err := ExtractPDFText(body)
		if err != nil {
			return Result{}, err
		}
		if strings.TrimSpace(text) == "" {
			return Result{}, fmt.Errorf("%s: %w", url, domain.ErrExtractEmpty)
		}
		return Result{Text: text}, nil
	}

	text, title, err := ExtractHTML(string(body))
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%s: %w", url, domain.ErrExtractEmpty)
	}
	return Result{Text: text, Title: title}, nil
}

func isPDF(raw []byte, fileName string) bool {
	if len(raw) >= 5 && string(raw[:5]) == "%PDF-" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}

func looksLikeHTML(raw []byte) bool {
	head := strings.ToLower(string(raw[:minInt(len(raw), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
