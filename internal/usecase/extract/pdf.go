package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// MaxStructuredPages caps how many pages the structured PDF strategy
// sends through the chat model.
const MaxStructuredPages = 10

// The instruction is Korean: the corpus and the model are tuned for
// Korean institutional documents.
const pageRestructurePrompt = `이 PDF 페이지의 내용을 추출해주세요. 다음 규칙을 따르세요:
1. 테이블이 있으면 마크다운 테이블 형식으로 변환하세요.
2. 각 행과 열의 데이터를 정확하게 유지하세요.
3. 테이블 외의 텍스트도 모두 포함하세요.
4. 원본의 구조와 순서를 유지하세요.
5. 추가 설명 없이 내용만 출력하세요.`

// ExtractPDFText runs the fast text-layer strategy: cheap, but flattens
// tables into positional text.
func ExtractPDFText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}

	return CleanText(stripPageDividers(buf.String())), nil
}

// extractPDFStructured runs the heavier strategy for table-dominated
// documents: each page's text layer is passed through the chat model with
// a table-reconstruction instruction, trading latency and cost for
// structural fidelity. Page failures are skipped; all pages failing is
// fatal.
func (e *Extractor) extractPDFStructured(ctx context.Context, raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages > MaxStructuredPages {
		numPages = MaxStructuredPages
	}

	e.logger.Info("structured pdf extraction",
		zap.Int("pages", numPages),
		zap.Int("total_pages", reader.NumPage()),
	)

	var pages []string
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}

		content, err := e.chat.Complete(ctx, domain.ChatRequest{
			Messages: []domain.ChatMessage{
				{Role: domain.RoleUser, Content: pageRestructurePrompt + "\n\n" + pageText},
			},
			Temperature: 0,
			MaxTokens:   4000,
		})
		if err != nil {
			e.logger.Warn("structured page extraction failed, keeping raw page text",
				zap.Int("page", pageNum), zap.Error(err))
			content = pageText
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, fmt.Sprintf("[페이지 %d]\n%s", pageNum, content))
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("structured extraction produced no content: %w", domain.ErrExtractEmpty)
	}

	return CleanText(strings.Join(pages, "\n\n")), nil
}
