package tables

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campusply/ragcore/internal/domain"
)

// Summarization limits.
const (
	MaxTablesPerDocument = 10
	summaryBatchSize     = 3
)

// markdownTable matches a header row, a separator row, and at least one
// data row.
var markdownTable = regexp.MustCompile(`(?m)(\|[^\n]+\|\n\|[-: |]+\|\n(?:\|[^\n]+\|\n?)+)`)

const summarizeSystemPrompt = `주어진 표의 모든 행을 한국어 자연어 문장으로 변환하세요. 각 행의 모든 열 데이터(이름, 전화번호, 부서, 직위 등)를 빠짐없이 포함하세요. "OO의 전화번호는 XXX이다" 형태로 작성하세요. 1000토큰 이내로 작성하세요.`

// Summary is one generated table summary destined to become an extra
// fragment with a reserved high ordinal index.
type Summary struct {
	Content string
	Index   int // domain.TableSummaryIndexBase + table ordinal
}

// Summarize scans text for markdown tables and produces a sentence-per-row
// natural language summary for each, processed in small parallel batches.
// A failed table is skipped; summarization never fails the document.
func (s *Service) Summarize(ctx context.Context, text, fileName string) []Summary {
	found := markdownTable.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	if len(found) > MaxTablesPerDocument {
		s.logger.Info("table cap applied",
			zap.Int("found", len(found)), zap.Int("cap", MaxTablesPerDocument))
		found = found[:MaxTablesPerDocument]
	}

	var (
		mu        sync.Mutex
		summaries []Summary
	)

	for start := 0; start < len(found); start += summaryBatchSize {
		end := start + summaryBatchSize
		if end > len(found) {
			end = len(found)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				summary, err := s.summarizeOne(gctx, found[i])
				if err != nil {
					s.logger.Warn("table summary failed, skipping table",
						zap.Int("table", i), zap.Error(err))
					return nil
				}
				mu.Lock()
				summaries = append(summaries, Summary{
					Content: fmt.Sprintf("[표 요약 - %s] %s", fileName, summary),
					Index:   domain.TableSummaryIndexBase + i,
				})
				mu.Unlock()
				return nil
			})
		}
		// Workers swallow their own errors, so Wait only synchronizes.
		_ = g.Wait()
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Index < summaries[j].Index })
	return summaries
}

func (s *Service) summarizeOne(ctx context.Context, table string) (string, error) {
	out, err := s.chat.Complete(ctx, domain.ChatRequest{
		System: summarizeSystemPrompt,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: table},
		},
		Temperature: 0,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty summary: %w", domain.ErrChatProviderError)
	}
	return out, nil
}
