// Package rewrite prepares a user query for vector search. Stored fragments
// are predominantly Korean, so non-Korean queries are translated and HyDE
// replaces the query with a hypothetical Korean answer when enabled.
package rewrite

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

const hydeSystemPrompt = `당신은 한국 대학교 외국인 유학생 지원 담당자입니다. 아래 질문에 대해 한국어로 간결한 답변을 작성하세요. 비자, 학사, 장학금, 생활 정보 등 유학생이 필요로 하는 실질적인 정보를 포함하세요. 300자 이내로 작성하세요.`

const translateSystemPrompt = `다음 텍스트를 한국어로 정확히 번역하세요. 대학교 이름, 기관명 등 고유명사는 원문을 유지하세요. 번역된 한국어 텍스트만 출력하세요.`

// Rewriter produces the text that actually gets embedded for vector search.
type Rewriter struct {
	chat   domain.ChatCompleter
	logger *zap.Logger
}

// New creates a rewriter.
func New(chat domain.ChatCompleter, logger *zap.Logger) *Rewriter {
	return &Rewriter{chat: chat, logger: logger}
}

// ForEmbedding returns the query text to embed. Korean queries pass
// through unchanged. Non-Korean queries become a hypothetical Korean
// answer when HyDE is enabled, or a Korean translation otherwise. Any
// model failure falls back to the original query, so rewriting can only
// improve recall, never block a search.
func (r *Rewriter) ForEmbedding(ctx context.Context, query, language string, hydeEnabled bool) string {
	if language == "ko" {
		return query
	}
	if hydeEnabled {
		return r.hypotheticalAnswer(ctx, query, language)
	}
	return r.translateToKorean(ctx, query)
}

func (r *Rewriter) hypotheticalAnswer(ctx context.Context, query, language string) string {
	out, err := r.chat.Complete(ctx, domain.ChatRequest{
		System: hydeSystemPrompt,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: query},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	})
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		r.logger.Warn("hypothetical answer generation failed, using original query",
			zap.Error(err))
		return query
	}
	r.logger.Debug("hypothetical answer generated",
		zap.String("language", language),
		zap.Int("answer_len", len(out)))
	return out
}

func (r *Rewriter) translateToKorean(ctx context.Context, query string) string {
	out, err := r.chat.Complete(ctx, domain.ChatRequest{
		System: translateSystemPrompt,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: query},
		},
		Temperature: 0,
		MaxTokens:   500,
	})
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		r.logger.Warn("query translation failed, using original query", zap.Error(err))
		return query
	}
	return out
}
