// Package tables recovers tabular structure from positionally-flattened
// text and emits natural-language summary fragments for markdown tables.
package tables

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// MaxSegment bounds how much text a single restructure call carries.
const MaxSegment = 12000

const restructureSystemPrompt = `당신은 PDF에서 추출된 텍스트를 정리하는 전문가입니다.
다음 규칙을 따르세요:
1. 테이블 데이터가 있으면 마크다운 테이블 형식으로 변환하세요.
2. 행과 열의 관계를 파악하여 정확하게 구조화하세요.
3. 전화번호, 이메일, 이름, 부서명 등 고유 정보를 절대 생략하지 마세요.
4. 원본 내용을 그대로 유지하되, 읽기 쉽게 정리하세요.
5. 추가 설명이나 주석 없이 정리된 내용만 출력하세요.`

// Service rebuilds tables and summarizes them through the chat model.
type Service struct {
	chat   domain.ChatCompleter
	logger *zap.Logger
}

// New creates a table service.
func New(chat domain.ChatCompleter, logger *zap.Logger) *Service {
	return &Service{chat: chat, logger: logger}
}

// Restructure reconstructs markdown tables from flattened text. Long
// inputs are split at paragraph boundaries into segments under MaxSegment
// characters; a failed segment falls back to its original text, so
// restructuring never fails the whole document.
func (s *Service) Restructure(ctx context.Context, text string) string {
	segments := splitSegments(text, MaxSegment)
	if len(segments) > 1 {
		s.logger.Info("restructuring in segments", zap.Int("segments", len(segments)))
	}

	results := make([]string, len(segments))
	for i, segment := range segments {
		results[i] = s.restructureSegment(ctx, segment)
	}
	return strings.Join(results, "\n\n")
}

func (s *Service) restructureSegment(ctx context.Context, text string) string {
	out, err := s.chat.Complete(ctx, domain.ChatRequest{
		System: restructureSystemPrompt,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "다음 PDF 텍스트를 정리해주세요. 특히 테이블이 있다면 마크다운 테이블로 변환해주세요:\n\n" + text},
		},
		Temperature: 0,
		MaxTokens:   8000,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		s.logger.Warn("restructure segment failed, keeping raw text", zap.Error(err))
		return text
	}
	return out
}

// splitSegments cuts text into pieces of at most limit runes, preferring a
// paragraph break, then a line break, then a hard cut at the limit. Breaks
// in the first half of the window are rejected so segments stay balanced.
func splitSegments(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var segments []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			segments = append(segments, string(runes))
			break
		}
		window := string(runes[:limit])
		splitAt := strings.LastIndex(window, "\n\n")
		if splitAt < limit/2 {
			splitAt = strings.LastIndex(window, "\n")
		}
		if splitAt < limit/2 {
			splitAt = len(window)
		}
		segments = append(segments, string([]rune(window[:splitAt])))
		rest := strings.TrimLeft(string(runes[len([]rune(window[:splitAt])):]), " \n\t")
		runes = []rune(rest)
	}
	return segments
}
