// Package classify detects the language and structural type of a document
// from a bounded text sample.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// SampleLimit bounds how much text is sent to the model.
const SampleLimit = 2000

const systemPrompt = `You are a document classifier. Analyze the given text sample and return a JSON object with:
- "language": ISO 639-1 code (ko, en, zh, vi, mn, km, etc.)
- "docType": one of "general", "table_heavy", "qa", "legal", "academic"

Rules:
- "table_heavy": document contains many tables, spreadsheet-like data, or structured numerical data
- "qa": document is structured as question-answer pairs
- "legal": document contains legal/regulatory text (visa rules, laws, policies)
- "academic": academic papers, course catalogs, syllabi
- "general": everything else

Return ONLY the JSON object, no explanation.`

// Classifier runs a constrained-output chat call to classify documents.
type Classifier struct {
	chat   domain.ChatCompleter
	logger *zap.Logger
}

// New creates a classifier.
func New(chat domain.ChatCompleter, logger *zap.Logger) *Classifier {
	return &Classifier{chat: chat, logger: logger}
}

// Classify returns the detected language and document type for a sample.
// Callers must treat an error as non-fatal and substitute Fallback —
// classification failure never blocks ingestion.
func (c *Classifier) Classify(ctx context.Context, sample string) (domain.Classification, error) {
	if runes := []rune(sample); len(runes) > SampleLimit {
		sample = string(runes[:SampleLimit])
	}

	raw, err := c.chat.Complete(ctx, domain.ChatRequest{
		System: systemPrompt,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: sample},
		},
		Temperature: 0,
		MaxTokens:   100,
		JSONMode:    true,
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify call: %w", err)
	}

	var parsed struct {
		Language string `json:"language"`
		DocType  string `json:"docType"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classifier output %q: %w", raw, err)
	}

	cls := domain.Classification{
		Language: parsed.Language,
		DocType:  domain.ParseDocType(parsed.DocType),
	}
	if cls.Language == "" {
		cls.Language = "ko"
	}

	c.logger.Debug("document classified",
		zap.String("language", cls.Language),
		zap.String("doc_type", string(cls.DocType)),
	)
	return cls, nil
}

// Fallback is the documented substitute when classification fails: the
// tenant's default language and the general document type.
func Fallback(defaultLanguage string) domain.Classification {
	if defaultLanguage == "" {
		defaultLanguage = "ko"
	}
	return domain.Classification{Language: defaultLanguage, DocType: domain.DocTypeGeneral}
}

// Fallback satisfies pipeline consumers that take the classifier as a value.
func (c *Classifier) Fallback(defaultLanguage string) domain.Classification {
	return Fallback(defaultLanguage)
}
