package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSettingsNotFound signals missing retrieval settings for a tenant.
	ErrSettingsNotFound = errors.New("retrieval settings not found")
	// ErrInvalidSettings signals out-of-bounds retrieval settings.
	ErrInvalidSettings = errors.New("invalid retrieval settings")
	// ErrExtractEmpty signals that extraction produced no usable text.
	ErrExtractEmpty = errors.New("no text content extracted")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrUnsupportedSource signals a source kind the pipeline cannot process.
	ErrUnsupportedSource = errors.New("unsupported source kind")
)

// InvalidTransitionError reports an illegal document status transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// ErrInvalidTransition is the sentinel all InvalidTransitionError values unwrap to.
var ErrInvalidTransition = errors.New("invalid status transition")

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
