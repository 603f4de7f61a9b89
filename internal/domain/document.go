package domain

import "time"

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "ragcore:"

// SourceKind tells the pipeline how to obtain a document's raw content.
type SourceKind string

// Document source kinds.
const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceQA   SourceKind = "qa"
)

// DocType is the structural document type detected by the classifier.
type DocType string

// Classifier document types (closed set).
const (
	DocTypeGeneral    DocType = "general"
	DocTypeTableHeavy DocType = "table_heavy"
	DocTypeQA         DocType = "qa"
	DocTypeLegal      DocType = "legal"
	DocTypeAcademic   DocType = "academic"
)

// ParseDocType maps a string to a known DocType, defaulting to general.
func ParseDocType(s string) DocType {
	switch DocType(s) {
	case DocTypeTableHeavy, DocTypeQA, DocTypeLegal, DocTypeAcademic:
		return DocType(s)
	default:
		return DocTypeGeneral
	}
}

// Status is the document lifecycle state.
type Status string

// Document lifecycle states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions is the full legal transition table. Completed and failed are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	// Reprocessing a terminal document restarts the state machine.
	StatusCompleted: {StatusProcessing},
	StatusFailed:    {StatusProcessing},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Classification is the classifier's verdict on a text sample.
type Classification struct {
	Language string
	DocType  DocType
}

// DocumentMeta is the closed set of optional per-document metadata fields.
// A closed record instead of a free-form map keeps consumers exhaustive-checkable.
type DocumentMeta struct {
	Error       string     `json:"error,omitempty"`
	ChunkCount  int        `json:"chunk_count,omitempty"`
	TextLength  int        `json:"text_length,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	PageTitle   string     `json:"page_title,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	// Question/Answer hold the source content for qa documents so they
	// can be reprocessed without external storage.
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Document is a tenant-scoped knowledge source moving through the ingestion pipeline.
type Document struct {
	ID       string
	TenantID string
	Name     string // file name, URL, or Q&A title
	Source   SourceKind
	// StoragePath locates raw bytes for file sources; empty for url/qa.
	StoragePath string
	Status      Status
	Language    string  // ISO 639-1, empty until classified or overridden
	DocType     DocType // empty until classified or overridden
	// ChunkSize/ChunkOverlap override the default chunking policy when > 0.
	ChunkSize    int
	ChunkOverlap int
	Meta         DocumentMeta
	CreatedAt    time.Time
}

// Transition moves the document to the next status, rejecting illegal moves.
func (d *Document) Transition(to Status) error {
	if !CanTransition(d.Status, to) {
		return &InvalidTransitionError{From: d.Status, To: to}
	}
	d.Status = to
	return nil
}
