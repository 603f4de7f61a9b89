package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/campusply/ragcore/internal/domain"
)

// docJSON is the stored JSON shape of a document record.
type docJSON struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Source       string    `json:"source"`
	StoragePath  string    `json:"storage_path,omitempty"`
	Status       string    `json:"status"`
	Language     string    `json:"language,omitempty"`
	DocType      string    `json:"doc_type,omitempty"`
	ChunkSize    int       `json:"chunk_size,omitempty"`
	ChunkOverlap int       `json:"chunk_overlap,omitempty"`
	Meta         metaJSON  `json:"meta"`
	CreatedAt    time.Time `json:"created_at"`
}

type metaJSON struct {
	Error       string     `json:"error,omitempty"`
	ChunkCount  int        `json:"chunk_count,omitempty"`
	TextLength  int        `json:"text_length,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	PageTitle   string     `json:"page_title,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	Question    string     `json:"question,omitempty"`
	Answer      string     `json:"answer,omitempty"`
}

func toJSON(doc *domain.Document) docJSON {
	return docJSON{
		ID:           doc.ID,
		TenantID:     doc.TenantID,
		Name:         doc.Name,
		Source:       string(doc.Source),
		StoragePath:  doc.StoragePath,
		Status:       string(doc.Status),
		Language:     doc.Language,
		DocType:      string(doc.DocType),
		ChunkSize:    doc.ChunkSize,
		ChunkOverlap: doc.ChunkOverlap,
		Meta: metaJSON{
			Error:       doc.Meta.Error,
			ChunkCount:  doc.Meta.ChunkCount,
			TextLength:  doc.Meta.TextLength,
			ProcessedAt: doc.Meta.ProcessedAt,
			PageTitle:   doc.Meta.PageTitle,
			SourceURL:   doc.Meta.SourceURL,
			Question:    doc.Meta.Question,
			Answer:      doc.Meta.Answer,
		},
		CreatedAt: doc.CreatedAt,
	}
}

func fromJSON(d docJSON) domain.Document {
	return domain.Document{
		ID:           d.ID,
		TenantID:     d.TenantID,
		Name:         d.Name,
		Source:       domain.SourceKind(d.Source),
		StoragePath:  d.StoragePath,
		Status:       domain.Status(d.Status),
		Language:     d.Language,
		DocType:      domain.DocType(d.DocType),
		ChunkSize:    d.ChunkSize,
		ChunkOverlap: d.ChunkOverlap,
		Meta: domain.DocumentMeta{
			Error:       d.Meta.Error,
			ChunkCount:  d.Meta.ChunkCount,
			TextLength:  d.Meta.TextLength,
			ProcessedAt: d.Meta.ProcessedAt,
			PageTitle:   d.Meta.PageTitle,
			SourceURL:   d.Meta.SourceURL,
			Question:    d.Meta.Question,
			Answer:      d.Meta.Answer,
		},
		CreatedAt: d.CreatedAt,
	}
}

// parseJSONGetResult handles both the bare object and the JSONPath
// array-of-one shape JSON.GET returns for "$".
func parseJSONGetResult(raw []byte) (domain.Document, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var docs []docJSON
		if err := json.Unmarshal(raw, &docs); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal document list: %w", err)
		}
		if len(docs) == 0 {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return fromJSON(docs[0]), nil
	}

	var d docJSON
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return fromJSON(d), nil
}

func docKey(tenantID, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", domain.KeyPrefix, tenantID, id)
}

// tagEscaper covers the FT.SEARCH special characters a tenant ID may contain.
var tagEscaper = strings.NewReplacer(
	"-", "\\-",
	".", "\\.",
	":", "\\:",
	"@", "\\@",
	" ", "\\ ",
)

// tenantQuery builds a tag query scoping list/count to one tenant.
func tenantQuery(tenantID string) string {
	return fmt.Sprintf("@tenant_id:{%s}", tagEscaper.Replace(tenantID))
}
