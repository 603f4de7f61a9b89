package chi

import (
	"time"

	"github.com/campusply/ragcore/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createDocumentRequest struct {
	Name          string `json:"name"`
	Source        string `json:"source"` // file, url, qa
	ContentBase64 string `json:"content_base64,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	Question      string `json:"question,omitempty"`
	Answer        string `json:"answer,omitempty"`
	Language      string `json:"language,omitempty"`
	DocType       string `json:"doc_type,omitempty"`
	ChunkSize     int    `json:"chunk_size,omitempty"`
	ChunkOverlap  int    `json:"chunk_overlap,omitempty"`
}

type createQARequest struct {
	Title    string `json:"title,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language,omitempty"`
}

type processRequest struct {
	// Structured selects the chat-model PDF reconstruction strategy.
	Structured bool `json:"structured,omitempty"`
}

type processResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	TextLength int    `json:"text_length"`
}

type documentResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Source    string              `json:"source"`
	Status    string              `json:"status"`
	Language  string              `json:"language,omitempty"`
	DocType   string              `json:"doc_type,omitempty"`
	Meta      domain.DocumentMeta `json:"meta"`
	CreatedAt time.Time           `json:"created_at"`
}

type documentListResponse struct {
	Items  []documentResponse `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

type queryRequest struct {
	Query          string   `json:"query"`
	TopK           *int     `json:"top_k,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
	Language       string   `json:"language,omitempty"`
	UniversityName string   `json:"university_name,omitempty"`
}

type searchResultItem struct {
	ID         string              `json:"id"`
	Content    string              `json:"content"`
	Similarity float64             `json:"similarity"`
	Meta       domain.FragmentMeta `json:"meta"`
}

type queryResponse struct {
	Results     []searchResultItem `json:"results"`
	Confidence  domain.Confidence  `json:"confidence"`
	SearchQuery string             `json:"search_query"`
	Prompt      string             `json:"prompt"`
}

func documentToResponse(d domain.Document) documentResponse {
	return documentResponse{
		ID:        d.ID,
		Name:      d.Name,
		Source:    string(d.Source),
		Status:    string(d.Status),
		Language:  d.Language,
		DocType:   string(d.DocType),
		Meta:      d.Meta,
		CreatedAt: d.CreatedAt,
	}
}

func searchResultToItem(r *domain.SearchResult) searchResultItem {
	return searchResultItem{
		ID:         r.ID,
		Content:    r.Content,
		Similarity: r.Similarity,
		Meta:       r.Meta,
	}
}
