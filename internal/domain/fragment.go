package domain

// FragmentKind distinguishes ordinary body chunks from derived fragments.
type FragmentKind string

// Fragment kinds.
const (
	FragmentBody         FragmentKind = ""
	FragmentTableSummary FragmentKind = "table_summary"
	FragmentQA           FragmentKind = "qa"
)

// TableSummaryIndexBase is the reserved ordinal range for table summary
// fragments so they never collide with body chunk indices.
const TableSummaryIndexBase = 9000

// FragmentMeta is the closed set of per-fragment metadata fields.
type FragmentMeta struct {
	FileName   string       `json:"file_name,omitempty"`
	ChunkIndex int          `json:"chunk_index"`
	StartChar  int          `json:"start_char,omitempty"`
	EndChar    int          `json:"end_char,omitempty"`
	Kind       FragmentKind `json:"kind,omitempty"`
	Question   string       `json:"question,omitempty"` // qa fragments only
}

// Fragment is an embedded slice of a document's extracted text, stored
// independently for retrieval. Belongs to exactly one document and tenant.
type Fragment struct {
	ID         string
	DocumentID string
	TenantID   string
	Content    string
	Vector     []float32
	Meta       FragmentMeta
}
