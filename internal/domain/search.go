package domain

// SearchResult is a single retrieval hit. Vector hits carry true
// cosine-derived similarities; keyword-only hits carry synthetic scores in
// a lower band (0.3-0.6) so lexical luck never outranks semantic evidence.
type SearchResult struct {
	ID         string
	Content    string
	Meta       FragmentMeta
	Similarity float64
}

// ConfidenceLevel buckets a confidence score.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Confidence summarizes how well a result set supports answering a query.
type Confidence struct {
	Level ConfidenceLevel `json:"level"`
	Score float64         `json:"score"`
}
