package db

import "github.com/campusply/ragcore/internal/db/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName     string
	Filters       filter.Expression
	Vector        []float32
	K             int
	ReturnFields  []string
	IncludeVector bool
}

// RangeQuery is the input for vector range search: every hit within
// Radius (cosine distance) of the query vector, capped at Limit.
type RangeQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	Radius       float64
	Limit        int
	ReturnFields []string
}

// TextQuery is the input for lexical text search. Terms are escaped
// individually; MatchAny selects any-of semantics instead of all-of.
type TextQuery struct {
	IndexName    string
	Field        string
	Terms        []string
	MatchAny     bool
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
