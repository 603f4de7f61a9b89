package fragment

import (
	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// IndexName is the single FT index covering all tenants' fragments.
// Tenant isolation happens through the tenant_id tag filter on every query.
const IndexName = domain.KeyPrefix + "frag:idx"

// HNSWConfig holds HNSW build parameters for the fragment vector field.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// BuildIndex defines the fragment index: tag fields for scoping, a TEXT
// field for keyword search, and an HNSW vector field for KNN.
func BuildIndex(vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(IndexName).
		OnHash().
		Prefix(domain.KeyPrefix + "frag:").
		Tag("tenant_id").
		Tag("document_id").
		Text("content").
		VectorHNSW("vector", vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}
