package document

import (
	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// IndexName is the FT index over document records, used for per-tenant listing.
const IndexName = domain.KeyPrefix + "doc:idx"

// BuildIndex defines the document index on JSON storage. Tag fields carry
// JSONPath names with plain aliases so queries stay readable.
func BuildIndex() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{domain.KeyPrefix + "doc:"},
		Fields: []db.IndexField{
			{Name: "$.tenant_id", Alias: "tenant_id", Type: db.IndexFieldTag},
			{Name: "$.status", Alias: "status", Type: db.IndexFieldTag},
			{Name: "$.source", Alias: "source", Type: db.IndexFieldTag},
		},
	}
}
