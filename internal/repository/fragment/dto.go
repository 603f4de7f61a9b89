package fragment

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/campusply/ragcore/internal/db"
	"github.com/campusply/ragcore/internal/domain"
)

// searchReturnFields is everything a retrieval hit needs; the stored
// vector itself is never returned.
var searchReturnFields = []string{
	"content", "document_id", "file_name", "chunk_index",
	"start_char", "end_char", "kind", "question",
}

var knnReturnFields = append(searchReturnFields[:len(searchReturnFields):len(searchReturnFields)], "__vector_score")

// buildHashFields flattens a fragment into hash fields for HSET.
func buildHashFields(f *domain.Fragment) map[string]string {
	m := map[string]string{
		"content":     f.Content,
		"vector":      vectorToBytes(f.Vector),
		"tenant_id":   f.TenantID,
		"document_id": f.DocumentID,
		"chunk_index": strconv.Itoa(f.Meta.ChunkIndex),
	}
	if f.Meta.FileName != "" {
		m["file_name"] = f.Meta.FileName
	}
	if f.Meta.StartChar != 0 || f.Meta.EndChar != 0 {
		m["start_char"] = strconv.Itoa(f.Meta.StartChar)
		m["end_char"] = strconv.Itoa(f.Meta.EndChar)
	}
	if f.Meta.Kind != domain.FragmentBody {
		m["kind"] = string(f.Meta.Kind)
	}
	if f.Meta.Question != "" {
		m["question"] = f.Meta.Question
	}
	return m
}

// parseEntry converts a search hit back into a retrieval result.
func parseEntry(entry db.SearchEntry) domain.SearchResult {
	meta := domain.FragmentMeta{
		FileName: entry.Fields["file_name"],
		Kind:     domain.FragmentKind(entry.Fields["kind"]),
		Question: entry.Fields["question"],
	}
	meta.ChunkIndex, _ = strconv.Atoi(entry.Fields["chunk_index"])
	meta.StartChar, _ = strconv.Atoi(entry.Fields["start_char"])
	meta.EndChar, _ = strconv.Atoi(entry.Fields["end_char"])

	return domain.SearchResult{
		ID:         fragmentID(entry.Key),
		Content:    entry.Fields["content"],
		Meta:       meta,
		Similarity: entry.Score,
	}
}

func fragKey(tenantID, documentID, fragmentID string) string {
	return fmt.Sprintf("%sfrag:%s:%s:%s", domain.KeyPrefix, tenantID, documentID, fragmentID)
}

func fragPattern(tenantID, documentID string) string {
	return fmt.Sprintf("%sfrag:%s:%s:*", domain.KeyPrefix, tenantID, documentID)
}

// fragmentID extracts the fragment ID (the last key segment).
func fragmentID(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
