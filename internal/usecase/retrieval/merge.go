package retrieval

import (
	"sort"

	"github.com/campusply/ragcore/internal/domain"
)

// reservedKeywordSlots is how many final slots keyword results can claim
// even when vector results alone would fill the list.
const reservedKeywordSlots = 2

// mergeHybrid combines vector and keyword results into at most topK
// entries. Keyword results already present among vector hits are dropped,
// the rest are deduplicated to the best fragment per source document, and
// up to reservedKeywordSlots of them are guaranteed a place so exact
// lexical hits survive strong semantic competition.
func mergeHybrid(vector, keyword []domain.SearchResult, topK int) []domain.SearchResult {
	existing := make(map[string]struct{}, len(vector))
	for _, r := range vector {
		existing[r.ID] = struct{}{}
	}

	bestByFile := make(map[string]domain.SearchResult)
	var order []string
	for _, kr := range keyword {
		if _, dup := existing[kr.ID]; dup {
			continue
		}
		key := kr.Meta.FileName
		if key == "" {
			key = kr.ID
		}
		prev, ok := bestByFile[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || kr.Similarity > prev.Similarity {
			bestByFile[key] = kr
		}
	}

	deduped := make([]domain.SearchResult, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, bestByFile[key])
	}
	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].Similarity > deduped[j].Similarity })

	reserved := reservedKeywordSlots
	if len(deduped) < reserved {
		reserved = len(deduped)
	}
	vectorSlots := topK - reserved
	if vectorSlots < 0 {
		vectorSlots = 0
	}
	if vectorSlots > len(vector) {
		vectorSlots = len(vector)
	}

	merged := make([]domain.SearchResult, 0, len(vector)+len(deduped))
	merged = append(merged, vector[:vectorSlots]...)
	merged = append(merged, deduped[:reserved]...)
	merged = append(merged, vector[vectorSlots:]...)
	merged = append(merged, deduped[reserved:]...)

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

// assessConfidence summarizes how well the final result set supports an
// answer. Top similarity dominates, the mean tempers a single lucky hit.
func assessConfidence(results []domain.SearchResult) domain.Confidence {
	if len(results) == 0 {
		return domain.Confidence{Level: domain.ConfidenceLow, Score: 0}
	}

	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	mean := sum / float64(len(results))
	score := results[0].Similarity*0.6 + mean*0.4

	level := domain.ConfidenceLow
	switch {
	case score >= 0.7:
		level = domain.ConfidenceHigh
	case score >= 0.4:
		level = domain.ConfidenceMedium
	}
	return domain.Confidence{Level: level, Score: score}
}
