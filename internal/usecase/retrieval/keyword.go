package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/campusply/ragcore/internal/domain"
)

// stopWords are Korean particles, auxiliaries, and interrogatives that
// carry no retrieval signal.
var stopWords = makeSet(
	"은", "는", "이", "가", "을", "를", "에", "에서", "의", "와", "과", "로", "으로",
	"도", "만", "까지", "부터", "에게", "한테", "께", "보다", "처럼", "같이",
	"하는", "되는", "있는", "없는", "하다", "되다", "있다", "없다", "인가요",
	"무엇", "어떤", "어떻게", "언제", "어디", "누구", "왜", "얼마",
	"대해", "관해", "대한", "관한", "경우", "때", "것", "수",
)

// genericWords match too many fragments and drown out specific hits.
// Includes institution names and question-intent words that describe the
// asker's intent rather than the content they are after.
var genericWords = makeSet(
	"충북대", "충북대학교", "대학교", "대학", "학교", "한국", "서울",
	"교통대", "교원대", "한국교통대학교", "한국교원대학교",
	"학생", "교수", "직원", "규정", "안내", "정보", "문의",
	"전화번호", "번호", "이메일", "메일", "주소", "연락처",
	"알려줘", "알려주세요", "알려", "알고", "싶어요",
	"방법", "절차", "일정", "비용", "가격", "위치",
	"날짜", "날짜는", "시기", "기간", "시간", "내용",
)

var (
	tokenSeparators   = regexp.MustCompile(`[?.,!~\s]+`)
	trailingParticles = regexp.MustCompile(`[은는이가을를의로도만]+$`)
)

func makeSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// KeywordStore runs lexical containment queries over a tenant's fragments.
// SearchAll requires every keyword to appear; SearchAny requires at least
// one.
type KeywordStore interface {
	SearchAll(ctx context.Context, tenantID string, keywords []string, limit int) ([]domain.SearchResult, error)
	SearchAny(ctx context.Context, tenantID string, keywords []string, limit int) ([]domain.SearchResult, error)
}

// queryKeywords splits a query into all usable keywords and the specific
// subset left after dropping generic terms. When everything is generic the
// full set doubles as the specific set so the search still runs.
func queryKeywords(query string) (all, specific []string) {
	tokens := tokenSeparators.Split(query, -1)
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		all = append(all, tok)
	}

	for _, w := range all {
		if _, generic := genericWords[w]; generic {
			continue
		}
		stripped := trailingParticles.ReplaceAllString(w, "")
		if len([]rune(stripped)) >= 2 {
			if _, generic := genericWords[stripped]; generic {
				continue
			}
		}
		specific = append(specific, w)
	}
	if len(specific) == 0 {
		specific = all
	}
	return all, specific
}

// keywordSearch supplements vector search with lexical matching so exact
// names and numbers are never missed. AND-first for precision, then OR to
// fill remaining slots, scored by specific-keyword coverage into the
// 0.3-0.6 band below typical vector similarities.
func (e *Engine) keywordSearch(ctx context.Context, query, tenantID string, limit int) []domain.SearchResult {
	allKeywords, searchKeywords := queryKeywords(query)
	if len(searchKeywords) == 0 {
		return nil
	}
	e.logger.Debug("keyword search",
		zap.Strings("keywords", searchKeywords),
		zap.Int("all_keywords", len(allKeywords)))

	var (
		rows    []domain.SearchResult
		seenIDs = make(map[string]struct{})
	)
	add := func(results []domain.SearchResult) {
		for _, r := range results {
			if _, seen := seenIDs[r.ID]; seen {
				continue
			}
			seenIDs[r.ID] = struct{}{}
			rows = append(rows, r)
		}
	}

	if len(searchKeywords) >= 2 {
		andRows, err := e.keywords.SearchAll(ctx, tenantID, searchKeywords, limit)
		if err != nil {
			e.logger.Warn("keyword AND search failed", zap.Error(err))
		} else {
			add(andRows)
		}
	}
	if len(rows) < limit {
		orRows, err := e.keywords.SearchAny(ctx, tenantID, searchKeywords, limit*4)
		if err != nil {
			e.logger.Warn("keyword OR search failed", zap.Error(err))
		} else {
			add(orRows)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	scored := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		contentLower := strings.ToLower(row.Content)
		specificMatches := countContained(contentLower, searchKeywords)
		totalMatches := countContained(contentLower, allKeywords)
		row.Similarity = 0.3 +
			float64(specificMatches)/float64(len(searchKeywords))*0.25 +
			float64(totalMatches)/float64(len(allKeywords))*0.05
		scored = append(scored, row)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func countContained(contentLower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(contentLower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}
