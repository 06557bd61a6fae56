package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Score tiers. The values are kept for behavior parity with the existing
// clients that render match quality; do not re-tune them.
const (
	ScoreExact       = 100
	ScorePrefix      = 80
	ScoreSubstring   = 60
	ScoreKeywordBase = 40
	ScoreKeywordStep = 5
)

// Result limits per retrieval context.
const (
	SuggestionLimit = 15
	TreatmentLimit  = 5
)

// MinQueryRunes is the shortest query that is scored at all.
const MinQueryRunes = 2

// MatchScore is one scored candidate name.
type MatchScore struct {
	CandidateName string
	Score         int
}

// Score rates how well candidate matches query on a 0..100 scale.
// Tiers are evaluated in precedence order and the first match wins.
func Score(query, candidate string) int {
	q := strings.TrimSpace(query)
	c := strings.TrimSpace(candidate)
	if q == "" || c == "" {
		return 0
	}

	nq, nc := Normalize(q), Normalize(c)
	switch {
	case strings.EqualFold(q, c) || nq == nc:
		return ScoreExact
	case strings.HasPrefix(nc, nq):
		return ScorePrefix
	case strings.Contains(nc, nq) || strings.Contains(nq, nc):
		return ScoreSubstring
	}

	qk := normalizedKeywords(q)
	overlap := 0
	for k := range normalizedKeywords(c) {
		if qk[k] {
			overlap++
		}
	}
	if overlap > 0 {
		return ScoreKeywordBase + ScoreKeywordStep*overlap
	}
	return 0
}

// mergeScores deduplicates by candidate name keeping the maximum score. The
// position of a name is the position where it was first seen.
func mergeScores(scores []MatchScore) []MatchScore {
	index := make(map[string]int, len(scores))
	merged := make([]MatchScore, 0, len(scores))
	for _, s := range scores {
		if i, ok := index[s.CandidateName]; ok {
			if s.Score > merged[i].Score {
				merged[i].Score = s.Score
			}
			continue
		}
		index[s.CandidateName] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

// sortScores orders by score descending; ties keep first-seen order.
func sortScores(scores []MatchScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
}

func isShortQuery(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) < MinQueryRunes
}
