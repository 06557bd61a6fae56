package matcher

import "sort"

// Rank returns candidate names matching query, best first, at most limit
// entries (limit <= 0 means unlimited). A query shorter than MinQueryRunes is
// not scored: every candidate is returned once, in its original order.
func Rank(query string, candidates []string, limit int) []string {
	return RankMulti([]string{query}, candidates, limit)
}

// RankMulti scores every candidate against each query and keeps the best
// score per candidate name. Candidates scoring 0 are excluded.
func RankMulti(queries []string, candidates []string, limit int) []string {
	if allShort(queries) {
		return unique(candidates)
	}

	scores := rankScores(queries, candidates)
	names := make([]string, 0, len(scores))
	for _, s := range scores {
		names = append(names, s.CandidateName)
	}
	return truncate(names, limit)
}

func rankScores(queries []string, candidates []string) []MatchScore {
	scores := make([]MatchScore, 0, len(candidates))
	for _, c := range candidates {
		for _, q := range queries {
			if isShortQuery(q) {
				continue
			}
			if s := Score(q, c); s > 0 {
				scores = append(scores, MatchScore{CandidateName: c, Score: s})
			}
		}
	}
	merged := mergeScores(scores)
	sortScores(merged)
	return merged
}

// Ranked is an item with the best score any of its fields reached.
type Ranked[T any] struct {
	Item  T
	Score int
}

// RankItems ranks arbitrary records. fields yields the texts a record is
// matched on (for example its target disease names) and name identifies the
// record for deduplication. Records scoring 0 are dropped.
func RankItems[T any](queries []string, items []T, name func(T) string, fields func(T) []string, limit int) []Ranked[T] {
	index := make(map[string]int, len(items))
	ranked := make([]Ranked[T], 0, len(items))

	for _, item := range items {
		best := 0
		for _, f := range fields(item) {
			for _, q := range queries {
				if isShortQuery(q) {
					continue
				}
				if s := Score(q, f); s > best {
					best = s
				}
			}
		}
		if best == 0 {
			continue
		}

		key := name(item)
		if i, ok := index[key]; ok {
			if best > ranked[i].Score {
				ranked[i].Score = best
			}
			continue
		}
		index[key] = len(ranked)
		ranked = append(ranked, Ranked[T]{Item: item, Score: best})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func allShort(queries []string) bool {
	for _, q := range queries {
		if !isShortQuery(q) {
			return false
		}
	}
	return true
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func truncate(values []string, limit int) []string {
	if limit > 0 && len(values) > limit {
		return values[:limit]
	}
	return values
}
