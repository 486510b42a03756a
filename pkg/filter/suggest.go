package filter

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"

	"github.com/soshbru/soshbru/pkg/cafe"
)

const (
	// suggestThreshold drops candidates that are only vaguely similar.
	suggestThreshold = 0.5
	defaultSuggest   = 5
)

// Suggestion is a fuzzy "did you mean" candidate.
type Suggestion struct {
	CafeID string  `json:"cafeId"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// SuggestCafes ranks cafe names by similarity to query. It is meant for the
// case where a plain search came back empty, so typos like "tehc hub" still
// lead somewhere. At most limit results are returned (5 when limit <= 0).
func SuggestCafes(query string, cafes []cafe.Cafe, limit int) []Suggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(cafes) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultSuggest
	}

	queryWords := words(query)
	var results []Suggestion
	for _, c := range cafes {
		score := similarity(query, queryWords, c.Name)
		if score >= suggestThreshold {
			results = append(results, Suggestion{CafeID: c.ID, Name: c.Name, Score: score})
		}
	}

	// Stable keeps dataset order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SuggestFilter returns the catalog option closest to an unknown id, if any
// is close enough.
func SuggestFilter(raw string) (Option, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Option{}, false
	}

	best, bestScore := Option{}, 0.0
	for _, o := range catalog {
		score := math.Max(
			ratio(raw, strings.ToLower(string(o.ID))),
			ratio(raw, strings.ToLower(o.Label)),
		)
		if score > bestScore {
			best, bestScore = o, score
		}
	}
	return best, bestScore >= suggestThreshold
}

// similarity scores a lower-cased query against a name in [0,1]. A
// substring hit scores just below an exact one; otherwise the better of the
// whole-string ratio and the mean best per-word ratio wins.
func similarity(query string, queryWords []string, name string) float64 {
	name = strings.ToLower(name)
	if query == name {
		return 1
	}
	if strings.Contains(name, query) {
		return 0.95
	}

	whole := ratio(query, name)

	nameWords := words(name)
	if len(queryWords) == 0 || len(nameWords) == 0 {
		return whole
	}
	total := 0.0
	for _, q := range queryWords {
		best := 0.0
		for _, n := range nameWords {
			best = math.Max(best, ratio(q, n))
		}
		total += best
	}
	return math.Max(whole, total/float64(len(queryWords)))
}

// ratio is 1 minus the edit distance normalized by the longer string.
func ratio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	d := levenshtein.Distance(a, b, nil)
	return math.Max(0, 1-float64(d)/float64(longest))
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
