package filter

import "github.com/soshbru/soshbru/pkg/cafe"

// Mode controls how several selected filters combine.
type Mode string

const (
	// MatchAny keeps a cafe that satisfies at least one selected filter.
	MatchAny Mode = "any"
	// MatchAll keeps a cafe only when it satisfies every selected filter.
	MatchAll Mode = "all"
)

// ParseMode accepts "any", "all" or "" (MatchAny).
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", MatchAny:
		return MatchAny, true
	case MatchAll:
		return MatchAll, true
	}
	return "", false
}

// Apply returns the cafes that match query and satisfy at least one selected
// filter, in input order. The query is a precondition: a cafe that fails it
// is excluded whatever the selection. The input is never modified.
func Apply(cafes []cafe.Cafe, query string, sel Selection) []cafe.Cafe {
	return ApplyMode(cafes, query, sel, MatchAny)
}

// ApplyMode is Apply with an explicit combination mode.
func ApplyMode(cafes []cafe.Cafe, query string, sel Selection, mode Mode) []cafe.Cafe {
	out := make([]cafe.Cafe, 0, len(cafes))
	for _, c := range cafes {
		if !MatchesQuery(c, query) {
			continue
		}
		if sel.IsAll() || matchSelection(c, sel.ids, mode) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func matchSelection(c cafe.Cafe, ids []ID, mode Mode) bool {
	if mode == MatchAll {
		for _, id := range ids {
			if !Match(c, id) {
				return false
			}
		}
		return true
	}
	for _, id := range ids {
		if Match(c, id) {
			return true
		}
	}
	return false
}

// Counts reports, for every catalog option, how many of the cafes matching
// query it would keep on its own. It backs the per-chip counters of a filter
// bar.
func Counts(cafes []cafe.Cafe, query string) map[ID]int {
	counts := make(map[ID]int, len(catalog))
	for _, o := range catalog {
		counts[o.ID] = 0
	}
	for _, c := range cafes {
		if !MatchesQuery(c, query) {
			continue
		}
		for _, o := range catalog {
			if Match(c, o.ID) {
				counts[o.ID]++
			}
		}
	}
	return counts
}
