package filter

import "github.com/soshbru/soshbru/pkg/cafe"

// MatchesQuery reports whether q occurs in the cafe's name or description,
// ignoring case. The empty query matches everything.
func MatchesQuery(c cafe.Cafe, q string) bool {
	if q == "" {
		return true
	}
	return containsFold(c.Name, q) || containsFold(c.Description, q)
}
