package filter

import (
	"encoding/json"
	"slices"
	"strings"
)

// Selection is the set of filters a user has switched on. It is either the
// All selection (the zero value) or a non-empty set of specific filters that
// never contains All. Selections are values: every operation returns a new
// one and leaves the receiver untouched.
type Selection struct {
	ids []ID
}

// Initialize builds a selection from requested ids. Unknown ids are
// dropped; an "all" among specific ids is absorbed by them. Nothing valid
// left means All.
func Initialize(raw []string) Selection {
	var ids []ID
	for _, r := range raw {
		id, ok := Lookup(r)
		if !ok || id == All || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return Selection{ids: ids}
}

// Only returns the selection holding exactly ids, or All when ids is empty.
func Only(ids ...ID) Selection {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return Initialize(raw)
}

// Toggle flips one filter. Unknown ids leave the selection unchanged and
// report false. Toggling All resets to All; toggling the last specific
// filter off also falls back to All.
func (s Selection) Toggle(raw string) (Selection, bool) {
	id, ok := Lookup(raw)
	if !ok {
		return s, false
	}
	if id == All {
		return Selection{}, true
	}

	if i := slices.Index(s.ids, id); i >= 0 {
		return Selection{ids: slices.Delete(slices.Clone(s.ids), i, i+1)}, true
	}
	next := make([]ID, 0, len(s.ids)+1)
	next = append(next, s.ids...)
	return Selection{ids: append(next, id)}, true
}

// IsAll reports whether no specific filter is selected.
func (s Selection) IsAll() bool {
	return len(s.ids) == 0
}

// Contains reports whether id is selected. All is contained only in the All
// selection.
func (s Selection) Contains(id ID) bool {
	if id == All {
		return s.IsAll()
	}
	return slices.Contains(s.ids, id)
}

// IDs returns the selected ids in the order they were switched on, or
// [All].
func (s Selection) IDs() []ID {
	if s.IsAll() {
		return []ID{All}
	}
	return slices.Clone(s.ids)
}

// Strings is IDs as plain strings.
func (s Selection) Strings() []string {
	ids := s.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Equal compares two selections as sets.
func (s Selection) Equal(o Selection) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for _, id := range s.ids {
		if !slices.Contains(o.ids, id) {
			return false
		}
	}
	return true
}

func (s Selection) String() string {
	return strings.Join(s.Strings(), ",")
}

// MarshalJSON encodes the selection as its id list.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an id list with Initialize semantics.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Initialize(raw)
	return nil
}
