// Package filter implements cafe discovery filtering: the filter catalog,
// per-filter predicates, free-text search, the user's filter selection and
// the engine that combines them into a result list.
package filter

// ID identifies one filter option. The set of IDs is closed: only the
// constants below are valid.
type ID string

const (
	All           ID = "all"
	Open          ID = "open"
	FastWifi      ID = "fastWifi"
	UltraFastWifi ID = "ultraFastWifi"
	QuietZone     ID = "quietZone"
	PowerOutlets  ID = "powerOutlets"
	LowOccupancy  ID = "lowOccupancy"
	HighPro       ID = "highPro"
	MeetingSpace  ID = "meetingSpace"
	Nearby        ID = "nearby"
	Budget        ID = "budget"
	Premium       ID = "premium"
	Always        ID = "247"
	Eco           ID = "eco"
)

// Option is a catalog entry as presented to users.
type Option struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
}

var catalog = []Option{
	{All, "All"},
	{Open, "Open Now"},
	{FastWifi, "Fast WiFi"},
	{UltraFastWifi, "Ultra Fast WiFi (500+ Mbps)"},
	{QuietZone, "Quiet Zone"},
	{PowerOutlets, "Power Available"},
	{LowOccupancy, "Low Occupancy"},
	{HighPro, "5+ Professionals"},
	{MeetingSpace, "Meeting Space"},
	{Nearby, "Within 1mi"},
	{Budget, "Budget Friendly ($)"},
	{Premium, "Premium ($$$)"},
	{Always, "24/7 Access"},
	{Eco, "Eco-Friendly"},
}

var catalogIndex = func() map[ID]int {
	idx := make(map[ID]int, len(catalog))
	for i, o := range catalog {
		idx[o.ID] = i
	}
	return idx
}()

// Catalog returns the filter options in display order.
func Catalog() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup validates a raw id against the catalog. Matching is exact.
func Lookup(raw string) (ID, bool) {
	id := ID(raw)
	_, ok := catalogIndex[id]
	return id, ok
}

// Valid reports whether id is in the catalog.
func (id ID) Valid() bool {
	_, ok := catalogIndex[id]
	return ok
}

// Label returns the display label, or the raw id when it is unknown.
func (id ID) Label() string {
	if i, ok := catalogIndex[id]; ok {
		return catalog[i].Label
	}
	return string(id)
}
