package filter

import (
	"strings"

	"github.com/soshbru/soshbru/pkg/cafe"
)

// Predicate decides whether a cafe satisfies one filter.
type Predicate func(c cafe.Cafe) bool

const (
	fastWifiMbps      = 100
	ultraFastWifiMbps = 500
	lowOccupancyMax   = 25
	highProMin        = 5
	nearbyMaxDistance = 1.0
)

// predicates holds one entry per catalog id except All, which the engine
// handles. Catalog coverage is enforced by tests.
var predicates = map[ID]Predicate{
	Open:          func(c cafe.Cafe) bool { return c.IsOpen },
	FastWifi:      func(c cafe.Cafe) bool { return c.WifiSpeedMbps >= fastWifiMbps },
	UltraFastWifi: func(c cafe.Cafe) bool { return c.WifiSpeedMbps >= ultraFastWifiMbps },
	QuietZone:     func(c cafe.Cafe) bool { return c.NoiseLevel == cafe.NoiseQuiet },
	PowerOutlets:  func(c cafe.Cafe) bool { return c.HasPowerOutlets },
	LowOccupancy:  func(c cafe.Cafe) bool { return c.CurrentOccupancy <= lowOccupancyMax },
	HighPro:       func(c cafe.Cafe) bool { return c.OnSiteProfessionals >= highProMin },
	MeetingSpace:  func(c cafe.Cafe) bool { return c.HasBookableSpace },
	Nearby:        isNearby,
	Budget:        func(c cafe.Cafe) bool { return c.PriceLevel == cafe.PriceBudget },
	Premium:       func(c cafe.Cafe) bool { return c.PriceLevel == cafe.PricePremium },
	Always: func(c cafe.Cafe) bool {
		return containsFold(c.Name, "24/7") || containsFold(c.Description, "24/7")
	},
	Eco: func(c cafe.Cafe) bool { return containsFold(c.Description, "eco") },
}

// Match reports whether c satisfies the filter id. All matches every cafe;
// an unknown id matches nothing.
func Match(c cafe.Cafe, id ID) bool {
	if id == All {
		return true
	}
	p, ok := predicates[id]
	if !ok {
		return false
	}
	return p(c)
}

// isNearby never matches a distance that does not parse.
func isNearby(c cafe.Cafe) bool {
	d, ok := cafe.ParseDistance(c.Distance)
	return ok && d.Value <= nearbyMaxDistance
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
