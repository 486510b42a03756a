package places

import (
	"fmt"
	"math"
	"strings"

	"github.com/soshbru/soshbru/pkg/cafe"
)

const earthRadiusMiles = 3958.8

// ToCafe maps a place onto the cafe record. Attributes Places does not
// know about (wifi, noise, occupancy) are left at neutral values. When
// origin is set, Distance is the great-circle distance from it in miles.
func ToCafe(p Place, origin *LatLng) cafe.Cafe {
	c := cafe.Cafe{
		ID:          "place:" + p.PlaceID,
		PlaceID:     p.PlaceID,
		Name:        p.Name,
		Rating:      math.Min(math.Max(p.Rating, 0), 5),
		ReviewCount: max(p.UserRatingsTotal, 0),
		PriceLevel:  priceLevel(p.PriceLevel),
		NoiseLevel:  cafe.NoiseModerate,
		Address:     firstNonEmpty(p.FormattedAddress, p.Vicinity),
		Phone:       p.FormattedPhoneNumber,
		Website:     p.Website,
		Latitude:    p.Geometry.Location.Lat,
		Longitude:   p.Geometry.Location.Lng,
		Description: strings.Join(readableTypes(p.Types), ", "),
	}
	if p.OpeningHours != nil {
		c.IsOpen = p.OpeningHours.OpenNow
		c.OpeningHours = weekdayHours(p.OpeningHours.WeekdayText)
	}
	if origin != nil {
		d := haversineMiles(*origin, p.Geometry.Location)
		c.Distance = fmt.Sprintf("%.1f mi", d)
	}
	return c
}

// priceLevel folds the 0-4 Places scale onto three tiers. Unknown is
// treated as moderate.
func priceLevel(level *int) cafe.PriceLevel {
	if level == nil {
		return cafe.PriceModerate
	}
	switch {
	case *level <= 1:
		return cafe.PriceBudget
	case *level == 2:
		return cafe.PriceModerate
	default:
		return cafe.PricePremium
	}
}

// weekdayHours turns "Monday: 7:00 AM – 6:00 PM" lines into a map.
func weekdayHours(lines []string) map[string]string {
	if len(lines) == 0 {
		return nil
	}
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		day, hours, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(day))] = strings.TrimSpace(hours)
	}
	return out
}

func readableTypes(types []string) []string {
	var out []string
	for _, t := range types {
		if t == "point_of_interest" || t == "establishment" {
			continue
		}
		out = append(out, strings.ReplaceAll(t, "_", " "))
	}
	return out
}

func haversineMiles(a, b LatLng) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
