// Package cafe defines the workspace cafe record and the read-only
// collection the discovery pipeline filters over.
package cafe

import (
	"maps"
	"slices"
	"strings"
)

// PriceLevel is the symbolic price tier of a cafe.
type PriceLevel string

const (
	PriceBudget   PriceLevel = "$"
	PriceModerate PriceLevel = "$$"
	PricePremium  PriceLevel = "$$$"
)

// Valid reports whether p is one of the known tiers.
func (p PriceLevel) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PricePremium:
		return true
	}
	return false
}

// NoiseLevel is the ambient noise classification of a cafe.
type NoiseLevel string

const (
	NoiseQuiet    NoiseLevel = "quiet"
	NoiseModerate NoiseLevel = "moderate"
	NoiseLoud     NoiseLevel = "loud"
)

// ParseNoiseLevel normalizes s into a NoiseLevel. "lively" and "social" are
// accepted as spellings of loud.
func ParseNoiseLevel(s string) (NoiseLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return NoiseQuiet, true
	case "moderate":
		return NoiseModerate, true
	case "loud", "lively", "social":
		return NoiseLoud, true
	}
	return NoiseLevel(s), false
}

// Valid reports whether n is one of the known levels.
func (n NoiseLevel) Valid() bool {
	switch n {
	case NoiseQuiet, NoiseModerate, NoiseLoud:
		return true
	}
	return false
}

// UnmarshalText normalizes aliases while decoding JSON and YAML. Unknown
// values are kept verbatim so Validate can report them with context.
func (n *NoiseLevel) UnmarshalText(text []byte) error {
	level, _ := ParseNoiseLevel(string(text))
	*n = level
	return nil
}

// Offering is a named, priced item or package a cafe is known for.
type Offering struct {
	Name        string `json:"name" yaml:"name"`
	Price       string `json:"price" yaml:"price"`
	Description string `json:"description" yaml:"description"`
}

// Cafe is one discoverable workspace location.
type Cafe struct {
	ID                  string     `json:"id" yaml:"id"`
	Name                string     `json:"name" yaml:"name"`
	Rating              float64    `json:"rating" yaml:"rating"`
	ReviewCount         int        `json:"reviewCount" yaml:"reviewCount"`
	Distance            string     `json:"distance" yaml:"distance"`
	PriceLevel          PriceLevel `json:"priceLevel" yaml:"priceLevel"`
	WifiSpeedMbps       int        `json:"wifiSpeedMbps" yaml:"wifiSpeedMbps"`
	NoiseLevel          NoiseLevel `json:"noiseLevel" yaml:"noiseLevel"`
	HasPowerOutlets     bool       `json:"hasPowerOutlets" yaml:"hasPowerOutlets"`
	CurrentOccupancy    int        `json:"currentOccupancy" yaml:"currentOccupancy"`
	OnSiteProfessionals int        `json:"onSiteProfessionals" yaml:"onSiteProfessionals"`
	HasBookableSpace    bool       `json:"hasBookableSpace" yaml:"hasBookableSpace"`
	IsOpen              bool       `json:"isOpen" yaml:"isOpen"`
	Description         string     `json:"description" yaml:"description"`

	ImageURL     string            `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Address      string            `json:"address,omitempty" yaml:"address,omitempty"`
	Phone        string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website      string            `json:"website,omitempty" yaml:"website,omitempty"`
	OpeningHours map[string]string `json:"openingHours,omitempty" yaml:"openingHours,omitempty"`
	PopularItems []Offering        `json:"popularItems,omitempty" yaml:"popularItems,omitempty"`
	Latitude     float64           `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude    float64           `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	PlaceID      string            `json:"placeId,omitempty" yaml:"placeId,omitempty"`
}

// Clone returns a deep copy of c.
func (c Cafe) Clone() Cafe {
	out := c
	out.OpeningHours = maps.Clone(c.OpeningHours)
	out.PopularItems = slices.Clone(c.PopularItems)
	return out
}

// CloneAll deep-copies a slice of cafes.
func CloneAll(cafes []Cafe) []Cafe {
	if cafes == nil {
		return nil
	}
	out := make([]Cafe, len(cafes))
	for i, c := range cafes {
		out[i] = c.Clone()
	}
	return out
}
