package cafe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

func TestLoadDefault(t *testing.T) {
	col, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, 6, col.Len())

	names := make([]string, 0, col.Len())
	for _, c := range col.All() {
		names = append(names, c.Name)
		assert.True(t, c.HasPowerOutlets, c.Name)
		assert.Len(t, c.PopularItems, 1, c.Name)
	}
	assert.Equal(t, []string{
		"The Digital Den", "Creative Commons", "Zen Zone",
		"Tech Hub", "Green Oasis", "Night Owl Studio",
	}, names)

	zen, ok := col.Get("3")
	require.True(t, ok)
	assert.Equal(t, PricePremium, zen.PriceLevel)
	assert.Equal(t, NoiseQuiet, zen.NoiseLevel)
	assert.False(t, zen.IsOpen)
	assert.Equal(t, 500, zen.WifiSpeedMbps)

	_, ok = col.Get("missing")
	assert.False(t, ok)
}

func TestCollectionIsImmutable(t *testing.T) {
	col, err := LoadDefault()
	require.NoError(t, err)

	all := col.All()
	all[0].Name = "mutated"
	all[0].PopularItems[0].Name = "mutated"

	first, _ := col.Get("1")
	assert.Equal(t, "The Digital Den", first.Name)
	assert.Equal(t, "Power Package", first.PopularItems[0].Name)
}

func TestCollectionAsSource(t *testing.T) {
	col, err := LoadDefault()
	require.NoError(t, err)

	cafes, err := col.Cafes(context.Background())
	require.NoError(t, err)
	assert.Len(t, cafes, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = col.Cafes(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	valid := Cafe{ID: "a", Name: "A", Rating: 4, PriceLevel: PriceBudget, NoiseLevel: NoiseQuiet}

	tests := []struct {
		name   string
		mutate func(c *Cafe)
	}{
		{"empty id", func(c *Cafe) { c.ID = "" }},
		{"rating too high", func(c *Cafe) { c.Rating = 5.1 }},
		{"negative rating", func(c *Cafe) { c.Rating = -1 }},
		{"rating not a number", func(c *Cafe) { c.Rating = math.NaN() }},
		{"negative reviews", func(c *Cafe) { c.ReviewCount = -1 }},
		{"negative occupancy", func(c *Cafe) { c.CurrentOccupancy = -3 }},
		{"negative professionals", func(c *Cafe) { c.OnSiteProfessionals = -1 }},
		{"negative wifi", func(c *Cafe) { c.WifiSpeedMbps = -1 }},
		{"bad price", func(c *Cafe) { c.PriceLevel = "$$$$" }},
		{"bad noise", func(c *Cafe) { c.NoiseLevel = "deafening" }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), errors.ErrInvalidInput)
		})
	}

	err := Validate([]Cafe{valid, valid})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestDecodeNormalizesNoise(t *testing.T) {
	data := []byte(`
cafes:
  - id: x
    name: Loud Place
    rating: 3
    distance: 2 mi
    priceLevel: "$$"
    noiseLevel: Lively
`)
	col, err := Decode(data)
	require.NoError(t, err)
	c, _ := col.Get("x")
	assert.Equal(t, NoiseLoud, c.NoiseLevel)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cafes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cafes:\n  - id: a\n    name: A\n    rating: 9\n    priceLevel: $\n    noiseLevel: quiet\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	col, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, col.Len())
}

func TestFind(t *testing.T) {
	col, err := LoadDefault()
	require.NoError(t, err)

	c, err := Find(col.All(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Tech Hub", c.Name)

	_, err = Find(col.All(), "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
