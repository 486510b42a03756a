package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyScenarios(t *testing.T) {
	cafes := twoCafes()

	tests := []struct {
		name  string
		query string
		sel   Selection
		want  []string
	}{
		{"fast wifi keeps both", "", Only(FastWifi), []string{"tech", "zen"}},
		{"open keeps tech hub", "", Only(Open), []string{"tech"}},
		{"search before all", "zen", Selection{}, []string{"zen"}},
		{"search with filter", "zen", Only(Open), []string{}},
		{"no search match", "library", Selection{}, []string{}},
		{"no search match with filters", "library", Only(FastWifi, Open), []string{}},
		{"or combines", "", Only(Open, QuietZone), []string{"tech", "zen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(cafes, tt.query, tt.sel)))
		})
	}
}

func TestApplyAllReturnsInput(t *testing.T) {
	cafes := loadCafes(t)
	got := Apply(cafes, "", Selection{})
	assert.Equal(t, cafes, got)
}

func TestApplyIsIdempotentAndPure(t *testing.T) {
	cafes := loadCafes(t)
	before := ids(cafes)
	sel := Only(QuietZone, Nearby)

	first := Apply(cafes, "work", sel)
	second := Apply(cafes, "work", sel)
	assert.Equal(t, first, second)
	assert.Equal(t, before, ids(cafes))

	first[0].Name = "changed"
	assert.NotEqual(t, "changed", cafes[0].Name)
}

func TestApplyOrUnion(t *testing.T) {
	cafes := loadCafes(t)

	// budget and 247 match disjoint cafes; the result is their union in
	// dataset order.
	assert.Equal(t, []string{"1", "6"}, ids(Apply(cafes, "", Only(Always, Budget))))
	assert.Equal(t, []string{"3", "5"}, ids(Apply(cafes, "", Only(Eco, Premium))))
}

func TestApplyMatchAll(t *testing.T) {
	cafes := loadCafes(t)

	sel := Only(QuietZone, Nearby)
	assert.Equal(t, []string{"1", "2", "3", "4", "6"}, ids(ApplyMode(cafes, "", sel, MatchAny)))
	assert.Equal(t, []string{"1", "6"}, ids(ApplyMode(cafes, "", sel, MatchAll)))
	assert.Equal(t, []string{"6"}, ids(ApplyMode(cafes, "night", sel, MatchAll)))
}

func TestApplyEmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, "", Only(Open)))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, MatchAny, m)

	m, ok = ParseMode("all")
	assert.True(t, ok)
	assert.Equal(t, MatchAll, m)

	_, ok = ParseMode("some")
	assert.False(t, ok)
}

func TestCounts(t *testing.T) {
	counts := Counts(loadCafes(t), "")
	assert.Equal(t, map[ID]int{
		All: 6, Open: 5, FastWifi: 6, UltraFastWifi: 2, QuietZone: 3,
		PowerOutlets: 6, LowOccupancy: 4, HighPro: 6, MeetingSpace: 5,
		Nearby: 4, Budget: 1, Premium: 1, Always: 1, Eco: 1,
	}, counts)

	counts = Counts(loadCafes(t), "zen")
	assert.Equal(t, 1, counts[All])
	assert.Equal(t, 0, counts[Open])
}
