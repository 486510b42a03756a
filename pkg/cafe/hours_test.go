package cafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenAt(t *testing.T) {
	hours := map[string]string{
		"monday":   "07:00-22:00",
		"friday":   "20:00-02:00",
		"saturday": "10:00-18:00",
		"thursday": "24h",
		"sunday":   "closed",
	}
	// 2024-05-06 is a Monday.
	at := func(day, hour, minute int) time.Time {
		return time.Date(2024, 5, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday morning", at(6, 7, 0), true},
		{"monday before open", at(6, 6, 59), false},
		{"monday at close", at(6, 22, 0), false},
		{"tuesday has no entry", at(7, 12, 0), false},
		{"friday late", at(10, 23, 30), true},
		{"saturday after friday overnight", at(11, 1, 30), true},
		{"saturday afternoon", at(11, 15, 0), true},
		{"saturday after overnight ends", at(11, 3, 0), false},
		{"thursday all day", at(9, 3, 0), true},
		{"sunday unreadable", at(12, 12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OpenAt(hours, tt.t))
		})
	}

	assert.False(t, OpenAt(nil, at(6, 12, 0)))
}

func TestOpenAtPlacesHours(t *testing.T) {
	// weekday_text values as Places returns them.
	hours := map[string]string{
		"monday":    "7:00\u202fAM\u2009\u2013\u20096:00\u202fPM",
		"tuesday":   "7:00 AM – 6:00 PM",
		"wednesday": "1:00 – 5:00 PM",
		"thursday":  "Open 24 hours",
		"friday":    "6:00 PM – 12:00 AM",
		"saturday":  "Closed",
	}
	at := func(day, hour, minute int) time.Time {
		return time.Date(2024, 5, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"narrow spaces and en dash", at(6, 17, 59), true},
		{"after pm close", at(6, 18, 0), false},
		{"plain en dash", at(7, 7, 0), true},
		{"before am open", at(7, 6, 30), false},
		{"shared meridiem", at(8, 14, 0), true},
		{"shared meridiem morning", at(8, 2, 0), false},
		{"open 24 hours", at(9, 4, 0), true},
		{"until midnight", at(10, 23, 59), true},
		{"closed", at(11, 12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OpenAt(hours, tt.t))
		})
	}
}
