package cafe

import (
	"strings"
	"time"
)

// OpenAt reports whether hours, keyed by lower-case weekday name with
// values like "07:00-22:00" or "7:00 AM – 10:00 PM", include t. "24h",
// "Open 24 hours" and "00:00-24:00" mean all day; a closing time before the
// opening time runs past midnight. Days without an entry or with an
// unreadable range count as closed.
func OpenAt(hours map[string]string, t time.Time) bool {
	if len(hours) == 0 {
		return false
	}
	day := strings.ToLower(t.Weekday().String())
	minute := t.Hour()*60 + t.Minute()

	if from, to, ok := parseRange(hours[day]); ok {
		if from <= to && minute >= from && minute < to {
			return true
		}
		if from > to && minute >= from {
			return true
		}
	}

	// An overnight range from the previous day may still be running.
	prev := strings.ToLower(t.AddDate(0, 0, -1).Weekday().String())
	if from, to, ok := parseRange(hours[prev]); ok && from > to && minute < to {
		return true
	}
	return false
}

// rangeReplacer folds the dashes and narrow spaces Google Places uses
// ("7:00\u202fAM\u2009\u2013\u20096:00\u202fPM") onto plain ASCII.
var rangeReplacer = strings.NewReplacer(
	"\u2013", "-", "\u2014", "-",
	"\u202f", " ", "\u2009", " ", "\u00a0", " ",
)

func parseRange(s string) (from, to int, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(rangeReplacer.Replace(s)))
	switch s {
	case "24H", "24/7", "OPEN 24 HOURS":
		return 0, 24 * 60, true
	}
	a, b, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	// "1:00 - 5:00 PM" shares the meridiem of the closing time.
	if meridiem(a) == "" {
		if m := meridiem(b); m != "" {
			a += " " + m
		}
	}
	from, ok1 := parseClock(a)
	to, ok2 := parseClock(b)
	return from, to, ok1 && ok2
}

func meridiem(s string) string {
	switch {
	case strings.HasSuffix(s, "AM"):
		return "AM"
	case strings.HasSuffix(s, "PM"):
		return "PM"
	}
	return ""
}

var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"}

func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * 60, true
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}
