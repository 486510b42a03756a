package cafe

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Distance is a parsed distance string such as "0.3 mi".
type Distance struct {
	Value float64
	Unit  string
}

// ParseDistance reads the numeric prefix of s and treats the rest as a unit
// label. ok is false when s has no finite numeric prefix. The unit is not
// converted.
func ParseDistance(s string) (Distance, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	n := numericPrefixLen(s)
	if n == 0 {
		return Distance{}, false
	}

	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Distance{}, false
	}
	return Distance{Value: v, Unit: strings.TrimSpace(s[n:])}, true
}

// numericPrefixLen returns the length of the longest prefix of s that forms a
// decimal float: [+-]digits[.digits][(e|E)[+-]digits]. A lone sign or dot is
// not a number.
func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intDigits := countDigits(s[i:])
	i += intDigits

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if d := countDigits(s[j:]); d > 0 {
			i = j + d
		}
	}
	return i
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
