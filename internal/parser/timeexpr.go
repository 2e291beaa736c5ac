package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTickRate is the number of ticks per second when the document root
// declares none.
const DefaultTickRate = 10000

const tickSuffix = "t"

var (
	leadingInt   = regexp.MustCompile(`^\s*[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^\s*[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ParseTime converts a timed-text time expression into milliseconds.
//
// Three forms are understood:
//   - tick counts such as "12345t", scaled by tickRate
//   - clock times "HH:MM:SS.fff"
//   - plain numbers, taken as milliseconds
//
// Numeric prefixes are read leniently ("12abc" is 12). Malformed values yield 0.
// A tick expression under a non-positive tickRate yields NaN so the caller can
// drop the cue.
func ParseTime(raw string, tickRate int) float64 {
	if raw == "" {
		return 0
	}

	if strings.HasSuffix(raw, tickSuffix) {
		ticks, ok := parseLeadingInt(strings.TrimSuffix(raw, tickSuffix))
		if !ok {
			return 0
		}
		if tickRate <= 0 {
			return math.NaN()
		}
		return ticks / float64(tickRate) * 1000
	}

	if strings.Contains(raw, ":") {
		if parts := strings.Split(raw, ":"); len(parts) == 3 {
			hours, okH := parseLeadingInt(parts[0])
			minutes, okM := parseLeadingInt(parts[1])
			seconds, okS := parseLeadingFloat(parts[2])
			if !okH || !okM || !okS {
				return 0
			}
			return (hours*3600 + minutes*60 + seconds) * 1000
		}
	}

	value, ok := parseLeadingFloat(raw)
	if !ok {
		return 0
	}
	return value
}

// parseLeadingInt reads the integer prefix of s, ignoring leading whitespace.
func parseLeadingInt(s string) (float64, bool) {
	match := strings.TrimSpace(leadingInt.FindString(s))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLeadingFloat reads the decimal prefix of s, ignoring leading whitespace.
func parseLeadingFloat(s string) (float64, bool) {
	match := strings.TrimSpace(leadingFloat.FindString(s))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
