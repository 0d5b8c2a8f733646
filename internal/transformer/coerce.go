package transformer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NullDate is a calendar date that may be missing. Time is always midnight
// UTC when Valid is true.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// NullFloat is a float64 that may be missing.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// textLayouts are tried after the numeric fast path fails. Numeric day-first
// and month-first shapes are handled by parseNumericDate.
var textLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006 15:04:05",
}

var clockLayouts = []string{"15:04:05", "15:04", "15:04:05.999999999"}

// ParseDate converts a raw cell into a calendar date. Ambiguous numeric dates
// are read day-first ("03/04/2021" is 3 April 2021); when the day-first
// reading is impossible but the month-first one is valid ("12/31/2020") the
// month-first reading is used. Empty or malformed input yields an invalid
// NullDate, never an error. Any time of day is dropped.
func ParseDate(s string) NullDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullDate{}
	}

	datePart, clock := s, ""
	if i := strings.IndexAny(s, " T"); i > 0 {
		datePart, clock = s[:i], strings.TrimSpace(s[i+1:])
	}
	if t, ok := parseNumericDate(datePart); ok && validClock(clock) {
		return NullDate{Time: t, Valid: true}
	}

	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return NullDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
		}
	}
	return NullDate{}
}

func validClock(s string) bool {
	if s == "" {
		return true
	}
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// parseNumericDate handles "YYYY-M-D" (any of - / . as separator) and
// "D-M-YYYY" or "D-M-YY" with the month-first fallback. It does not allocate.
func parseNumericDate(s string) (time.Time, bool) {
	a, rest, ok := leadingInt(s)
	if !ok || len(rest) == 0 {
		return time.Time{}, false
	}
	sep := rest[0]
	if sep != '/' && sep != '-' && sep != '.' {
		return time.Time{}, false
	}
	b, rest, ok := leadingInt(rest[1:])
	if !ok || len(rest) == 0 || rest[0] != sep {
		return time.Time{}, false
	}
	c, rest, ok := leadingInt(rest[1:])
	if !ok || len(rest) != 0 {
		return time.Time{}, false
	}

	switch {
	case a.digits == 4 && b.digits <= 2 && c.digits <= 2:
		return civilDate(a.n, b.n, c.n)
	case a.digits <= 2 && b.digits <= 2 && (c.digits == 4 || c.digits == 2):
		y := c.n
		if c.digits == 2 {
			y = expandYear(y)
		}
		if t, ok := civilDate(y, b.n, a.n); ok {
			return t, true
		}
		return civilDate(y, a.n, b.n)
	}
	return time.Time{}, false
}

// expandYear maps a two-digit year the way time.Parse reads "06":
// 69-99 are 1969-1999, 00-68 are 2000-2068.
func expandYear(yy int) int {
	if yy >= 69 {
		return 1900 + yy
	}
	return 2000 + yy
}

type num struct {
	n      int
	digits int
}

func leadingInt(s string) (num, string, bool) {
	var v num
	for v.digits < len(s) && v.digits < 4 {
		c := s[v.digits] - '0'
		if c > 9 {
			break
		}
		v.n = v.n*10 + int(c)
		v.digits++
	}
	return v, s[v.digits:], v.digits > 0
}

// civilDate builds a UTC date and rejects overflow such as 31 February.
func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseNumber converts a raw numeric cell. It accepts surrounding spaces, a
// leading "$" (after an optional sign), and "," thousands separators when
// they form well-formed three-digit groups. Empty, malformed, NaN and
// infinite values yield an invalid NullFloat.
func ParseNumber(s string) NullFloat {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullFloat{}
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	if strings.IndexByte(s, ',') >= 0 {
		var ok bool
		if s, ok = stripThousands(s); !ok {
			return NullFloat{}
		}
	}
	f, err := strconv.ParseFloat(sign+s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: f, Valid: true}
}

// stripThousands removes "," group separators from the integer part of s.
func stripThousands(s string) (string, bool) {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if strings.IndexByte(frac, ',') >= 0 {
		return "", false
	}
	groups := strings.Split(intPart, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, "") + frac, true
}
