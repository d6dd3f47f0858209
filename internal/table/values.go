package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	PeriodLayout   = "2006-01"
)

// DateLayouts is the ordered list of layouts tried when coercing date cells.
// Month-first layouts come before day-first ones.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2-Jan-2006",
	"Jan 2, 2006",
	"02.01.2006",
}

var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses a plain decimal or scientific-notation number. Thousands
// separators are not stripped. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f with the shortest representation that round-trips.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseDate tries every layout in DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	raw := strings.TrimSpace(s)
	for _, l := range DateLayouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePeriod parses a YYYY-MM period into the first instant of that month.
func ParsePeriod(s string) (time.Time, bool) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// InferNumbers converts every text column whose present cells all parse as
// numbers into a number column. Columns with no present cell stay text.
func InferNumbers(t *Table) *Table {
	out := t
	for _, c := range t.cols {
		if c.kind != Text {
			continue
		}
		nc, ok := asNumbers(c)
		if !ok {
			continue
		}
		out, _ = out.WithColumn(nc)
	}
	return out
}

func asNumbers(c *Column) (*Column, bool) {
	vals := make([]float64, c.Len())
	seen := false
	for i, s := range c.texts {
		if !c.valid[i] {
			continue
		}
		f, ok := ParseNumber(s)
		if !ok {
			return nil, false
		}
		vals[i] = f
		seen = true
	}
	if !seen {
		return nil, false
	}
	valid := make([]bool, len(c.valid))
	copy(valid, c.valid)
	return NewNumberColumn(c.name, vals, valid), true
}
