// Package geo normalizes free-text US state names to two-letter codes.
package geo

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// StateCodes maps the 50 US states and the District of Columbia to their
// postal codes.
var StateCodes = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR", "California": "CA",
	"Colorado": "CO", "Connecticut": "CT", "Delaware": "DE", "District of Columbia": "DC",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID", "Illinois": "IL",
	"Indiana": "IN", "Iowa": "IA", "Kansas": "KS", "Kentucky": "KY", "Louisiana": "LA",
	"Maine": "ME", "Maryland": "MD", "Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN",
	"Mississippi": "MS", "Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK", "Oregon": "OR",
	"Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC", "South Dakota": "SD",
	"Tennessee": "TN", "Texas": "TX", "Utah": "UT", "Vermont": "VT", "Virginia": "VA",
	"Washington": "WA", "West Virginia": "WV", "Wisconsin": "WI", "Wyoming": "WY",
}

var lowerStateCodes = func() map[string]string {
	m := make(map[string]string, len(StateCodes))
	for k, v := range StateCodes {
		m[strings.ToLower(k)] = v
	}
	return m
}()

var reCode = regexp.MustCompile(`^[A-Z]{2}$`)

const (
	sampleSize     = 50
	codedThreshold = 0.6
)

// IsRegionCode reports whether s is exactly two upper-case ASCII letters.
// Callers check this before strict lookups such as a choropleth.
func IsRegionCode(s string) bool { return reCode.MatchString(s) }

// ToRegionCodes maps state names to codes. When more than 60% of the first
// 50 present values already look like codes, every value is only upper-cased,
// missing tokens included ("nan" becomes "NAN"). Names match exactly first,
// then case-insensitively after trimming. Unmapped names pass through unchanged.
func ToRegionCodes(values []string) []string {
	out := make([]string, len(values))
	if alreadyCoded(values) {
		for i, v := range values {
			out[i] = strings.ToUpper(v)
		}
		return out
	}
	for i, v := range values {
		out[i] = v
		if table.IsMissing(v) {
			continue
		}
		if code, ok := StateCodes[v]; ok {
			out[i] = code
		} else if code, ok := lowerStateCodes[strings.ToLower(strings.TrimSpace(v))]; ok {
			out[i] = code
		}
	}
	return out
}

func alreadyCoded(values []string) bool {
	n, coded := 0, 0
	for _, v := range values {
		if table.IsMissing(v) {
			continue
		}
		n++
		if IsRegionCode(v) {
			coded++
		}
		if n == sampleSize {
			break
		}
	}
	return n > 0 && float64(coded)/float64(n) > codedThreshold
}

var usaAliases = map[string]bool{
	"united states":            true,
	"united states of america": true,
	"usa":                      true,
	"us":                       true,
	"u.s.":                     true,
	"u.s.a.":                   true,
}

// IsUSA reports whether a country value names the United States.
func IsUSA(country string) bool {
	return usaAliases[strings.ToLower(strings.TrimSpace(country))]
}
