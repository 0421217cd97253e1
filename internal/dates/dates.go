// Package dates normalizes user-supplied date strings and builds the list of
// dates a run should process.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Canonical is the date layout used everywhere: file names, queries, state.
const Canonical = "2006-01-02"

// Accepted input layouts, tried in order.
var layouts = []string{
	"2006-01-02",
	"20060102",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 02 2006",
	"02 Jan 2006",
	"January 02 2006",
	"02 January 2006",
}

var shortDatePattern = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)

// Normalize converts a date string in any accepted layout to YYYY-MM-DD.
func Normalize(s string) (string, error) {
	if m := shortDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		candidate := fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
		if t, err := time.Parse(Canonical, candidate); err == nil {
			return t.Format(Canonical), nil
		}
		return "", fmt.Errorf("invalid date %q", s)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(Canonical), nil
		}
	}
	return "", fmt.Errorf("date %q does not match any supported format", s)
}

// BuildRange returns every date from start to end inclusive, normalized.
// The range must run forward.
func BuildRange(start, end string) ([]string, error) {
	startNorm, err := Normalize(start)
	if err != nil {
		return nil, err
	}
	endNorm, err := Normalize(end)
	if err != nil {
		return nil, err
	}

	startT, _ := time.Parse(Canonical, startNorm)
	endT, _ := time.Parse(Canonical, endNorm)
	if endT.Before(startT) {
		return nil, fmt.Errorf("end date %s before start date %s", endNorm, startNorm)
	}

	var out []string
	for d := startT; !d.After(endT); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Canonical))
	}
	return out, nil
}

// Unique de-duplicates dates preserving first-seen order.
func Unique(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	var out []string
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
