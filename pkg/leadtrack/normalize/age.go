package normalize

import (
	"fmt"
	"strings"
	"time"
)

// birthDateLayouts are tried in order by ParseBirthDate.
var birthDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"02/01/2006",
}

// ParseBirthDate parses a birth date as a calendar date in loc.
// It accepts YYYY-MM-DD, RFC 3339 timestamps, and DD/MM/YYYY.
func ParseBirthDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse birth date: empty")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range birthDateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse birth date %q: unrecognized format", s)
}

// AgeOn returns the age in whole years of someone born on birth, as of today.
// A birthday that has not yet occurred this year does not count.
func AgeOn(birth, today time.Time) int {
	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()

	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}
