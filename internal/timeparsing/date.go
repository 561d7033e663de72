package timeparsing

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the only accepted date form: YYYY-MM-DD.
const DateLayout = "2006-01-02"

// isoDateRe pins the shape before time.Parse checks the calendar, so inputs
// like "2024-1-5" or "2024-01-05T00:00:00Z" are rejected rather than coerced.
var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses s as a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	if !isoDateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// IsDate returns true if s is a valid YYYY-MM-DD date.
func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate renders t in the accepted YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
