// Package timeparsing turns the date expressions accepted on the command line
// into calendar dates. Three forms are tried in order:
//
//  1. an ISO date (2024-01-15), see ParseDate
//  2. a compact offset from a base date (+2w, -1d, 3m)
//  3. a natural-language phrase (tomorrow, next monday)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// offsetRe matches [+-]?(\d+)([dwmy]). No sign means forward.
var offsetRe = regexp.MustCompile(`^([+-]?)(\d+)([dwmy])$`)

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseOffset applies a compact offset to base:
//
//   - "+1d" -> base + 1 day
//   - "-2w" -> base - 2 weeks
//   - "3m"  -> base + 3 months
//   - "1y"  -> base + 1 year
func ParseOffset(s string, base time.Time) (time.Time, error) {
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a date offset: %q", s)
	}
	amount, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid offset amount: %q", m[2])
	}
	if m[1] == "-" {
		amount = -amount
	}
	return applyOffset(base, amount, m[3]), nil
}

func applyOffset(base time.Time, amount int, unit string) time.Time {
	switch unit {
	case "d":
		return base.AddDate(0, 0, amount)
	case "w":
		return base.AddDate(0, 0, amount*7)
	case "m":
		return base.AddDate(0, amount, 0)
	default:
		return base.AddDate(amount, 0, 0)
	}
}

// IsOffset returns true if s is a compact offset.
func IsOffset(s string) bool {
	return offsetRe.MatchString(s)
}

// ParseNaturalLanguage reads phrases like "tomorrow" or "next friday"
// relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("not a recognized date: %q", s)
	}
	return r.Time, nil
}

// ResolveDate reduces any accepted form to YYYY-MM-DD. Offsets and phrases
// are taken relative to base.
func ResolveDate(s string, base time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if IsDate(s) {
		return s, nil
	}
	if IsOffset(s) {
		t, err := ParseOffset(s, base)
		if err != nil {
			return "", err
		}
		return FormatDate(t), nil
	}
	t, err := ParseNaturalLanguage(s, base)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD, an offset like +2w, or a phrase like tomorrow", s)
	}
	return FormatDate(t), nil
}
