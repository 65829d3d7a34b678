// Package datekey converts user supplied dates into the canonical
// YYYY-MM-DD storage key and into comparable local-midnight instants.
//
// Accepted inputs are string, time.Time and *time.Time. All calendar math
// uses the local time zone: a timestamp taken at 21:30 in UTC-5 belongs to
// that local day even though its UTC day is the next one.
package datekey

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical storage format.
const Layout = "2006-01-02"

var canonicalKey = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// now is replaced in tests.
var now = time.Now

// zonedLayouts carry their own offset and are converted to local time.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
}

// localLayouts are interpreted in the local time zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
}

// IsCanonical reports whether s already has the YYYY-MM-DD shape.
func IsCanonical(s string) bool {
	return canonicalKey.MatchString(s)
}

// Today returns the current local date as a storage key.
func Today() string {
	return now().In(time.Local).Format(Layout)
}

// ToStorageKey returns the canonical key for v. Canonical strings are
// returned unchanged; anything unparseable falls back to today.
func ToStorageKey(v any) string {
	if key, ok := ParseKey(v); ok {
		return key
	}
	return Today()
}

// ParseKey is ToStorageKey without the fallback.
func ParseKey(v any) (string, bool) {
	if s, ok := v.(string); ok && IsCanonical(strings.TrimSpace(s)) {
		return strings.TrimSpace(s), true
	}

	t, ok := toTime(v)
	if !ok {
		return "", false
	}
	return t.In(time.Local).Format(Layout), true
}

// ToComparableInstant returns local midnight of the calendar day v falls on.
// The boolean is false for input that cannot be interpreted; callers exclude
// such values from range comparisons.
func ToComparableInstant(v any) (time.Time, bool) {
	if s, ok := v.(string); ok && IsCanonical(strings.TrimSpace(s)) {
		return fromCanonical(strings.TrimSpace(s))
	}

	t, ok := toTime(v)
	if !ok {
		return time.Time{}, false
	}
	return midnight(t), true
}

// Within reports whether v falls on a day in [start, end]. Invalid values
// are never within a range.
func Within(v, start, end any) bool {
	day, ok := ToComparableInstant(v)
	if !ok {
		return false
	}
	from, ok := ToComparableInstant(start)
	if !ok {
		return false
	}
	to, ok := ToComparableInstant(end)
	if !ok {
		return false
	}
	return !day.Before(from) && !day.After(to)
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		return parseString(strings.TrimSpace(val))
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return *val, true
	default:
		return time.Time{}, false
	}
}

func parseString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromCanonical builds the local midnight for a YYYY-MM-DD key. Out of range
// months or days roll over the way time.Date normalizes them.
func fromCanonical(key string) (time.Time, bool) {
	parts := strings.Split(key, "-")
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

func midnight(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
