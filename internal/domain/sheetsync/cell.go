package sheetsync

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sheetEpoch is the day-zero of spreadsheet serial dates (the 1900 date
// system with its leap-year quirk already folded in).
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial values are only treated as dates when they land in a plausible
// multi-year window; anything outside is a quantity or price, not a date.
const (
	minPlausibleSerial = 20000 // mid-1954
	maxPlausibleSerial = 80000 // early 2119
)

// DateLiteral is an explicit structured date as some sources encode it.
// Month0 is 0-based.
type DateLiteral struct {
	Year   int
	Month0 int
	Day    int
}

// Cell is one value of the fetched grid: the raw typed value plus the
// source's optional pre-formatted display string.
type Cell struct {
	Value     any
	Formatted string
}

// IsEmpty returns true when the cell carries neither a value nor a
// formatted string
func (c Cell) IsEmpty() bool {
	return c.StringValue() == ""
}

// StringValue extracts the cell as text: the formatted representation when
// present, else the raw value stringified, else "".
func (c Cell) StringValue() string {
	if s := strings.TrimSpace(c.Formatted); s != "" {
		return s
	}
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case DateLiteral:
		return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month0+1, v.Day)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// NumberValue extracts the cell as a number, defaulting to 0 when nothing
// parseable is found
func (c Cell) NumberValue() float64 {
	switch v := c.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	s := c.StringValue()
	if s == "" {
		return 0
	}
	// Tolerate comma decimals and embedded spaces ("1 250,50")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

// DateValue extracts the cell as a calendar date. Resolution order: explicit
// structured literal, numeric day-count serial within the plausible window,
// free-text parsing. A bad date degrades to the fallback rather than
// aborting the row.
func (c Cell) DateValue(fallback time.Time) time.Time {
	switch v := c.Value.(type) {
	case DateLiteral:
		return time.Date(v.Year, time.Month(v.Month0+1), v.Day, 0, 0, 0, 0, time.UTC)
	case float64:
		if t, ok := serialToDate(v); ok {
			return t
		}
	case int:
		if t, ok := serialToDate(float64(v)); ok {
			return t
		}
	}

	if t, ok := parseTextDate(c.StringValue()); ok {
		return t
	}
	return fallback
}

// serialToDate converts a spreadsheet day-count serial to a date
func serialToDate(serial float64) (time.Time, bool) {
	if serial < minPlausibleSerial || serial > maxPlausibleSerial {
		return time.Time{}, false
	}
	days := int(serial)
	return sheetEpoch.AddDate(0, 0, days), true
}

// parseTextDate parses ISO-like text first, then day/month/year with "/",
// "-" or "." separators. Two-digit years are assumed to be 2000+.
func parseTextDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	var sep string
	for _, cand := range []string{"/", "-", "."} {
		if strings.Contains(s, cand) {
			sep = cand
			break
		}
	}
	if sep == "" {
		return time.Time{}, false
	}

	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
