package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var hebrewMonths = [...]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// HebrewMonth returns the Hebrew name of m.
func HebrewMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return hebrewMonths[m-1]
}

// FormatMonth renders the month of t as "מרץ 2026".
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%s %d", HebrewMonth(t.Month()), t.Year())
}

var dateLayouts = []string{
	"2/1/2006",
	"2.1.2006",
	"2-1-2006",
	"2006-01-02",
	"2/1/06",
}

// ParseDate accepts day-first dates (31/12/2026, 31.12.2026) and ISO dates.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// ParseMonth accepts "03/2026", "2026-03", "מרץ 2026" or "March 2026" and
// returns the first day of that month. A full date resolves to its month.
func ParseMonth(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := ParseDate(s); err == nil {
		return firstOfMonth(t), nil
	}
	for _, layout := range []string{"1/2006", "2006-01", "January 2006", "Jan 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if name, year, ok := strings.Cut(s, " "); ok {
		for i, hm := range hebrewMonths {
			if name == hm {
				y, err := strconv.Atoi(strings.TrimSpace(year))
				if err != nil {
					break
				}
				return time.Date(y, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q", raw)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
