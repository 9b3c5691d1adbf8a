package phase

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Target date layouts, tried in order after the keyword and offset forms.
var targetLayouts = []string{"1/2/2006", "1/2/06", "2006-1-2"}

// ParseTarget parses a loose, user-facing date relative to today.
//
// Accepted forms: "today"/"now", "yesterday", "tomorrow", signed day
// offsets ("+3", "-2"), and MM/DD/YYYY, MM/DD/YY, YYYY-MM-DD. An empty
// string means today. Unparsable input returns today together with a
// non-nil error describing the fallback.
func ParseTarget(s string, today time.Time) (time.Time, error) {
	today = Day(today)
	txt := strings.ToLower(strings.TrimSpace(s))

	switch txt {
	case "", "today", "now":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if (txt[0] == '+' || txt[0] == '-') && isDigits(txt[1:]) {
		if n, err := strconv.Atoi(txt); err == nil {
			return today.AddDate(0, 0, n), nil
		}
	}

	for _, layout := range targetLayouts {
		if t, err := time.Parse(layout, txt); err == nil {
			return Day(t), nil
		}
	}

	return today, fmt.Errorf("could not parse date %q, falling back to today", s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
