package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reRelativeAge = regexp.MustCompile(`(?i)(\d+)\s*(hour|day|week|month)s?\s+ago`)

// RelativeDate parses board-style relative-age strings ("3 days ago",
// "2 weeks ago") against now. Total: unrecognized text returns now.
func RelativeDate(text string, now time.Time) time.Time {
	m := reRelativeAge.FindStringSubmatch(text)
	if len(m) != 3 {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	switch strings.ToLower(m[2]) {
	case "hour":
		return now
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	}
	return now
}
