package youtube

import (
	"regexp"
	"strconv"
	"time"
)

var (
	durationExpr = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)
	chapterExpr  = regexp.MustCompile(`(?m)^\s*\d+:\d+`)
)

// ParseDuration converts an ISO-8601 video duration (PT1H2M3S) to seconds.
// Malformed or empty input yields 0.
func ParseDuration(iso string) int {
	m := durationExpr.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
}

// HasChapters reports whether a description contains a chapter list,
// i.e. a line starting with a 0:00 style timestamp.
func HasChapters(description string) bool {
	return chapterExpr.MatchString(description)
}

func parsePublishedAt(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
