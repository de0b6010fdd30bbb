package souqfeed

import (
	"fmt"
	"time"
)

// Relative-age labels, matching the strings the feed has always shown.
const (
	timeAgoUnknown = "غير معروف"
	timeAgoNow     = "الآن"
)

// FormatTimeAgo renders the elapsed time since value as a relative-age
// label: "now" under a minute, then minutes, hours, and days, and an
// absolute calendar date once a post is a week old.
//
// value may be epoch milliseconds as any numeric type, a structured server
// timestamp mapping {"seconds": N}, or a time.Time. The store's timestamp
// shape is not uniform across writers, so an unrecognized or missing value
// degrades to an "unknown" label instead of failing.
func FormatTimeAgo(value any, now time.Time) string {
	ts := anyToTime(value)
	if ts.IsZero() {
		return timeAgoUnknown
	}

	elapsed := now.Sub(ts)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < time.Minute:
		return timeAgoNow
	case elapsed < time.Hour:
		return fmt.Sprintf("منذ %d دقيقة", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("منذ %d ساعة", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("منذ %d يوم", int(elapsed.Hours()/24))
	default:
		return ts.Format("02/01/2006")
	}
}
