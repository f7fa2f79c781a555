package filter

import "time"

// IsRecent reports whether ts falls inside the lookback window ending at
// now. A non-positive window disables filtering, and an undated item (zero
// ts) is always recent.
func IsRecent(ts time.Time, window time.Duration, now time.Time) bool {
	if window <= 0 || ts.IsZero() {
		return true
	}
	return now.Sub(ts) <= window
}

// Days converts a day count to a lookback window.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
