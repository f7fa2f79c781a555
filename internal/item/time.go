package item

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrUnparsableTime = errors.New("unparsable timestamp")

// ParseTime parses a provider timestamp in any common layout and returns it
// in UTC. Strings without a zone are read as UTC.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparsableTime)
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparsableTime, raw, err)
	}
	return t.UTC(), nil
}

// FromUnix converts epoch seconds (possibly fractional) to UTC. Zero and
// negative values mean "no timestamp".
func FromUnix(secs float64) time.Time {
	if secs <= 0 {
		return time.Time{}
	}
	whole := int64(secs)
	nanos := int64((secs - float64(whole)) * 1e9)
	return time.Unix(whole, nanos).UTC()
}

// FromUnixMilli converts epoch milliseconds to UTC. Zero and negative values
// mean "no timestamp".
func FromUnixMilli(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
