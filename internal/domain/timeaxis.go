package domain

import (
	"math"
	"time"
)

// Archives publish their time coordinate as hours elapsed since a fixed
// initialization date rather than absolute timestamps. All temporal
// filtering happens in that relative-hours space; the inverse conversion is
// applied exactly once, after every archive has been fetched and merged.
//
// Both vintages of a catalog entry share a single init date by construction
// (init_date is a column of the catalog row, not a property of the URL).
// An archive pair with genuinely different epochs cannot be represented.

// RelativeHours converts an absolute time to an hour offset on the archive
// axis anchored at init.
func RelativeHours(t, init time.Time) float64 {
	return t.Sub(init).Hours()
}

// AbsoluteTime converts an hour offset on the archive axis anchored at init
// back to an absolute UTC timestamp. Offsets are rounded to whole seconds,
// which is exact for every axis the catalog describes (hourly resolution or
// coarser).
func AbsoluteTime(hours float64, init time.Time) time.Time {
	secs := math.Round(hours * 3600)
	return init.Add(time.Duration(secs) * time.Second).UTC()
}
