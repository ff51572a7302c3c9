// Package timezone wraps the MDS civil-time helper the pipeline treats as
// an external utility (spec: "a pre-existing MDS time-zone helper").
// Given a civil date/hour and a named zone, it produces the UTC instants
// that bound that one-hour block.
package timezone

import (
	"fmt"
	"time"
)

// DefaultZone is used when ConfigStore doesn't override it (spec.md §9:
// the source hardcodes "US/Central"; we keep it as the configurable
// default).
const DefaultZone = "America/Chicago"

// HourBounds returns the [start, end) UTC instants for one civil hour in
// the named zone. end - start is always exactly one hour; DST transitions
// are handled by time.Date/time.In, matching Go's civil-time semantics.
func HourBounds(zone string, year, month, day, hour int) (start, end time.Time, err error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("timezone: load location %q: %w", zone, err)
	}

	start = time.Date(year, time.Month(month), day, hour, 0, 0, 0, loc).UTC()
	end = start.Add(time.Hour)
	return start, end, nil
}

// UnixRange is a convenience wrapper returning epoch seconds instead of
// time.Time, matching the provider client's get_trips(start_time, end_time)
// signature.
func UnixRange(zone string, year, month, day, hour int) (startUnix, endUnix int64, err error) {
	start, end, err := HourBounds(zone, year, month, day, hour)
	if err != nil {
		return 0, 0, err
	}
	return start.Unix(), end.Unix(), nil
}

// DerivedFields computes t's year/month/hour/day-of-week in zone, or in
// DefaultZone when zone is empty.
func DerivedFields(t time.Time, zone string) (year, month, hour int, dayOfWeek string, err error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0, 0, 0, "", fmt.Errorf("timezone: load location %q: %w", zone, err)
	}
	local := t.In(loc)
	return local.Year(), int(local.Month()), local.Hour(), local.Weekday().String(), nil
}
