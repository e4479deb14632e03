// Package slot holds appointment time rules: the storage time zone, slot width and the conflict window.
package slot

import (
	"fmt"
	"time"
)

// Appointments are stored as wall clock time of this fixed zone
var StorageZone = time.FixedZone("UTC+3", 3*60*60)

// Every appointment occupies [start, start+Duration)
const Duration = 30 * time.Minute

// Layouts with zone offset are tried first, so an offset is never dropped silently
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
	}
)

// Normalize converts t to the storage time
//
// If zoned is true t is an absolute instant: it is converted to StorageZone and the zone is stripped.
// Otherwise t wall clock is taken as StorageZone wall clock as is.
// Result always has time.UTC location, which is meaningless: only wall clock matters.
func Normalize(t time.Time, zoned bool) time.Time {
	if zoned {
		t = t.In(StorageZone)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Parse ISO 8601 date time with or without zone offset and normalize it to the storage time
func Parse(value string) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Normalize(t, true), nil
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Normalize(t, false), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date time %q, ISO 8601 expected", value)
}

// Window returns [from, to): an appointment starting in it conflicts with the one starting at start
// The window is two slots wide, so back to back appointments conflict too
func Window(start time.Time) (from time.Time, to time.Time) {
	return start.Add(-Duration), start.Add(Duration)
}
