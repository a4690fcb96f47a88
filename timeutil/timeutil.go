// Package timeutil is the single conversion point between user-facing wall
// clock time and the canonical UTC instants used for storage and comparison.
// The unified timezone is UTC; Asia/Taipei (UTC+8) is used for any display
// purpose only.
package timeutil

import (
	"errors"
	"time"
)

const (
	// PickerLayout matches the datetime format LINE's datetime picker
	// produces and consumes.
	PickerLayout = "2006-01-02T15:04"
	// DisplayLayout is the format shown to users in reply messages.
	DisplayLayout = "2006-01-02 15:04"
)

var ErrInvalidFormat = errors.New("invalid datetime format, expected YYYY-MM-DDTHH:MM")

var local *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		// Taiwan has no DST, a fixed offset is equivalent.
		loc = time.FixedZone("UTC+8", 8*60*60)
	}
	local = loc
}

// ToUTC interprets a datetime picker string as Asia/Taipei wall clock time
// and returns the canonical UTC instant.
func ToUTC(s string) (time.Time, error) {
	t, err := time.ParseInLocation(PickerLayout, s, local)
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}
	return t.UTC(), nil
}

// DisplayString formats a canonical instant as Asia/Taipei wall clock time.
func DisplayString(t time.Time) string {
	return t.In(local).Format(DisplayLayout)
}

// PickerSeed converts a platform timestamp (milliseconds since epoch) to the
// initial value for a datetime picker. The result is never persisted.
func PickerSeed(epochMillis int64) string {
	return time.UnixMilli(epochMillis).In(local).Format(PickerLayout)
}

// Now is the clock used for all validation and poll-window comparisons.
func Now() time.Time {
	return time.Now().UTC()
}

// IsPast reports whether t is strictly earlier than the current UTC instant.
func IsPast(t time.Time) bool {
	return t.Before(Now())
}
