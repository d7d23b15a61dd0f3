package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
)

// naiveLayouts are accepted by ParseInstant and interpreted in the reference zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	constants.DateFormat,
}

// DayBoundary buckets instants into calendar days of a fixed reference zone.
// The zone is a fixed offset; DST-aware per-user zones are not modeled.
type DayBoundary struct {
	loc *time.Location
}

// DateRange is a resolved, inclusive [Start, End] window.
type DateRange struct {
	Name  constants.RangeName
	Start time.Time
	End   time.Time
}

// NewDayBoundary returns a normalizer for loc. A nil loc means UTC.
func NewDayBoundary(loc *time.Location) DayBoundary {
	if loc == nil {
		loc = time.UTC
	}
	return DayBoundary{loc: loc}
}

// Location returns the reference zone.
func (b DayBoundary) Location() *time.Location {
	if b.loc == nil {
		return time.UTC
	}
	return b.loc
}

// StartOfDay floors t to 00:00:00.000 of its calendar day in the reference zone.
func (b DayBoundary) StartOfDay(t time.Time) time.Time {
	local := t.In(b.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, b.Location())
}

// EndOfDay ceilings t to 23:59:59.999 of its calendar day in the reference zone.
func (b DayBoundary) EndOfDay(t time.Time) time.Time {
	return b.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// DayKey returns the YYYY-MM-DD bucket key t belongs to.
func (b DayBoundary) DayKey(t time.Time) string {
	return t.In(b.Location()).Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD bucket key back to its start-of-day instant.
func (b DayBoundary) ParseDay(key string) (time.Time, error) {
	return time.ParseInLocation(constants.DateFormat, key, b.Location())
}

// AddDays shifts a bucket key by n calendar days.
func (b DayBoundary) AddDays(key string, n int) (string, error) {
	day, err := b.ParseDay(key)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// ParseInstant accepts an ISO-8601 date or datetime. Values without an
// explicit offset are read in the reference zone.
func (b DayBoundary) ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, b.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q: expected YYYY-MM-DD or an ISO-8601 datetime", value)
}

// ResolveRange converts a range name into canonical start/end instants
// relative to now. customStart and customEnd are only read for RangeCustom.
func (b DayBoundary) ResolveRange(name constants.RangeName, now time.Time, customStart, customEnd *time.Time) (DateRange, error) {
	local := now.In(b.Location())
	r := DateRange{Name: name, End: b.EndOfDay(local)}

	switch name {
	case constants.RangeDaily:
		r.Start = b.StartOfDay(local)
	case constants.RangeWeekly:
		r.Start = b.StartOfDay(local.AddDate(0, 0, -6))
	case constants.RangeMonthToDate:
		r.Start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, b.Location())
	case constants.RangeYearToDate:
		r.Start = time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, b.Location())
	case constants.RangeCustom:
		if customStart == nil || customEnd == nil {
			return DateRange{}, lerrors.InvalidRangef("custom range requires both start and end")
		}
		if customStart.After(*customEnd) {
			return DateRange{}, lerrors.InvalidRangef("start %s is after end %s",
				customStart.Format(time.RFC3339), customEnd.Format(time.RFC3339))
		}
		r.Start = b.StartOfDay(*customStart)
		r.End = b.EndOfDay(*customEnd)
	default:
		return DateRange{}, lerrors.InvalidRangef("unknown range %q", name)
	}

	return r, nil
}

// ParseRangeName maps a request token to a RangeName.
func ParseRangeName(token string) (constants.RangeName, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "daily", "day", "today":
		return constants.RangeDaily, nil
	case "weekly", "week":
		return constants.RangeWeekly, nil
	case "mtd", "month", "monthly":
		return constants.RangeMonthToDate, nil
	case "ytd", "year", "yearly":
		return constants.RangeYearToDate, nil
	case "custom":
		return constants.RangeCustom, nil
	}
	return "", lerrors.InvalidRangef("unknown range %q", token)
}

// Days returns the number of calendar days the range spans.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// Keys returns the first and last day-bucket keys of the range.
func (r DateRange) Keys() (string, string) {
	return r.Start.Format(constants.DateFormat), r.End.Format(constants.DateFormat)
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
