package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
)

var ist = time.FixedZone("+05:30", 5*3600+30*60)

func TestStartAndEndOfDay(t *testing.T) {
	b := NewDayBoundary(ist)

	instants := []time.Time{
		time.Date(2025, 3, 10, 0, 0, 0, 0, ist),
		time.Date(2025, 3, 10, 23, 59, 59, 999_000_000, ist),
		time.Date(2025, 3, 10, 12, 34, 56, 0, ist),
		// 20:00 UTC on the 9th is 01:30 on the 10th in IST
		time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC),
	}

	for _, ts := range instants {
		start := b.StartOfDay(ts)
		end := b.EndOfDay(ts)

		if start.After(ts) || end.Before(ts) {
			t.Errorf("instant %v not within [%v, %v]", ts, start, end)
		}
		if !b.StartOfDay(start).Equal(start) {
			t.Errorf("StartOfDay not idempotent for %v", ts)
		}
		if got := b.DayKey(ts); got != "2025-03-10" {
			t.Errorf("DayKey(%v) = %s, want 2025-03-10", ts, got)
		}
		if end.Sub(start) != 24*time.Hour-time.Millisecond {
			t.Errorf("day span = %v", end.Sub(start))
		}
	}
}

func TestResolveRange(t *testing.T) {
	b := NewDayBoundary(time.UTC)
	now := time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		rangeName constants.RangeName
		wantStart string
		wantDays  int
	}{
		{name: "daily", rangeName: constants.RangeDaily, wantStart: "2025-03-10", wantDays: 1},
		{name: "weekly is rolling", rangeName: constants.RangeWeekly, wantStart: "2025-03-04", wantDays: 7},
		{name: "month to date", rangeName: constants.RangeMonthToDate, wantStart: "2025-03-01", wantDays: 10},
		{name: "year to date", rangeName: constants.RangeYearToDate, wantStart: "2025-01-01", wantDays: 69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := b.ResolveRange(tt.rangeName, now, nil, nil)
			if err != nil {
				t.Fatalf("ResolveRange() error = %v", err)
			}
			if r.Start.After(r.End) {
				t.Fatalf("start %v after end %v", r.Start, r.End)
			}
			startKey, endKey := r.Keys()
			if startKey != tt.wantStart {
				t.Errorf("start = %s, want %s", startKey, tt.wantStart)
			}
			if endKey != "2025-03-10" {
				t.Errorf("end = %s, want 2025-03-10", endKey)
			}
			if r.Days() != tt.wantDays {
				t.Errorf("Days() = %d, want %d", r.Days(), tt.wantDays)
			}
			if !r.End.Equal(b.EndOfDay(now)) {
				t.Errorf("end = %v, want %v", r.End, b.EndOfDay(now))
			}
		})
	}
}

func TestResolveRangeCustom(t *testing.T) {
	b := NewDayBoundary(time.UTC)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 2, 27, 18, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 6, 0, 0, 0, time.UTC)

	r, err := b.ResolveRange(constants.RangeCustom, now, &start, &end)
	if err != nil {
		t.Fatalf("ResolveRange() error = %v", err)
	}
	if !r.Start.Equal(time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", r.Start)
	}
	if !r.End.Equal(time.Date(2025, 3, 2, 23, 59, 59, 999_000_000, time.UTC)) {
		t.Errorf("End = %v", r.End)
	}
	if r.Days() != 4 {
		t.Errorf("Days() = %d, want 4", r.Days())
	}

	if _, err := b.ResolveRange(constants.RangeCustom, now, &end, &start); !errors.Is(err, lerrors.ErrInvalidRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidRange", err)
	}
	if _, err := b.ResolveRange(constants.RangeCustom, now, &start, nil); !errors.Is(err, lerrors.ErrInvalidRange) {
		t.Errorf("missing end error = %v, want ErrInvalidRange", err)
	}
	if _, err := b.ResolveRange("fortnight", now, nil, nil); !errors.Is(err, lerrors.ErrInvalidRange) {
		t.Errorf("unknown range error = %v, want ErrInvalidRange", err)
	}
}

func TestParseInstant(t *testing.T) {
	b := NewDayBoundary(ist)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "date only uses reference zone", input: "2025-03-10", want: time.Date(2025, 3, 10, 0, 0, 0, 0, ist)},
		{name: "naive datetime", input: "2025-03-10T23:15", want: time.Date(2025, 3, 10, 23, 15, 0, 0, ist)},
		{name: "rfc3339 keeps its offset", input: "2025-03-10T20:00:00Z", want: time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ParseInstant(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInstant(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseInstant(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRangeName(t *testing.T) {
	tests := map[string]constants.RangeName{
		"daily":  constants.RangeDaily,
		"weekly": constants.RangeWeekly,
		"MTD":    constants.RangeMonthToDate,
		"ytd":    constants.RangeYearToDate,
		"custom": constants.RangeCustom,
	}
	for token, want := range tests {
		got, err := ParseRangeName(token)
		if err != nil || got != want {
			t.Errorf("ParseRangeName(%q) = %q, %v; want %q", token, got, err, want)
		}
	}
	if _, err := ParseRangeName("quarterly"); !errors.Is(err, lerrors.ErrInvalidRange) {
		t.Errorf("ParseRangeName(quarterly) error = %v, want ErrInvalidRange", err)
	}
}

func TestAddDays(t *testing.T) {
	b := NewDayBoundary(time.UTC)
	got, err := b.AddDays("2025-03-01", -1)
	if err != nil {
		t.Fatalf("AddDays() error = %v", err)
	}
	if got != "2025-02-28" {
		t.Errorf("AddDays() = %s, want 2025-02-28", got)
	}
}
