package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// HabitKind decides how a check-in value is judged complete.
type HabitKind string

// Schedule is the display/reminder cadence of a habit. It does not affect streaks.
type Schedule string

// ValueKind tags which side of a check-in Value is populated.
type ValueKind string

const (
	HabitKindBoolean HabitKind = "boolean"
	HabitKindCount   HabitKind = "count"

	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
	ScheduleCustom  Schedule = "custom"

	ValueKindBool  ValueKind = "bool"
	ValueKindCount ValueKind = "count"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Kind      HabitKind `json:"kind"`
	Schedule  Schedule  `json:"schedule"`
	Target    *int      `json:"target,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckIn is a habit's record for one day. At most one exists per (HabitID, Day).
type CheckIn struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	OwnerID   string    `json:"owner_id"`
	Day       string    `json:"day"` // YYYY-MM-DD format
	Value     Value     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Value is either a boolean or a non-negative count.
type Value struct {
	kind  ValueKind
	flag  bool
	count float64
}

// BoolValue wraps a yes/no check-in.
func BoolValue(b bool) Value {
	return Value{kind: ValueKindBool, flag: b}
}

// CountValue wraps a numeric check-in.
func CountValue(n float64) Value {
	return Value{kind: ValueKindCount, count: n}
}

func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether the value was never set.
func (v Value) IsZero() bool { return v.kind == "" }

// Bool returns the boolean side and whether the value is tagged bool.
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == ValueKindBool
}

// Count returns the numeric side and whether the value is tagged count.
func (v Value) Count() (float64, bool) {
	return v.count, v.kind == ValueKindCount
}

// Numeric collapses the value to a number; true is 1 and false is 0.
func (v Value) Numeric() float64 {
	if v.kind == ValueKindBool {
		if v.flag {
			return 1
		}
		return 0
	}
	return v.count
}

func (v Value) String() string {
	switch v.kind {
	case ValueKindBool:
		return fmt.Sprintf("%t", v.flag)
	case ValueKindCount:
		return fmt.Sprintf("%g", v.count)
	}
	return "<unset>"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueKindBool:
		return json.Marshal(v.flag)
	case ValueKindCount:
		return json.Marshal(v.count)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = BoolValue(data[0] == 't')
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("check-in value must be a boolean or a number: %w", err)
		}
		*v = CountValue(n)
	}
	return nil
}

// IsComplete reports whether value satisfies habit's completion predicate:
// boolean habits need true, count habits need value >= target, or > 0 without a target.
func IsComplete(habit Habit, value Value) bool {
	if value.IsZero() {
		return false
	}
	switch habit.Kind {
	case HabitKindBoolean:
		if b, ok := value.Bool(); ok {
			return b
		}
		return value.Numeric() > 0
	case HabitKindCount:
		n := value.Numeric()
		if habit.Target != nil {
			return n >= float64(*habit.Target)
		}
		return n > 0
	}
	return false
}

// ParseHabitKind validates a kind token.
func ParseHabitKind(s string) (HabitKind, error) {
	switch HabitKind(s) {
	case HabitKindBoolean, HabitKindCount:
		return HabitKind(s), nil
	}
	return "", fmt.Errorf("unknown habit kind %q", s)
}

// ParseSchedule validates a schedule token.
func ParseSchedule(s string) (Schedule, error) {
	switch Schedule(s) {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly, ScheduleCustom:
		return Schedule(s), nil
	}
	return "", fmt.Errorf("unknown schedule %q", s)
}
