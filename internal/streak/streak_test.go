package streak

import (
	"sort"
	"testing"

	"github.com/julianstephens/lifelog/internal/models"
)

const today = "2025-03-10"

func boolHabit() models.Habit {
	return models.Habit{ID: "h1", Kind: models.HabitKindBoolean, Schedule: models.ScheduleDaily}
}

func countHabit(target *int) models.Habit {
	return models.Habit{ID: "h2", Kind: models.HabitKindCount, Schedule: models.ScheduleDaily, Target: target}
}

func checkIn(habitID, day string, v models.Value) models.CheckIn {
	return models.CheckIn{HabitID: habitID, Day: day, Value: v}
}

type currentCase struct {
	name     string
	habit    models.Habit
	checkIns []models.CheckIn
	want     int
}

func currentCases() []currentCase {
	eight := 8

	return []currentCase{
		{
			name:  "no check-ins",
			habit: boolHabit(),
			want:  0,
		},
		{
			name:  "three prior days with today absent",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-07", models.BoolValue(true)),
				checkIn("h1", "2025-03-08", models.BoolValue(true)),
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
			},
			want: 3,
		},
		{
			name:  "false two days ago breaks the chain",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-07", models.BoolValue(true)),
				checkIn("h1", "2025-03-08", models.BoolValue(false)),
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
			},
			want: 1,
		},
		{
			name:  "today completed counts",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
				checkIn("h1", "2025-03-10", models.BoolValue(true)),
			},
			want: 2,
		},
		{
			name:  "incomplete today is neutral",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-08", models.BoolValue(true)),
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
				checkIn("h1", "2025-03-10", models.BoolValue(false)),
			},
			want: 2,
		},
		{
			name:  "absent yesterday starts from the latest completed day",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-06", models.BoolValue(true)),
				checkIn("h1", "2025-03-07", models.BoolValue(true)),
				checkIn("h1", "2025-03-08", models.BoolValue(true)),
			},
			want: 3,
		},
		{
			name:  "incomplete yesterday is skipped to the latest completed day",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-07", models.BoolValue(true)),
				checkIn("h1", "2025-03-08", models.BoolValue(true)),
				checkIn("h1", "2025-03-09", models.BoolValue(false)),
			},
			want: 2,
		},
		{
			name:  "count below target is incomplete",
			habit: countHabit(&eight),
			checkIns: []models.CheckIn{
				checkIn("h2", "2025-03-08", models.CountValue(7)),
				checkIn("h2", "2025-03-09", models.CountValue(5)),
			},
			want: 0,
		},
		{
			name:  "count at target is complete",
			habit: countHabit(&eight),
			checkIns: []models.CheckIn{
				checkIn("h2", "2025-03-09", models.CountValue(8)),
			},
			want: 1,
		},
		{
			name:  "count without target needs a positive value",
			habit: countHabit(nil),
			checkIns: []models.CheckIn{
				checkIn("h2", "2025-03-08", models.CountValue(0)),
				checkIn("h2", "2025-03-09", models.CountValue(0.5)),
			},
			want: 1,
		},
		{
			name:  "other habits and future days are ignored",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("other", "2025-03-08", models.BoolValue(true)),
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
				checkIn("h1", "2025-03-11", models.BoolValue(true)),
			},
			want: 1,
		},
		{
			name:  "unordered input",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-03-09", models.BoolValue(true)),
				checkIn("h1", "2025-03-07", models.BoolValue(true)),
				checkIn("h1", "2025-03-08", models.BoolValue(true)),
			},
			want: 3,
		},
		{
			name:  "earlier gap ends an older run",
			habit: boolHabit(),
			checkIns: []models.CheckIn{
				checkIn("h1", "2025-02-26", models.BoolValue(true)),
				checkIn("h1", "2025-02-28", models.BoolValue(true)),
				checkIn("h1", "2025-03-01", models.BoolValue(true)),
			},
			want: 2,
		},
	}
}

func TestCurrent(t *testing.T) {
	for _, tt := range currentCases() {
		t.Run(tt.name, func(t *testing.T) {
			if got := Current(tt.checkIns, tt.habit, today); got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWalkerMatchesCurrent(t *testing.T) {
	for _, tt := range currentCases() {
		t.Run(tt.name, func(t *testing.T) {
			desc := append([]models.CheckIn(nil), tt.checkIns...)
			sort.Slice(desc, func(i, j int) bool { return desc[i].Day > desc[j].Day })

			w := NewWalker(tt.habit, today)
			for _, c := range desc {
				if w.Feed([]models.CheckIn{c}) {
					break
				}
			}
			if w.Count() != tt.want {
				t.Errorf("Walker.Count() = %d, want %d", w.Count(), tt.want)
			}
		})
	}
}

func TestWalkerStopsAtFirstGap(t *testing.T) {
	w := NewWalker(boolHabit(), today)

	ended := w.Feed([]models.CheckIn{
		checkIn("h1", "2025-03-10", models.BoolValue(false)),
		checkIn("h1", "2025-03-09", models.BoolValue(true)),
		checkIn("h1", "2025-03-08", models.BoolValue(true)),
	})
	if ended {
		t.Fatal("Feed() ended before a gap was seen")
	}
	if !w.Feed([]models.CheckIn{checkIn("h1", "2025-03-06", models.BoolValue(true))}) {
		t.Fatal("Feed() did not end at the missing 2025-03-07")
	}
	w.Feed([]models.CheckIn{checkIn("h1", "2025-03-05", models.BoolValue(true))})
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
}

func TestCurrentIgnoresSchedule(t *testing.T) {
	checkIns := []models.CheckIn{
		checkIn("h1", "2025-03-02", models.BoolValue(true)),
		checkIn("h1", "2025-03-09", models.BoolValue(true)),
	}
	weekly := boolHabit()
	weekly.Schedule = models.ScheduleWeekly

	daily := Current(checkIns, boolHabit(), today)
	if got := Current(checkIns, weekly, today); got != daily || got != 1 {
		t.Errorf("weekly Current() = %d, daily = %d, want 1 for both", got, daily)
	}
}

func TestCurrentAcrossMonthBoundary(t *testing.T) {
	checkIns := []models.CheckIn{
		checkIn("h1", "2025-02-27", models.BoolValue(true)),
		checkIn("h1", "2025-02-28", models.BoolValue(true)),
		checkIn("h1", "2025-03-01", models.BoolValue(true)),
	}
	if got := Current(checkIns, boolHabit(), "2025-03-02"); got != 3 {
		t.Errorf("Current() = %d, want 3", got)
	}
}

func TestLongest(t *testing.T) {
	checkIns := []models.CheckIn{
		checkIn("h1", "2025-02-10", models.BoolValue(true)),
		checkIn("h1", "2025-02-11", models.BoolValue(true)),
		checkIn("h1", "2025-02-12", models.BoolValue(true)),
		checkIn("h1", "2025-02-13", models.BoolValue(true)),
		checkIn("h1", "2025-02-20", models.BoolValue(true)),
		checkIn("h1", "2025-03-09", models.BoolValue(true)),
		checkIn("h1", "2025-03-10", models.BoolValue(true)),
	}
	if got := Longest(checkIns, boolHabit(), today); got != 4 {
		t.Errorf("Longest() = %d, want 4", got)
	}
	if got := Longest(nil, boolHabit(), today); got != 0 {
		t.Errorf("Longest(nil) = %d, want 0", got)
	}
}

func TestCompute(t *testing.T) {
	checkIns := []models.CheckIn{
		checkIn("h1", "2025-03-01", models.BoolValue(true)),
		checkIn("h1", "2025-03-02", models.BoolValue(true)),
		checkIn("h1", "2025-03-09", models.BoolValue(true)),
		checkIn("h1", "2025-03-10", models.BoolValue(false)),
	}

	info := Compute(checkIns, boolHabit(), today)
	want := Info{HabitID: "h1", Current: 1, Longest: 2, LastCompleted: "2025-03-09"}
	if info != want {
		t.Errorf("Compute() = %+v, want %+v", info, want)
	}
}
