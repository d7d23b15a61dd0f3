// Package streak computes consecutive-day runs of completed habit check-ins.
//
// Every habit is walked backward one calendar day at a time from its most
// recent completed day, regardless of its schedule. Day keys are YYYY-MM-DD strings already bucketed in the
// reference zone, so adjacency is plain calendar arithmetic.
package streak

import (
	"sort"
	"time"

	"github.com/julianstephens/lifelog/internal/constants"
	"github.com/julianstephens/lifelog/internal/models"
)

// Info holds the streak figures reported for a single habit.
type Info struct {
	HabitID       string `json:"habit_id"`
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	LastCompleted string `json:"last_completed,omitempty"`
}

// completedDays returns the set of days on or before today whose check-in
// satisfies habit's completion predicate. Check-ins of other habits are ignored.
func completedDays(checkIns []models.CheckIn, habit models.Habit, today string) map[string]bool {
	days := make(map[string]bool, len(checkIns))
	for _, c := range checkIns {
		if c.HabitID != "" && habit.ID != "" && c.HabitID != habit.ID {
			continue
		}
		if today != "" && c.Day > today {
			continue
		}
		if models.IsComplete(habit, c.Value) {
			days[c.Day] = true
		}
	}
	return days
}

func previousDay(key string) (string, bool) {
	t, err := time.Parse(constants.DateFormat, key)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, -1).Format(constants.DateFormat), true
}

// Current returns the number of consecutive completed days ending at the most
// recent completed day. A completed today starts the walk at today. An absent
// or incomplete check-in on today is neutral: the walk then starts at the
// latest completed day before today. Any earlier day without a completed
// check-in ends the walk.
func Current(checkIns []models.CheckIn, habit models.Habit, today string) int {
	return current(completedDays(checkIns, habit, today), today)
}

func current(done map[string]bool, today string) int {
	start := latestBefore(done, today)
	if done[today] {
		start = today
	}
	if start == "" {
		return 0
	}

	count := 1
	day := start
	for {
		prev, ok := previousDay(day)
		if !ok || !done[prev] {
			return count
		}
		count++
		day = prev
	}
}

// latestBefore returns the greatest day in done that sorts before today, or
// the greatest day overall when today is empty.
func latestBefore(done map[string]bool, today string) string {
	latest := ""
	for d := range done {
		if today != "" && d >= today {
			continue
		}
		if d > latest {
			latest = d
		}
	}
	return latest
}

// Walker computes the same count as Current from check-ins fed newest first,
// so callers can read history a page at a time and stop once the run ends.
type Walker struct {
	habit   models.Habit
	today   string
	count   int
	next    string
	stopped bool
}

func NewWalker(habit models.Habit, today string) *Walker {
	return &Walker{habit: habit, today: today}
}

// Feed consumes check-ins in descending day order and reports whether the
// walk has ended. Feeding after the walk ended is a no-op.
func (w *Walker) Feed(checkIns []models.CheckIn) bool {
	for _, c := range checkIns {
		if w.stopped {
			break
		}
		if c.HabitID != "" && w.habit.ID != "" && c.HabitID != w.habit.ID {
			continue
		}
		if w.today != "" && c.Day > w.today {
			continue
		}
		complete := models.IsComplete(w.habit, c.Value)
		if w.count == 0 {
			if complete {
				w.advance(c.Day)
			}
			continue
		}
		if c.Day != w.next || !complete {
			w.stopped = true
			break
		}
		w.advance(c.Day)
	}
	return w.stopped
}

func (w *Walker) advance(day string) {
	w.count++
	prev, ok := previousDay(day)
	if !ok {
		w.stopped = true
		return
	}
	w.next = prev
}

// Count returns the streak walked so far.
func (w *Walker) Count() int {
	return w.count
}

// Longest returns the longest run of consecutive completed days on or before today.
func Longest(checkIns []models.CheckIn, habit models.Habit, today string) int {
	return longest(completedDays(checkIns, habit, today))
}

func longest(done map[string]bool) int {
	if len(done) == 0 {
		return 0
	}

	days := make([]string, 0, len(done))
	for d := range done {
		days = append(days, d)
	}
	sort.Strings(days)

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if prev, ok := previousDay(days[i]); ok && prev == days[i-1] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// Compute returns current and longest streaks plus the most recent completed day.
func Compute(checkIns []models.CheckIn, habit models.Habit, today string) Info {
	done := completedDays(checkIns, habit, today)

	info := Info{
		HabitID: habit.ID,
		Current: current(done, today),
		Longest: longest(done),
	}
	for d := range done {
		if d > info.LastCompleted {
			info.LastCompleted = d
		}
	}
	return info
}
