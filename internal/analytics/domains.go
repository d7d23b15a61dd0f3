package analytics

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/lifelog/internal/models"
	"github.com/julianstephens/lifelog/internal/streak"
)

var (
	hundred      = decimal.NewFromInt(100)
	minutesPerHr = decimal.NewFromInt(60)
)

// streakPageSize is how many check-ins one history read returns.
const streakPageSize = 32

// currentStreak walks a habit's history newest first, one page at a time,
// and stops reading at the first day that ends the run.
func (a *Aggregator) currentStreak(ctx context.Context, ownerID string, habit models.Habit, today string) (int, error) {
	walker := streak.NewWalker(habit, today)
	before := today
	for {
		page, err := a.store.ListRecentCheckIns(ctx, ownerID, habit.ID, before, streakPageSize)
		if err != nil {
			return 0, err
		}
		if walker.Feed(page) || len(page) < streakPageSize {
			return walker.Count(), nil
		}
		if before, err = a.days.AddDays(page[len(page)-1].Day, -1); err != nil {
			return 0, err
		}
	}
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// habits computes the completion rate over the window and the present-tense
// count of habits with a live streak. Archived habits are excluded.
func (a *Aggregator) habits(ctx context.Context, w window) (models.HabitSummary, error) {
	habits, err := a.store.ListHabits(ctx, w.ownerID, false)
	if err != nil {
		return models.HabitSummary{}, err
	}
	if len(habits) == 0 {
		return models.HabitSummary{}, nil
	}

	checkIns, err := a.store.ListCheckIns(ctx, w.ownerID, w.startKey, w.endKey)
	if err != nil {
		return models.HabitSummary{}, err
	}

	byHabit := make(map[string]models.Habit, len(habits))
	for _, h := range habits {
		byHabit[h.ID] = h
	}

	completed := 0
	for _, c := range checkIns {
		if habit, ok := byHabit[c.HabitID]; ok && models.IsComplete(habit, c.Value) {
			completed++
		}
	}

	active := 0
	for _, h := range habits {
		n, err := a.currentStreak(ctx, w.ownerID, h, w.todayKey)
		if err != nil {
			return models.HabitSummary{}, err
		}
		if n > 0 {
			active++
		}
	}

	summary := models.HabitSummary{TotalHabits: len(habits), ActiveStreaks: active}
	if w.days > 0 {
		possible := decimal.NewFromInt(int64(len(habits) * w.days))
		summary.CompletionRate = round2(decimal.NewFromInt(int64(completed)).Mul(hundred).Div(possible))
	}
	return summary, nil
}

func (a *Aggregator) sleep(ctx context.Context, w window) (models.SleepSummary, error) {
	entries, err := a.store.ListSleep(ctx, w.ownerID, w.startKey, w.endKey)
	if err != nil {
		return models.SleepSummary{}, err
	}
	if len(entries) == 0 {
		return models.SleepSummary{}, nil
	}

	total := decimal.Zero
	days := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		total = total.Add(decimal.NewFromInt(int64(e.DurationMinutes)))
		days[e.Day] = struct{}{}
	}
	return models.SleepSummary{
		AverageDurationMinutes: round2(total.Div(decimal.NewFromInt(int64(len(entries))))),
		TotalDays:              len(days),
	}, nil
}

func (a *Aggregator) study(ctx context.Context, w window) (models.StudySummary, error) {
	sessions, err := a.store.ListStudySessions(ctx, w.ownerID, w.startKey, w.endKey)
	if err != nil {
		return models.StudySummary{}, err
	}

	minutes := int64(0)
	for _, s := range sessions {
		minutes += int64(s.TimeSpent)
	}
	return models.StudySummary{
		TotalHours:    round2(decimal.NewFromInt(minutes).Div(minutesPerHr)),
		TotalSessions: len(sessions),
	}, nil
}

// expenses sums per currency, then merges every currency into one total and
// one category map without conversion. Currency reports the largest total.
func (a *Aggregator) expenses(ctx context.Context, w window) (models.ExpenseSummary, error) {
	entries, err := a.store.ListExpenses(ctx, w.ownerID, w.startKey, w.endKey)
	if err != nil {
		return models.ExpenseSummary{}, err
	}
	return mergeExpenses(entries, a.currency), nil
}

func mergeExpenses(entries []models.ExpenseEntry, fallbackCurrency string) models.ExpenseSummary {
	if len(entries) == 0 {
		return emptyExpenses(fallbackCurrency)
	}

	type currencyTotals struct {
		total      decimal.Decimal
		byCategory map[string]decimal.Decimal
	}
	perCurrency := make(map[string]*currencyTotals)
	for _, e := range entries {
		ct, ok := perCurrency[e.Currency]
		if !ok {
			ct = &currencyTotals{byCategory: make(map[string]decimal.Decimal)}
			perCurrency[e.Currency] = ct
		}
		ct.total = ct.total.Add(e.Amount)
		ct.byCategory[e.Category] = ct.byCategory[e.Category].Add(e.Amount)
	}

	currencies := make([]string, 0, len(perCurrency))
	for c := range perCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	largest := ""
	for _, c := range currencies {
		ct := perCurrency[c]
		total = total.Add(ct.total)
		for category, amount := range ct.byCategory {
			byCategory[category] = byCategory[category].Add(amount)
		}
		// ties keep the alphabetically first currency
		if largest == "" || ct.total.GreaterThan(perCurrency[largest].total) {
			largest = c
		}
	}

	summary := models.ExpenseSummary{
		Total:      round2(total),
		ByCategory: make(map[string]float64, len(byCategory)),
		Currency:   largest,
	}
	for category, amount := range byCategory {
		summary.ByCategory[category] = round2(amount)
	}
	return summary
}

func emptyExpenses(currency string) models.ExpenseSummary {
	return models.ExpenseSummary{ByCategory: map[string]float64{}, Currency: currency}
}

func (a *Aggregator) food(ctx context.Context, w window) (models.FoodSummary, error) {
	entries, err := a.store.ListFoodEntries(ctx, w.ownerID, w.startKey, w.endKey)
	if err != nil {
		return models.FoodSummary{}, err
	}

	calories := decimal.Zero
	recorded := int64(0)
	for _, e := range entries {
		if e.Calories == nil {
			continue
		}
		calories = calories.Add(decimal.NewFromFloat(*e.Calories))
		recorded++
	}

	summary := models.FoodSummary{TotalMeals: len(entries)}
	if recorded > 0 {
		summary.AverageCalories = round2(calories.Div(decimal.NewFromInt(recorded)))
	}
	return summary, nil
}
