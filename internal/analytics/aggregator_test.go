package analytics

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/ledger"
	"github.com/julianstephens/lifelog/internal/models"
	"github.com/julianstephens/lifelog/internal/storage"
	"github.com/julianstephens/lifelog/internal/storage/sqlite"
	"github.com/julianstephens/lifelog/internal/utils"
)

const owner = "alice"

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func day(key string) time.Time {
	t, err := time.Parse(constants.DateFormat, key)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func newAggregator(store storage.Provider) *Aggregator {
	return NewAggregator(store, utils.NewDayBoundary(time.UTC), Options{DomainTimeout: 200 * time.Millisecond, Currency: "INR"})
}

func weekly() Request {
	return Request{Range: constants.RangeWeekly, Now: now}
}

func TestSummarizeHabits(t *testing.T) {
	store := newTestStore(t)
	svc := ledger.NewService(store, utils.NewDayBoundary(time.UTC), "INR")
	ctx := context.Background()
	eight := 8

	a, err := svc.CreateHabit(ctx, owner, ledger.HabitInput{Title: "Meditate", Kind: models.HabitKindBoolean})
	require.NoError(t, err)
	b, err := svc.CreateHabit(ctx, owner, ledger.HabitInput{Title: "Water", Kind: models.HabitKindCount, Target: &eight})
	require.NoError(t, err)
	c, err := svc.CreateHabit(ctx, owner, ledger.HabitInput{Title: "Retired", Kind: models.HabitKindBoolean})
	require.NoError(t, err)

	checkIns := []struct {
		habit string
		day   string
		value models.Value
	}{
		{a.ID, "2025-03-09", models.BoolValue(true)},
		{a.ID, "2025-03-08", models.BoolValue(true)},
		{a.ID, "2025-03-05", models.BoolValue(false)},
		{a.ID, "2025-02-20", models.BoolValue(true)},
		{b.ID, "2025-03-06", models.CountValue(8)},
		{b.ID, "2025-03-07", models.CountValue(3)},
		{c.ID, "2025-03-09", models.BoolValue(true)},
	}
	for _, ci := range checkIns {
		_, err := svc.CheckIn(ctx, owner, day(ci.day), ledger.CheckInInput{HabitID: ci.habit, Value: ci.value})
		require.NoError(t, err)
	}
	require.NoError(t, svc.ArchiveHabit(ctx, owner, c.ID))

	summary, err := newAggregator(store).Summarize(ctx, owner, weekly())
	require.NoError(t, err)

	require.Equal(t, "weekly", summary.Range)
	require.Equal(t, 2, summary.Habits.TotalHabits)
	// 3 completed of 2 habits x 7 days
	require.Equal(t, 21.43, summary.Habits.CompletionRate)
	// Water's last qualifying day is 2025-03-06, so its streak is still live
	require.Equal(t, 2, summary.Habits.ActiveStreaks)
}

type recordingStore struct {
	storage.Provider
	mu           sync.Mutex
	rangeStarts  []string
	recentCalls  int
	habitHistory int
}

func (r *recordingStore) ListCheckIns(ctx context.Context, ownerID string, startDay, endDay string) ([]models.CheckIn, error) {
	r.mu.Lock()
	r.rangeStarts = append(r.rangeStarts, startDay)
	r.mu.Unlock()
	return r.Provider.ListCheckIns(ctx, ownerID, startDay, endDay)
}

func (r *recordingStore) ListCheckInsForHabit(ctx context.Context, ownerID, habitID string, startDay, endDay string) ([]models.CheckIn, error) {
	r.mu.Lock()
	r.habitHistory++
	r.mu.Unlock()
	return r.Provider.ListCheckInsForHabit(ctx, ownerID, habitID, startDay, endDay)
}

func (r *recordingStore) ListRecentCheckIns(ctx context.Context, ownerID, habitID string, beforeDay string, limit int) ([]models.CheckIn, error) {
	r.mu.Lock()
	r.recentCalls++
	r.mu.Unlock()
	return r.Provider.ListRecentCheckIns(ctx, ownerID, habitID, beforeDay, limit)
}

func TestSummarizeHabitsBoundsHistoryReads(t *testing.T) {
	store := newTestStore(t)
	svc := ledger.NewService(store, utils.NewDayBoundary(time.UTC), "INR")
	ctx := context.Background()

	habit, err := svc.CreateHabit(ctx, owner, ledger.HabitInput{Title: "Read", Kind: models.HabitKindBoolean})
	require.NoError(t, err)

	// an old completion hidden behind more than one page of misses
	_, err = svc.CheckIn(ctx, owner, day("2025-01-01"), ledger.CheckInInput{HabitID: habit.ID, Value: models.BoolValue(true)})
	require.NoError(t, err)
	for i := 1; i <= streakPageSize+8; i++ {
		_, err := svc.CheckIn(ctx, owner, day("2025-01-01").AddDate(0, 0, i), ledger.CheckInInput{HabitID: habit.ID, Value: models.BoolValue(false)})
		require.NoError(t, err)
	}

	rec := &recordingStore{Provider: store}
	summary, err := newAggregator(rec).Summarize(ctx, owner, weekly())
	require.NoError(t, err)

	require.Equal(t, 1, summary.Habits.ActiveStreaks)
	require.Equal(t, []string{"2025-03-04"}, rec.rangeStarts)
	require.Zero(t, rec.habitHistory)
	require.Equal(t, 2, rec.recentCalls)
}

func TestSummarizeWithoutHabits(t *testing.T) {
	store := newTestStore(t)

	summary, err := newAggregator(store).Summarize(context.Background(), owner, weekly())
	require.NoError(t, err)
	require.Equal(t, models.HabitSummary{}, summary.Habits)
	require.Equal(t, models.SleepSummary{}, summary.Sleep)
	require.Equal(t, models.StudySummary{}, summary.Study)
	require.Equal(t, models.FoodSummary{}, summary.Food)
	require.Equal(t, 0.0, summary.Expenses.Total)
	require.Empty(t, summary.Expenses.ByCategory)
	require.NotNil(t, summary.Expenses.ByCategory)
	require.Equal(t, "INR", summary.Expenses.Currency)
}

func seedDomains(t *testing.T, store *sqlite.Store, ownerID string) {
	t.Helper()
	svc := ledger.NewService(store, utils.NewDayBoundary(time.UTC), "INR")
	ctx := context.Background()
	c500, c700 := 500.0, 700.0

	for _, s := range []struct {
		day     string
		minutes time.Duration
	}{{"2025-03-08", 420}, {"2025-03-09", 450}} {
		start := day(s.day).Add(-10 * time.Hour)
		_, err := svc.LogSleep(ctx, ownerID, day(s.day), ledger.SleepInput{Start: start, End: start.Add(s.minutes * time.Minute)})
		require.NoError(t, err)
	}

	for _, minutes := range []int{45, 30} {
		_, err := svc.AddStudySession(ctx, ownerID, day("2025-03-09"), ledger.StudyInput{Subject: "Go", TimeSpent: minutes})
		require.NoError(t, err)
	}

	for _, cal := range []*float64{&c500, &c700, nil} {
		_, err := svc.AddFoodEntry(ctx, ownerID, day("2025-03-09"), ledger.FoodInput{MealType: "meal", Calories: cal})
		require.NoError(t, err)
	}

	for _, e := range []ledger.ExpenseInput{
		{Amount: decimal.NewFromInt(100), Currency: "INR", Category: "Food"},
		{Amount: decimal.NewFromInt(50), Currency: "INR", Category: "Transport"},
	} {
		_, err := svc.AddExpense(ctx, ownerID, day("2025-03-09"), e)
		require.NoError(t, err)
	}

	// outside the weekly window
	_, err := svc.AddExpense(ctx, ownerID, day("2025-03-01"), ledger.ExpenseInput{Amount: decimal.NewFromInt(999), Category: "Food"})
	require.NoError(t, err)
}

func TestSummarizeDomains(t *testing.T) {
	store := newTestStore(t)
	seedDomains(t, store, owner)
	seedDomains(t, store, "bob")

	summary, err := newAggregator(store).Summarize(context.Background(), owner, weekly())
	require.NoError(t, err)

	require.Equal(t, models.SleepSummary{AverageDurationMinutes: 435, TotalDays: 2}, summary.Sleep)
	require.Equal(t, models.StudySummary{TotalHours: 1.25, TotalSessions: 2}, summary.Study)
	require.Equal(t, models.FoodSummary{TotalMeals: 3, AverageCalories: 600}, summary.Food)
	require.Equal(t, 150.0, summary.Expenses.Total)
	require.Equal(t, map[string]float64{"Food": 100, "Transport": 50}, summary.Expenses.ByCategory)
	require.Equal(t, "INR", summary.Expenses.Currency)
}

func TestMergeExpensesAcrossCurrencies(t *testing.T) {
	entries := []models.ExpenseEntry{
		{Amount: decimal.NewFromInt(100), Currency: "INR", Category: "Food"},
		{Amount: decimal.NewFromInt(30), Currency: "USD", Category: "Food"},
		{Amount: decimal.RequireFromString("20.005"), Currency: "USD", Category: "Coffee"},
	}

	summary := mergeExpenses(entries, "EUR")
	require.Equal(t, 150.01, summary.Total)
	require.Equal(t, map[string]float64{"Food": 130, "Coffee": 20.01}, summary.ByCategory)
	require.Equal(t, "INR", summary.Currency)
}

func TestMergeExpensesTieKeepsFirstCurrency(t *testing.T) {
	entries := []models.ExpenseEntry{
		{Amount: decimal.NewFromInt(10), Currency: "USD", Category: "A"},
		{Amount: decimal.NewFromInt(10), Currency: "EUR", Category: "B"},
	}
	require.Equal(t, "EUR", mergeExpenses(entries, "INR").Currency)
}

type failingStore struct {
	storage.Provider
	sleepErr  error
	blockFood bool
}

func (f failingStore) ListSleep(ctx context.Context, ownerID string, startDay, endDay string) ([]models.SleepEntry, error) {
	if f.sleepErr != nil {
		return nil, f.sleepErr
	}
	return f.Provider.ListSleep(ctx, ownerID, startDay, endDay)
}

func (f failingStore) ListFoodEntries(ctx context.Context, ownerID string, startDay, endDay string) ([]models.FoodEntry, error) {
	if f.blockFood {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.Provider.ListFoodEntries(ctx, ownerID, startDay, endDay)
}

func TestSummarizeIsFailSoftPerDomain(t *testing.T) {
	store := newTestStore(t)
	seedDomains(t, store, owner)

	agg := newAggregator(failingStore{Provider: store, sleepErr: errors.New("sleep store offline")})
	summary, err := agg.Summarize(context.Background(), owner, weekly())
	require.NoError(t, err)

	require.Equal(t, models.SleepSummary{}, summary.Sleep)
	require.Equal(t, 150.0, summary.Expenses.Total)
	require.Equal(t, 2, summary.Study.TotalSessions)
	require.Equal(t, 3, summary.Food.TotalMeals)
}

func TestSummarizeDomainTimeout(t *testing.T) {
	store := newTestStore(t)
	seedDomains(t, store, owner)

	agg := NewAggregator(failingStore{Provider: store, blockFood: true}, utils.NewDayBoundary(time.UTC),
		Options{DomainTimeout: 50 * time.Millisecond})
	summary, err := agg.Summarize(context.Background(), owner, weekly())
	require.NoError(t, err)

	require.Equal(t, models.FoodSummary{}, summary.Food)
	require.Equal(t, 2, summary.Sleep.TotalDays)
}

func TestSummarizeRangeErrors(t *testing.T) {
	agg := newAggregator(newTestStore(t))
	ctx := context.Background()
	start := now
	end := now.AddDate(0, 0, -1)

	_, err := agg.Summarize(ctx, owner, Request{Range: constants.RangeCustom, Now: now, Start: &start, End: &end})
	require.ErrorIs(t, err, lerrors.ErrInvalidRange)

	_, err = agg.Summarize(ctx, owner, Request{Range: constants.RangeCustom, Now: now, Start: &start})
	require.ErrorIs(t, err, lerrors.ErrInvalidRange)

	_, err = agg.Summarize(ctx, "", weekly())
	require.ErrorIs(t, err, lerrors.ErrValidation)
}

func TestSummarizeCustomRange(t *testing.T) {
	store := newTestStore(t)
	seedDomains(t, store, owner)
	start := day("2025-03-01")
	end := day("2025-03-09")

	summary, err := newAggregator(store).Summarize(context.Background(), owner,
		Request{Range: constants.RangeCustom, Now: now, Start: &start, End: &end})
	require.NoError(t, err)
	require.Equal(t, "custom", summary.Range)
	require.Equal(t, 1149.0, summary.Expenses.Total)
	require.Equal(t, "2025-03-01", summary.Start.Format(constants.DateFormat))
}

func TestSummarizeCancelledContext(t *testing.T) {
	agg := newAggregator(newTestStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Summarize(ctx, owner, weekly())
	require.ErrorIs(t, err, context.Canceled)
}

func TestHabitStreak(t *testing.T) {
	store := newTestStore(t)
	svc := ledger.NewService(store, utils.NewDayBoundary(time.UTC), "INR")
	ctx := context.Background()

	habit, err := svc.CreateHabit(ctx, owner, ledger.HabitInput{Title: "Run", Kind: models.HabitKindBoolean})
	require.NoError(t, err)
	for _, d := range []string{"2025-03-07", "2025-03-08", "2025-03-09"} {
		_, err := svc.CheckIn(ctx, owner, day(d), ledger.CheckInInput{HabitID: habit.ID, Value: models.BoolValue(true)})
		require.NoError(t, err)
	}

	info, err := newAggregator(store).HabitStreak(ctx, owner, habit.ID, now)
	require.NoError(t, err)
	require.Equal(t, 3, info.Current)
	require.Equal(t, 3, info.Longest)
	require.Equal(t, "2025-03-09", info.LastCompleted)

	_, err = newAggregator(store).HabitStreak(ctx, "bob", habit.ID, now)
	require.ErrorIs(t, err, lerrors.ErrNotFound)
}
