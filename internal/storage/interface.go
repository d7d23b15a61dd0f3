package storage

import (
	"context"

	"github.com/julianstephens/lifelog/internal/models"
)

// MinDay is the lower bound used when a query should not be range-limited on the left.
const MinDay = "0001-01-01"

// Provider is the document-store contract the ledger and aggregator run on.
// Every read and write is scoped to an owner. Upsert methods are a single
// atomic statement keyed by a database UNIQUE constraint.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	GetConfigPath() string

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	UpdateHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, ownerID, id string) (models.Habit, error)
	ListHabits(ctx context.Context, ownerID string, includeArchived bool) ([]models.Habit, error)
	SetHabitArchived(ctx context.Context, ownerID, id string, archived bool) error

	// Check-ins, unique per (habit_id, day)
	UpsertCheckIn(ctx context.Context, checkIn models.CheckIn) (models.CheckIn, error)
	ListCheckIns(ctx context.Context, ownerID string, startDay, endDay string) ([]models.CheckIn, error)
	ListCheckInsForHabit(ctx context.Context, ownerID, habitID string, startDay, endDay string) ([]models.CheckIn, error)
	// ListRecentCheckIns returns at most limit check-ins of a habit on or
	// before beforeDay, newest first.
	ListRecentCheckIns(ctx context.Context, ownerID, habitID string, beforeDay string, limit int) ([]models.CheckIn, error)

	// Singleton-per-day entries, unique per (owner_id, day)
	UpsertSleep(ctx context.Context, entry models.SleepEntry) (models.SleepEntry, error)
	ListSleep(ctx context.Context, ownerID string, startDay, endDay string) ([]models.SleepEntry, error)
	UpsertJournal(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error)
	ListJournal(ctx context.Context, ownerID string, startDay, endDay string) ([]models.JournalEntry, error)

	// Multi-per-day entries
	AddStudySession(ctx context.Context, session models.StudySession) error
	ListStudySessions(ctx context.Context, ownerID string, startDay, endDay string) ([]models.StudySession, error)
	AddFoodEntry(ctx context.Context, entry models.FoodEntry) error
	ListFoodEntries(ctx context.Context, ownerID string, startDay, endDay string) ([]models.FoodEntry, error)
	AddExpense(ctx context.Context, entry models.ExpenseEntry) error
	ListExpenses(ctx context.Context, ownerID string, startDay, endDay string) ([]models.ExpenseEntry, error)
}

// Migrator is implemented by providers that can apply pending schema
// migrations to an existing database.
type Migrator interface {
	Migrate(ctx context.Context, logFn func(string)) (int, error)
}
