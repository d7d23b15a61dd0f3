package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/models"
)

// TestStore_Integration runs the provider against a real database.
// Set POSTGRES_TEST_URL to run it, e.g.
// POSTGRES_TEST_URL="postgres://lifelog_user@localhost:5432/lifelog_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	store := New(connStr)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	owner := "it-" + uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)

	habit := models.Habit{
		ID: uuid.New().String(), OwnerID: owner, Title: "Meditate",
		Kind: models.HabitKindBoolean, Schedule: models.ScheduleDaily,
		CreatedAt: now, UpdatedAt: now,
	}

	t.Run("Habits", func(t *testing.T) {
		if err := store.AddHabit(ctx, habit); err != nil {
			t.Fatalf("Failed to add habit: %v", err)
		}
		got, err := store.GetHabit(ctx, owner, habit.ID)
		if err != nil {
			t.Fatalf("Failed to get habit: %v", err)
		}
		if got.Title != habit.Title {
			t.Errorf("Expected title %q, got %q", habit.Title, got.Title)
		}
		if _, err := store.GetHabit(ctx, "someone-else", habit.ID); !errors.Is(err, lerrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for another owner, got %v", err)
		}
	})

	t.Run("CheckInUpsert", func(t *testing.T) {
		for _, v := range []bool{false, true} {
			if _, err := store.UpsertCheckIn(ctx, models.CheckIn{
				ID: uuid.New().String(), HabitID: habit.ID, OwnerID: owner, Day: "2025-03-10",
				Value: models.BoolValue(v), CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				t.Fatalf("Failed to upsert check-in: %v", err)
			}
		}
		checkIns, err := store.ListCheckInsForHabit(ctx, owner, habit.ID, "2025-03-01", "2025-03-31")
		if err != nil {
			t.Fatalf("Failed to list check-ins: %v", err)
		}
		if len(checkIns) != 1 {
			t.Fatalf("Expected 1 check-in, got %d", len(checkIns))
		}
		if checkIns[0].Day != "2025-03-10" {
			t.Errorf("Expected day 2025-03-10, got %s", checkIns[0].Day)
		}
		if b, ok := checkIns[0].Value.Bool(); !ok || !b {
			t.Errorf("Expected true after overwrite, got %v", checkIns[0].Value)
		}
	})

	t.Run("Journal", func(t *testing.T) {
		for _, summary := range []string{"first", "second"} {
			if _, err := store.UpsertJournal(ctx, models.JournalEntry{
				ID: uuid.New().String(), OwnerID: owner, Day: "2025-03-10",
				Summary: summary, Highlights: []string{summary}, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				t.Fatalf("Failed to upsert journal: %v", err)
			}
		}
		entries, err := store.ListJournal(ctx, owner, "2025-03-10", "2025-03-10")
		if err != nil {
			t.Fatalf("Failed to list journal: %v", err)
		}
		if len(entries) != 1 || entries[0].Summary != "second" {
			t.Errorf("Expected a single overwritten entry, got %+v", entries)
		}
	})

	t.Run("Expenses", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := store.AddExpense(ctx, models.ExpenseEntry{
				ID: uuid.New().String(), OwnerID: owner, Day: "2025-03-10",
				Amount: decimal.RequireFromString("12.34"), Currency: "INR", Category: "Food",
				CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				t.Fatalf("Failed to add expense: %v", err)
			}
		}
		expenses, err := store.ListExpenses(ctx, owner, "2025-03-10", "2025-03-10")
		if err != nil {
			t.Fatalf("Failed to list expenses: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if !expenses[0].Amount.Equal(decimal.RequireFromString("12.34")) {
			t.Errorf("Expected amount 12.34, got %s", expenses[0].Amount)
		}
	})
}
