package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/models"
)

// CheckInInput is the payload of a habit check-in.
type CheckInInput struct {
	HabitID string
	Value   models.Value
}

// SleepInput is the payload of a sleep entry. End may fall on the next calendar day.
type SleepInput struct {
	Start time.Time
	End   time.Time
	Notes string
}

type JournalInput struct {
	Summary    string
	Highlights []string
}

type StudyInput struct {
	Subject   string
	TimeSpent int // minutes
	Notes     string
}

type FoodInput struct {
	MealType string
	Items    []string
	Calories *float64
}

type ExpenseInput struct {
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Description string
}

// CheckIn records habit progress for the day containing instant. A second
// check-in for the same habit and day replaces the first one's value.
func (s *Service) CheckIn(ctx context.Context, ownerID string, instant time.Time, in CheckInInput) (models.CheckIn, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.CheckIn{}, err
	}

	habit, err := s.store.GetHabit(ctx, ownerID, in.HabitID)
	if err != nil {
		return models.CheckIn{}, err
	}
	if err := validateValue(habit, in.Value); err != nil {
		return models.CheckIn{}, err
	}

	now := s.now().UTC()
	saved, err := s.store.UpsertCheckIn(writeCtx, models.CheckIn{
		ID:        newID(),
		HabitID:   habit.ID,
		OwnerID:   ownerID,
		Day:       day,
		Value:     in.Value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.CheckIn{}, err
	}
	s.recorded(KindCheckIn, SingletonPerDay, ownerID, day)
	return saved, nil
}

func validateValue(habit models.Habit, v models.Value) error {
	switch {
	case v.IsZero():
		return lerrors.Invalid("value", "is required")
	case habit.Kind == models.HabitKindBoolean && v.Kind() != models.ValueKindBool:
		return lerrors.Invalid("value", "must be a boolean for a boolean habit")
	case habit.Kind == models.HabitKindCount && v.Kind() != models.ValueKindCount:
		return lerrors.Invalid("value", "must be a number for a count habit")
	}
	if n, ok := v.Count(); ok {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return lerrors.Invalid("value", "must be a finite number")
		}
		if n < 0 {
			return lerrors.Invalid("value", "must not be negative")
		}
	}
	return nil
}

// LogSleep records the night's sleep for the day containing instant,
// recomputing the duration from Start and End on every write.
func (s *Service) LogSleep(ctx context.Context, ownerID string, instant time.Time, in SleepInput) (models.SleepEntry, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.SleepEntry{}, err
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return models.SleepEntry{}, lerrors.Invalid("start/end", "are both required")
	}
	duration := in.End.Sub(in.Start)
	if duration < 0 {
		return models.SleepEntry{}, lerrors.Invalid("duration_minutes", "must not be negative; end is before start")
	}

	now := s.now().UTC()
	saved, err := s.store.UpsertSleep(writeCtx, models.SleepEntry{
		ID:              newID(),
		OwnerID:         ownerID,
		Day:             day,
		Start:           in.Start.UTC(),
		End:             in.End.UTC(),
		DurationMinutes: int(duration / time.Minute),
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return models.SleepEntry{}, err
	}
	s.recorded(KindSleep, SingletonPerDay, ownerID, day)
	return saved, nil
}

// WriteJournal records the day's journal entry, replacing any earlier one.
func (s *Service) WriteJournal(ctx context.Context, ownerID string, instant time.Time, in JournalInput) (models.JournalEntry, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.JournalEntry{}, err
	}

	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return models.JournalEntry{}, lerrors.Invalid("summary", "must not be empty")
	}
	if len(in.Highlights) > constants.MaxJournalHighlights {
		return models.JournalEntry{}, lerrors.Invalid("highlights",
			fmt.Sprintf("must have at most %d items, got %d", constants.MaxJournalHighlights, len(in.Highlights)))
	}

	now := s.now().UTC()
	saved, err := s.store.UpsertJournal(writeCtx, models.JournalEntry{
		ID:         newID(),
		OwnerID:    ownerID,
		Day:        day,
		Summary:    summary,
		Highlights: append([]string{}, in.Highlights...),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return models.JournalEntry{}, err
	}
	s.recorded(KindJournal, SingletonPerDay, ownerID, day)
	return saved, nil
}

func (s *Service) AddStudySession(ctx context.Context, ownerID string, instant time.Time, in StudyInput) (models.StudySession, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.StudySession{}, err
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return models.StudySession{}, lerrors.Invalid("subject", "is required")
	}
	if in.TimeSpent < 0 {
		return models.StudySession{}, lerrors.Invalid("time_spent", "must not be negative")
	}

	now := s.now().UTC()
	session := models.StudySession{
		ID:        newID(),
		OwnerID:   ownerID,
		Day:       day,
		Subject:   subject,
		TimeSpent: in.TimeSpent,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddStudySession(writeCtx, session); err != nil {
		return models.StudySession{}, err
	}
	s.recorded(KindStudy, MultiPerDay, ownerID, day)
	return session, nil
}

func (s *Service) AddFoodEntry(ctx context.Context, ownerID string, instant time.Time, in FoodInput) (models.FoodEntry, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.FoodEntry{}, err
	}

	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if mealType == "" {
		return models.FoodEntry{}, lerrors.Invalid("meal_type", "is required")
	}
	if in.Calories != nil {
		c := *in.Calories
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return models.FoodEntry{}, lerrors.Invalid("calories", "must be a non-negative number")
		}
	}

	now := s.now().UTC()
	entry := models.FoodEntry{
		ID:        newID(),
		OwnerID:   ownerID,
		Day:       day,
		MealType:  mealType,
		Items:     append([]string{}, in.Items...),
		Calories:  in.Calories,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddFoodEntry(writeCtx, entry); err != nil {
		return models.FoodEntry{}, err
	}
	s.recorded(KindFood, MultiPerDay, ownerID, day)
	return entry, nil
}

func (s *Service) AddExpense(ctx context.Context, ownerID string, instant time.Time, in ExpenseInput) (models.ExpenseEntry, error) {
	day, writeCtx, err := s.begin(ctx, ownerID, instant)
	if err != nil {
		return models.ExpenseEntry{}, err
	}

	if in.Amount.IsNegative() {
		return models.ExpenseEntry{}, lerrors.Invalid("amount", "must not be negative")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return models.ExpenseEntry{}, lerrors.Invalid("category", "is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}

	now := s.now().UTC()
	entry := models.ExpenseEntry{
		ID:          newID(),
		OwnerID:     ownerID,
		Day:         day,
		Amount:      in.Amount,
		Currency:    currency,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddExpense(writeCtx, entry); err != nil {
		return models.ExpenseEntry{}, err
	}
	s.recorded(KindExpense, MultiPerDay, ownerID, day)
	return entry, nil
}
