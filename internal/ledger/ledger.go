// Package ledger is the write side of the activity ledger. It buckets every
// record into a reference-zone day and applies the per-day uniqueness rule:
// singleton kinds are upserted on their unique key, multi kinds are inserted.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/logger"
	"github.com/julianstephens/lifelog/internal/observability"
	"github.com/julianstephens/lifelog/internal/storage"
	"github.com/julianstephens/lifelog/internal/utils"
)

// UniquenessClass selects between upsert-on-key and plain insert.
type UniquenessClass string

const (
	SingletonPerDay UniquenessClass = "singleton"
	MultiPerDay     UniquenessClass = "multi"
)

// Record kinds, used for metrics and logs.
const (
	KindCheckIn = "checkin"
	KindSleep   = "sleep"
	KindJournal = "journal"
	KindStudy   = "study"
	KindFood    = "food"
	KindExpense = "expense"
)

// Service validates and persists ledger writes for a single store.
type Service struct {
	store    storage.Provider
	days     utils.DayBoundary
	currency string
	now      func() time.Time
}

// NewService constructs a Service. currency is applied to expenses that omit one.
func NewService(store storage.Provider, days utils.DayBoundary, currency string) *Service {
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	return &Service{
		store:    store,
		days:     days,
		currency: strings.ToUpper(currency),
		now:      time.Now,
	}
}

// Days exposes the service's day normalizer.
func (s *Service) Days() utils.DayBoundary {
	return s.days
}

// ClassOf reports the uniqueness class and kind name of a write payload.
func ClassOf(input any) (UniquenessClass, string, error) {
	switch input.(type) {
	case CheckInInput:
		return SingletonPerDay, KindCheckIn, nil
	case SleepInput:
		return SingletonPerDay, KindSleep, nil
	case JournalInput:
		return SingletonPerDay, KindJournal, nil
	case StudyInput:
		return MultiPerDay, KindStudy, nil
	case FoodInput:
		return MultiPerDay, KindFood, nil
	case ExpenseInput:
		return MultiPerDay, KindExpense, nil
	}
	return "", "", lerrors.Invalid("record", fmt.Sprintf("unsupported payload type %T", input))
}

// Upsert writes input for the day containing instant. class must match the
// payload's kind. The returned value is the persisted model record.
func (s *Service) Upsert(ctx context.Context, ownerID string, instant time.Time, class UniquenessClass, input any) (any, error) {
	want, kind, err := ClassOf(input)
	if err != nil {
		return nil, err
	}
	if class != want {
		return nil, lerrors.Invalid("class", fmt.Sprintf("%s records are %s, not %s", kind, want, class))
	}

	switch in := input.(type) {
	case CheckInInput:
		return s.CheckIn(ctx, ownerID, instant, in)
	case SleepInput:
		return s.LogSleep(ctx, ownerID, instant, in)
	case JournalInput:
		return s.WriteJournal(ctx, ownerID, instant, in)
	case StudyInput:
		return s.AddStudySession(ctx, ownerID, instant, in)
	case FoodInput:
		return s.AddFoodEntry(ctx, ownerID, instant, in)
	case ExpenseInput:
		return s.AddExpense(ctx, ownerID, instant, in)
	}
	return nil, lerrors.Invalid("record", fmt.Sprintf("unsupported payload type %T", input))
}

// begin checks the common preconditions of a write and returns the day key
// and a context that will not be cancelled once the write is issued.
func (s *Service) begin(ctx context.Context, ownerID string, instant time.Time) (string, context.Context, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", nil, lerrors.Invalid("owner_id", "is required")
	}
	if instant.IsZero() {
		return "", nil, lerrors.Invalid("day", "is required")
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return s.days.DayKey(instant), context.WithoutCancel(ctx), nil
}

func (s *Service) recorded(kind string, class UniquenessClass, ownerID, day string) {
	observability.RecordWrite(kind, string(class))
	logger.Debug("Recorded ledger entry", "kind", kind, "class", class, "owner", ownerID, "day", day)
}

func newID() string {
	return uuid.New().String()
}
