// Package analytics rolls one owner's ledger records for a resolved date
// range into a single AnalyticsSummary.
//
// Each domain (habits, sleep, study, expenses, food) is read concurrently
// under its own timeout. A domain whose read fails falls back to its zero
// summary and the others are unaffected. Only an invalid range, a missing
// owner or a cancelled caller fail the whole call.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/logger"
	"github.com/julianstephens/lifelog/internal/models"
	"github.com/julianstephens/lifelog/internal/observability"
	"github.com/julianstephens/lifelog/internal/storage"
	"github.com/julianstephens/lifelog/internal/streak"
	"github.com/julianstephens/lifelog/internal/utils"
)

// Domain names, used in logs and the domain failure metric.
const (
	DomainHabits   = "habits"
	DomainSleep    = "sleep"
	DomainStudy    = "study"
	DomainExpenses = "expenses"
	DomainFood     = "food"
)

// Request selects the window to summarize. Start and End are only read for
// the custom range. A zero Now means the current time.
type Request struct {
	Range constants.RangeName
	Now   time.Time
	Start *time.Time
	End   *time.Time
}

// Options tunes an Aggregator. Zero values fall back to defaults.
type Options struct {
	DomainTimeout time.Duration
	Currency      string
}

type Aggregator struct {
	store    storage.Provider
	days     utils.DayBoundary
	timeout  time.Duration
	currency string
	now      func() time.Time
}

func NewAggregator(store storage.Provider, days utils.DayBoundary, opts Options) *Aggregator {
	if opts.DomainTimeout <= 0 {
		opts.DomainTimeout = constants.DefaultDomainTimeout
	}
	if opts.Currency == "" {
		opts.Currency = constants.DefaultCurrency
	}
	return &Aggregator{
		store:    store,
		days:     days,
		timeout:  opts.DomainTimeout,
		currency: strings.ToUpper(opts.Currency),
		now:      time.Now,
	}
}

// window is the resolved range handed to each domain reader.
type window struct {
	ownerID  string
	startKey string
	endKey   string
	todayKey string
	days     int
}

// Summarize resolves req into a date range and aggregates every domain over it.
func (a *Aggregator) Summarize(ctx context.Context, ownerID string, req Request) (models.AnalyticsSummary, error) {
	started := time.Now()
	defer observability.ObserveSummarize(started)

	if strings.TrimSpace(ownerID) == "" {
		return models.AnalyticsSummary{}, lerrors.Invalid("owner_id", "is required")
	}

	now := req.Now
	if now.IsZero() {
		now = a.now()
	}
	name := req.Range
	if name == "" {
		name = constants.RangeDaily
	}

	r, err := a.days.ResolveRange(name, now, req.Start, req.End)
	if err != nil {
		return models.AnalyticsSummary{}, err
	}

	w := window{ownerID: ownerID, todayKey: a.days.DayKey(now), days: r.Days()}
	w.startKey, w.endKey = r.Keys()

	summary := models.AnalyticsSummary{
		Range: string(r.Name),
		Start: r.Start,
		End:   r.End,
	}

	log := logger.With("owner", ownerID, "range", r.Name)

	var wg sync.WaitGroup
	run := func(domain string, read func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			domainCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			if err := read(domainCtx); err != nil {
				observability.RecordDomainFailure(domain)
				log.Warn("Analytics domain read failed, using zero default", "domain", domain, "error", err)
			}
		}()
	}

	// Each reader assigns only its own field, and only on success.
	run(DomainHabits, func(ctx context.Context) error {
		s, err := a.habits(ctx, w)
		if err == nil {
			summary.Habits = s
		}
		return err
	})
	run(DomainSleep, func(ctx context.Context) error {
		s, err := a.sleep(ctx, w)
		if err == nil {
			summary.Sleep = s
		}
		return err
	})
	run(DomainStudy, func(ctx context.Context) error {
		s, err := a.study(ctx, w)
		if err == nil {
			summary.Study = s
		}
		return err
	})
	run(DomainExpenses, func(ctx context.Context) error {
		s, err := a.expenses(ctx, w)
		if err == nil {
			summary.Expenses = s
		}
		return err
	})
	run(DomainFood, func(ctx context.Context) error {
		s, err := a.food(ctx, w)
		if err == nil {
			summary.Food = s
		}
		return err
	})
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return models.AnalyticsSummary{}, fmt.Errorf("summary abandoned: %w", err)
	}
	if summary.Expenses.ByCategory == nil {
		summary.Expenses = emptyExpenses(a.currency)
	}
	log.Debug("Summary computed", "start", w.startKey, "end", w.endKey, "elapsed", time.Since(started))
	return summary, nil
}

// HabitStreak reports the current and longest streak of one owned habit as of now.
func (a *Aggregator) HabitStreak(ctx context.Context, ownerID, habitID string, now time.Time) (streak.Info, error) {
	habit, err := a.store.GetHabit(ctx, ownerID, habitID)
	if err != nil {
		return streak.Info{}, err
	}
	if now.IsZero() {
		now = a.now()
	}
	today := a.days.DayKey(now)

	checkIns, err := a.store.ListCheckInsForHabit(ctx, ownerID, habit.ID, storage.MinDay, today)
	if err != nil {
		return streak.Info{}, err
	}
	return streak.Compute(checkIns, habit, today), nil
}
