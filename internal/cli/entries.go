package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/lifelog/internal/constants"
	"github.com/julianstephens/lifelog/internal/ledger"
)

type SleepCmd struct {
	Log SleepLogCmd `cmd:"" help:"Record last night's sleep (replaces the day's entry)."`
}

type SleepLogCmd struct {
	Start string `help:"Bedtime as HH:MM or an ISO-8601 datetime." required:""`
	End   string `help:"Wake time as HH:MM or an ISO-8601 datetime." required:""`
	Date  string `help:"Day the sleep belongs to (default: today)." default:""`
	Notes string `help:"Optional notes." default:""`
}

func (c *SleepLogCmd) Run(ctx *Context) error {
	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}

	start, end, err := ctx.sleepWindow(instant, c.Start, c.End)
	if err != nil {
		return err
	}

	entry, err := ctx.Ledger.LogSleep(context.Background(), ctx.OwnerID, instant, ledger.SleepInput{
		Start: start,
		End:   end,
		Notes: c.Notes,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Logged sleep for %s: %s\n", entry.Day, formatMinutes(entry.DurationMinutes))
	return nil
}

// sleepWindow resolves bedtime and wake time. Clock times are anchored to the
// day of instant; a bedtime later than the wake time falls on the previous day.
func (c *Context) sleepWindow(instant time.Time, startRaw, endRaw string) (time.Time, time.Time, error) {
	days := c.Days()
	startClock, startIsClock := parseClock(startRaw)
	endClock, endIsClock := parseClock(endRaw)

	if startIsClock != endIsClock {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end must both be HH:MM or both be datetimes")
	}

	if !startIsClock {
		start, err := days.ParseInstant(startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		end, err := days.ParseInstant(endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		return start, end, nil
	}

	midnight := days.StartOfDay(instant)
	end := midnight.Add(endClock)
	start := midnight.Add(startClock)
	if startClock > endClock {
		start = start.AddDate(0, 0, -1)
	}
	return start, end, nil
}

// parseClock reads HH:MM as an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

type JournalCmd struct {
	Write JournalWriteCmd `cmd:"" help:"Write the day's journal entry (replaces any earlier one)."`
}

type JournalWriteCmd struct {
	Summary   string   `help:"One-line summary of the day. Prompts when empty." default:""`
	Highlight []string `help:"A highlight of the day (repeatable, at most 10)." name:"highlight" short:"H" sep:"none"`
	Date      string   `help:"Day to write (default: today)." default:""`
}

func (c *JournalWriteCmd) Run(ctx *Context) error {
	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}

	summary := c.Summary
	highlights := c.Highlight
	if strings.TrimSpace(summary) == "" {
		if !Interactive() {
			return fmt.Errorf("--summary is required when not running in a terminal")
		}
		summary, highlights, err = promptJournal(highlights)
		if err != nil {
			return err
		}
	}

	entry, err := ctx.Ledger.WriteJournal(context.Background(), ctx.OwnerID, instant, ledger.JournalInput{
		Summary:    summary,
		Highlights: highlights,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Saved journal for %s (%d highlight(s))\n", entry.Day, len(entry.Highlights))
	return nil
}

func promptJournal(highlights []string) (string, []string, error) {
	var summary string
	extra := strings.Join(highlights, "\n")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Summary").
				Description("How did the day go?").
				Value(&summary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("summary cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Highlights").
				Description(fmt.Sprintf("One per line, at most %d.", constants.MaxJournalHighlights)).
				Value(&extra),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return "", nil, err
	}
	return summary, splitLines(extra), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type StudyCmd struct {
	Add StudyAddCmd `cmd:"" help:"Add a study session."`
}

type StudyAddCmd struct {
	Subject string `arg:"" help:"What was studied."`
	Minutes int    `help:"Time spent in minutes." required:""`
	Notes   string `help:"Optional notes." default:""`
	Date    string `help:"Day or instant of the session (default: now)." default:""`
}

func (c *StudyAddCmd) Run(ctx *Context) error {
	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}
	session, err := ctx.Ledger.AddStudySession(context.Background(), ctx.OwnerID, instant, ledger.StudyInput{
		Subject:   c.Subject,
		TimeSpent: c.Minutes,
		Notes:     c.Notes,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added study session: %s, %d min on %s\n", session.Subject, session.TimeSpent, session.Day)
	return nil
}

type FoodCmd struct {
	Add FoodAddCmd `cmd:"" help:"Add a meal."`
}

type FoodAddCmd struct {
	Meal     string   `arg:"" help:"Meal type, e.g. breakfast, lunch, dinner, snack."`
	Item     []string `help:"A food item (repeatable)." name:"item" short:"i" sep:"none"`
	Calories float64  `help:"Calories for the meal (negative means not recorded)." default:"-1"`
	Date     string   `help:"Day or instant of the meal (default: now)." default:""`
}

func (c *FoodAddCmd) Run(ctx *Context) error {
	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}

	var calories *float64
	if c.Calories >= 0 {
		cal := c.Calories
		calories = &cal
	}

	entry, err := ctx.Ledger.AddFoodEntry(context.Background(), ctx.OwnerID, instant, ledger.FoodInput{
		MealType: c.Meal,
		Items:    c.Item,
		Calories: calories,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added %s on %s (%d item(s))\n", entry.MealType, entry.Day, len(entry.Items))
	return nil
}

type ExpenseCmd struct {
	Add ExpenseAddCmd `cmd:"" help:"Add an expense."`
}

type ExpenseAddCmd struct {
	Amount      string `arg:"" help:"Amount, e.g. 12.50."`
	Category    string `help:"Expense category." required:""`
	Currency    string `help:"ISO currency code (default: ledger currency)." default:""`
	Description string `help:"Optional description." default:""`
	Date        string `help:"Day or instant of the expense (default: now)." default:""`
}

func (c *ExpenseAddCmd) Run(ctx *Context) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Amount))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Amount, err)
	}

	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Ledger.AddExpense(context.Background(), ctx.OwnerID, instant, ledger.ExpenseInput{
		Amount:      amount,
		Currency:    c.Currency,
		Category:    c.Category,
		Description: c.Description,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added expense: %s %s (%s) on %s\n", entry.Amount.StringFixed(2), entry.Currency, entry.Category, entry.Day)
	return nil
}
