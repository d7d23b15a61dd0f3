package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lifelog/internal/ledger"
	"github.com/julianstephens/lifelog/internal/models"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a new habit."`
	List      HabitListCmd      `cmd:"" help:"List habits."`
	Edit      HabitEditCmd      `cmd:"" help:"Edit a habit."`
	Archive   HabitArchiveCmd   `cmd:"" help:"Archive a habit. Its check-ins are kept."`
	Unarchive HabitUnarchiveCmd `cmd:"" help:"Restore an archived habit."`
	Check     HabitCheckCmd     `cmd:"" help:"Record a check-in for a day (replaces that day's value)."`
	Streak    HabitStreakCmd    `cmd:"" help:"Show current and longest streak."`
}

type HabitAddCmd struct {
	Title    string `arg:"" help:"Habit title."`
	Kind     string `help:"boolean or count." enum:"boolean,count" default:"boolean"`
	Schedule string `help:"daily, weekly, monthly or custom." enum:"daily,weekly,monthly,custom" default:"daily"`
	Target   int    `help:"Daily target for count habits (0 for none)." default:"0"`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	habit, err := ctx.Ledger.CreateHabit(context.Background(), ctx.OwnerID, habitInput(c.Title, c.Kind, c.Schedule, c.Target))
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s)\n", habit.Title, habit.ID)
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	JSON     bool `help:"Print habits as JSON." name:"json"`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Ledger.ListHabits(context.Background(), ctx.OwnerID, c.Archived)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(habits)
	}

	if len(habits) == 0 {
		ctx.Printf("No habits found.\n")
		return nil
	}

	for _, habit := range habits {
		ctx.Printf("%s  %s%s\n", habit.ID, habit.Title, habitDetail(habit))
	}
	return nil
}

func habitDetail(h models.Habit) string {
	detail := fmt.Sprintf(" [%s, %s", h.Kind, h.Schedule)
	if h.Target != nil {
		detail += fmt.Sprintf(", target %d", *h.Target)
	}
	detail += "]"
	if h.Archived {
		detail += " [ARCHIVED]"
	}
	return detail
}

type HabitEditCmd struct {
	ID       string `arg:"" help:"Habit ID."`
	Title    string `help:"New title."`
	Schedule string `help:"New schedule: daily, weekly, monthly or custom." default:""`
	Target   int    `help:"New target for count habits (0 clears it)." default:"-1"`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	bg := context.Background()
	habit, err := ctx.Ledger.GetHabit(bg, ctx.OwnerID, c.ID)
	if err != nil {
		return err
	}

	in := ledger.HabitInput{
		Title:    habit.Title,
		Kind:     habit.Kind,
		Schedule: habit.Schedule,
		Target:   habit.Target,
	}
	if c.Title != "" {
		in.Title = c.Title
	}
	if c.Schedule != "" {
		in.Schedule = models.Schedule(c.Schedule)
	}
	if c.Target >= 0 {
		in.Target = positive(c.Target)
	}

	updated, err := ctx.Ledger.UpdateHabit(bg, ctx.OwnerID, c.ID, in)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s%s\n", updated.Title, habitDetail(updated))
	return nil
}

type HabitArchiveCmd struct {
	ID  string `arg:"" help:"Habit ID."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitArchiveCmd) Run(ctx *Context) error {
	bg := context.Background()
	habit, err := ctx.Ledger.GetHabit(bg, ctx.OwnerID, c.ID)
	if err != nil {
		return err
	}
	if habit.Archived {
		ctx.Printf("Habit %s is already archived.\n", habit.Title)
		return nil
	}

	if !c.Yes {
		if !Interactive() {
			return fmt.Errorf("refusing to archive without confirmation; pass --yes")
		}
		confirmed := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Archive %q?", habit.Title)).
					Description("It will drop out of summaries and streaks until unarchived.").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula()).Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Printf("Cancelled.\n")
			return nil
		}
	}

	if err := ctx.Ledger.ArchiveHabit(bg, ctx.OwnerID, c.ID); err != nil {
		return err
	}
	ctx.Printf("Archived habit: %s\n", habit.Title)
	return nil
}

type HabitUnarchiveCmd struct {
	ID string `arg:"" help:"Habit ID."`
}

func (c *HabitUnarchiveCmd) Run(ctx *Context) error {
	if err := ctx.Ledger.UnarchiveHabit(context.Background(), ctx.OwnerID, c.ID); err != nil {
		return err
	}
	ctx.Printf("Restored habit %s\n", c.ID)
	return nil
}

type HabitCheckCmd struct {
	ID    string `arg:"" help:"Habit ID."`
	Value string `arg:"" optional:"" help:"true/false for boolean habits, a number for count habits (default: true)."`
	Date  string `help:"Day or instant to record (default: now)." default:""`
}

func (c *HabitCheckCmd) Run(ctx *Context) error {
	bg := context.Background()
	habit, err := ctx.Ledger.GetHabit(bg, ctx.OwnerID, c.ID)
	if err != nil {
		return err
	}

	value, err := parseCheckInValue(habit.Kind, c.Value)
	if err != nil {
		return err
	}

	instant, err := ctx.Instant(c.Date)
	if err != nil {
		return err
	}

	checkIn, err := ctx.Ledger.CheckIn(bg, ctx.OwnerID, instant, ledger.CheckInInput{HabitID: habit.ID, Value: value})
	if err != nil {
		return err
	}

	mark := " "
	if models.IsComplete(habit, checkIn.Value) {
		mark = "✔"
	}
	ctx.Printf("%s %s on %s: %s\n", mark, habit.Title, checkIn.Day, checkIn.Value)
	return nil
}

// parseCheckInValue reads a CLI value for a habit of the given kind.
func parseCheckInValue(kind models.HabitKind, raw string) (models.Value, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch kind {
	case models.HabitKindBoolean:
		switch raw {
		case "", "true", "yes", "y", "1", "done":
			return models.BoolValue(true), nil
		case "false", "no", "n", "0":
			return models.BoolValue(false), nil
		}
		return models.Value{}, fmt.Errorf("invalid value %q for a boolean habit (use true or false)", raw)
	case models.HabitKindCount:
		if raw == "" {
			return models.Value{}, fmt.Errorf("count habits need a numeric value")
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Value{}, fmt.Errorf("invalid value %q for a count habit: %w", raw, err)
		}
		return models.CountValue(n), nil
	}
	return models.Value{}, fmt.Errorf("unknown habit kind %q", kind)
}

type HabitStreakCmd struct {
	ID   string `arg:"" help:"Habit ID."`
	JSON bool   `help:"Print the streak as JSON." name:"json"`
}

func (c *HabitStreakCmd) Run(ctx *Context) error {
	info, err := ctx.Aggregator.HabitStreak(context.Background(), ctx.OwnerID, c.ID, ctx.Now())
	if err != nil {
		return err
	}

	if c.JSON {
		return json.NewEncoder(ctx.Out).Encode(info)
	}

	ctx.Printf("Current streak: %d day(s)\n", info.Current)
	ctx.Printf("Longest streak: %d day(s)\n", info.Longest)
	if info.LastCompleted != "" {
		ctx.Printf("Last completed: %s\n", info.LastCompleted)
	}
	return nil
}

func habitInput(title, kind, schedule string, target int) ledger.HabitInput {
	return ledger.HabitInput{
		Title:    title,
		Kind:     models.HabitKind(kind),
		Schedule: models.Schedule(schedule),
		Target:   positive(target),
	}
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
