package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lifelog/internal/analytics"
	"github.com/julianstephens/lifelog/internal/constants"
	"github.com/julianstephens/lifelog/internal/models"
	"github.com/julianstephens/lifelog/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(20)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("236")).
			Padding(0, 1)
)

type SummaryCmd struct {
	Range string `help:"daily, weekly, mtd, ytd or custom." enum:"daily,weekly,mtd,ytd,custom" default:"daily"`
	Start string `help:"Start day for a custom range." default:""`
	End   string `help:"End day for a custom range." default:""`
	JSON  bool   `help:"Print the summary as JSON." name:"json"`
}

func (c *SummaryCmd) Run(ctx *Context) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	summary, err := ctx.Aggregator.Summarize(context.Background(), ctx.OwnerID, req)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprintln(ctx.Out, RenderSummary(summary, ctx.Days()))
	return nil
}

func (c *SummaryCmd) request(ctx *Context) (analytics.Request, error) {
	req := analytics.Request{Now: ctx.Now()}

	name, err := utils.ParseRangeName(c.Range)
	if err != nil {
		return req, err
	}
	req.Range = name
	// --start/--end imply a custom window
	if name == constants.RangeDaily && (c.Start != "" || c.End != "") {
		req.Range = constants.RangeCustom
	}

	parse := func(flag, value string) (*time.Time, error) {
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		t, err := ctx.Days().ParseInstant(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flag, err)
		}
		return &t, nil
	}
	if req.Start, err = parse("start", c.Start); err != nil {
		return req, err
	}
	if req.End, err = parse("end", c.End); err != nil {
		return req, err
	}
	return req, nil
}

// RenderSummary formats a summary as styled terminal panels.
func RenderSummary(s models.AnalyticsSummary, days utils.DayBoundary) string {
	header := titleStyle.Render(fmt.Sprintf("%s summary: %s to %s",
		strings.ToUpper(s.Range), days.DayKey(s.Start), days.DayKey(s.End)))

	sections := []string{
		header,
		panel("Habits",
			row("Completion", fmt.Sprintf("%.2f%%", s.Habits.CompletionRate)),
			row("Habits", fmt.Sprintf("%d", s.Habits.TotalHabits)),
			row("Active streaks", fmt.Sprintf("%d", s.Habits.ActiveStreaks)),
		),
		panel("Sleep",
			row("Average", formatMinutes(int(s.Sleep.AverageDurationMinutes+0.5))),
			row("Days logged", fmt.Sprintf("%d", s.Sleep.TotalDays)),
		),
		panel("Study",
			row("Hours", fmt.Sprintf("%.2f", s.Study.TotalHours)),
			row("Sessions", fmt.Sprintf("%d", s.Study.TotalSessions)),
		),
		panel("Food",
			row("Meals", fmt.Sprintf("%d", s.Food.TotalMeals)),
			row("Avg calories", fmt.Sprintf("%.2f", s.Food.AverageCalories)),
		),
		panel("Expenses", expenseRows(s.Expenses)...),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func expenseRows(e models.ExpenseSummary) []string {
	rows := []string{row("Total", fmt.Sprintf("%.2f %s", e.Total, e.Currency))}

	categories := make([]string, 0, len(e.ByCategory))
	for category := range e.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		rows = append(rows, row("  "+category, fmt.Sprintf("%.2f", e.ByCategory[category])))
	}
	return rows
}

func panel(title string, rows ...string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{sectionStyle.Render(title)}, rows...)...)
	return panelStyle.Render(body)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}
