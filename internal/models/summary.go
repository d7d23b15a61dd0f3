package models

import "time"

// AnalyticsSummary is the derived, per-request rollup of one owner's records.
type AnalyticsSummary struct {
	Range    string         `json:"range"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Habits   HabitSummary   `json:"habits"`
	Sleep    SleepSummary   `json:"sleep"`
	Study    StudySummary   `json:"study"`
	Expenses ExpenseSummary `json:"expenses"`
	Food     FoodSummary    `json:"food"`
}

type HabitSummary struct {
	CompletionRate float64 `json:"completionRate"`
	TotalHabits    int     `json:"totalHabits"`
	ActiveStreaks  int     `json:"activeStreaks"`
}

type SleepSummary struct {
	AverageDurationMinutes float64 `json:"averageDurationMinutes"`
	TotalDays              int     `json:"totalDays"`
}

type StudySummary struct {
	TotalHours    float64 `json:"totalHours"`
	TotalSessions int     `json:"totalSessions"`
}

// ExpenseSummary sums amounts across currencies without conversion.
// Currency names the single largest currency total and is for display only.
type ExpenseSummary struct {
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"byCategory"`
	Currency   string             `json:"currency"`
}

type FoodSummary struct {
	TotalMeals      int     `json:"totalMeals"`
	AverageCalories float64 `json:"averageCalories"`
}
