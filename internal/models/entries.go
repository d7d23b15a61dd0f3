package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SleepEntry is one night's sleep, keyed by (OwnerID, Day).
// DurationMinutes is always End - Start; spans across midnight are expected.
type SleepEntry struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Day             string    `json:"day"` // YYYY-MM-DD format
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// JournalEntry is a daily reflection, keyed by (OwnerID, Day).
type JournalEntry struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Day        string    `json:"day"`
	Summary    string    `json:"summary"`
	Highlights []string  `json:"highlights"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StudySession is a block of study time; many may exist per day.
type StudySession struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Day       string    `json:"day"`
	Subject   string    `json:"subject"`
	TimeSpent int       `json:"time_spent"` // minutes
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodEntry is one logged meal; many may exist per day.
type FoodEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Day       string    `json:"day"`
	MealType  string    `json:"meal_type"`
	Items     []string  `json:"items"`
	Calories  *float64  `json:"calories,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpenseEntry is one spend; many may exist per day.
type ExpenseEntry struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Day         string          `json:"day"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
