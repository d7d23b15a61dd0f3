package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/lifelog/internal/models"
)

const (
	studyColumns   = "id, owner_id, day, subject, time_spent, notes, created_at, updated_at"
	foodColumns    = "id, owner_id, day, meal_type, items, calories, created_at, updated_at"
	expenseColumns = "id, owner_id, day, amount, currency, category, description, created_at, updated_at"
)

func (s *Store) AddStudySession(ctx context.Context, session models.StudySession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_sessions (`+studyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.OwnerID, session.Day, session.Subject, session.TimeSpent, session.Notes,
		formatTime(session.CreatedAt), formatTime(session.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add study session: %w", err)
	}
	return nil
}

func (s *Store) ListStudySessions(ctx context.Context, ownerID string, startDay, endDay string) ([]models.StudySession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+studyColumns+`
		FROM study_sessions WHERE owner_id = ? AND day >= ? AND day <= ?
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var ss models.StudySession
		var createdAt, updatedAt string
		if err := rows.Scan(&ss.ID, &ss.OwnerID, &ss.Day, &ss.Subject, &ss.TimeSpent, &ss.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if ss.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if ss.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

func (s *Store) AddFoodEntry(ctx context.Context, entry models.FoodEntry) error {
	items, err := json.Marshal(nonNilStrings(entry.Items))
	if err != nil {
		return err
	}

	var calories sql.NullFloat64
	if entry.Calories != nil {
		calories = sql.NullFloat64{Float64: *entry.Calories, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO food_entries (`+foodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Day, entry.MealType, string(items), calories,
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add food entry: %w", err)
	}
	return nil
}

func (s *Store) ListFoodEntries(ctx context.Context, ownerID string, startDay, endDay string) ([]models.FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+foodColumns+`
		FROM food_entries WHERE owner_id = ? AND day >= ? AND day <= ?
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FoodEntry
	for rows.Next() {
		var e models.FoodEntry
		var items, createdAt, updatedAt string
		var calories sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Day, &e.MealType, &items, &calories, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &e.Items); err != nil {
			return nil, fmt.Errorf("failed to decode food items: %w", err)
		}
		if calories.Valid {
			c := calories.Float64
			e.Calories = &c
		}
		if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) AddExpense(ctx context.Context, entry models.ExpenseEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_entries (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Day, entry.Amount.String(), entry.Currency, entry.Category, entry.Description,
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string, startDay, endDay string) ([]models.ExpenseEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expense_entries WHERE owner_id = ? AND day >= ? AND day <= ?
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ExpenseEntry
	for rows.Next() {
		var e models.ExpenseEntry
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Day, &e.Amount, &e.Currency, &e.Category, &e.Description, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
