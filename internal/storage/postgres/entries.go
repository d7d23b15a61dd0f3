package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/lifelog/internal/models"
)

// day is a DATE column; it is always read back as its YYYY-MM-DD key.
const dayKey = "to_char(day, 'YYYY-MM-DD')"

const (
	checkInInsert = "id, habit_id, owner_id, day, value_kind, value, created_at, updated_at"
	checkInSelect = "id, habit_id, owner_id, " + dayKey + ", value_kind, value, created_at, updated_at"

	sleepInsert = "id, owner_id, day, start_at, end_at, duration_minutes, notes, created_at, updated_at"
	sleepSelect = "id, owner_id, " + dayKey + ", start_at, end_at, duration_minutes, notes, created_at, updated_at"

	journalInsert = "id, owner_id, day, summary, highlights, created_at, updated_at"
	journalSelect = "id, owner_id, " + dayKey + ", summary, highlights, created_at, updated_at"

	studyInsert = "id, owner_id, day, subject, time_spent, notes, created_at, updated_at"
	studySelect = "id, owner_id, " + dayKey + ", subject, time_spent, notes, created_at, updated_at"

	foodInsert = "id, owner_id, day, meal_type, items, calories, created_at, updated_at"
	foodSelect = "id, owner_id, " + dayKey + ", meal_type, items, calories, created_at, updated_at"

	expenseInsert = "id, owner_id, day, amount, currency, category, description, created_at, updated_at"
	expenseSelect = "id, owner_id, " + dayKey + ", amount, currency, category, description, created_at, updated_at"
)

func scanCheckIn(row rowScanner) (models.CheckIn, error) {
	var c models.CheckIn
	var kind models.ValueKind
	var value float64

	if err := row.Scan(&c.ID, &c.HabitID, &c.OwnerID, &c.Day, &kind, &value, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.CheckIn{}, err
	}
	if kind == models.ValueKindBool {
		c.Value = models.BoolValue(value != 0)
	} else {
		c.Value = models.CountValue(value)
	}
	return c, nil
}

// UpsertCheckIn inserts or replaces the value of the (habit_id, day) check-in in one statement.
func (s *Store) UpsertCheckIn(ctx context.Context, checkIn models.CheckIn) (models.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO habit_checkins (`+checkInInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			value_kind = EXCLUDED.value_kind,
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
		RETURNING `+checkInSelect,
		checkIn.ID, checkIn.HabitID, checkIn.OwnerID, checkIn.Day,
		string(checkIn.Value.Kind()), checkIn.Value.Numeric(), checkIn.CreatedAt, checkIn.UpdatedAt)

	saved, err := scanCheckIn(row)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("failed to upsert check-in: %w", err)
	}
	return saved, nil
}

func (s *Store) ListCheckIns(ctx context.Context, ownerID string, startDay, endDay string) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT c.id, c.habit_id, c.owner_id, to_char(c.day, 'YYYY-MM-DD'), c.value_kind, c.value, c.created_at, c.updated_at
		FROM habit_checkins c
		JOIN habits h ON h.id = c.habit_id AND h.owner_id = c.owner_id
		WHERE c.owner_id = $1 AND h.archived = FALSE AND c.day >= $2 AND c.day <= $3
		ORDER BY c.day`, ownerID, startDay, endDay)
}

func (s *Store) ListCheckInsForHabit(ctx context.Context, ownerID, habitID string, startDay, endDay string) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT `+checkInSelect+`
		FROM habit_checkins
		WHERE owner_id = $1 AND habit_id = $2 AND day >= $3 AND day <= $4
		ORDER BY day`, ownerID, habitID, startDay, endDay)
}

func (s *Store) ListRecentCheckIns(ctx context.Context, ownerID, habitID string, beforeDay string, limit int) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT `+checkInSelect+`
		FROM habit_checkins
		WHERE owner_id = $1 AND habit_id = $2 AND day <= $3
		ORDER BY day DESC
		LIMIT $4`, ownerID, habitID, beforeDay, limit)
}

func (s *Store) queryCheckIns(ctx context.Context, query string, args ...any) ([]models.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkIns []models.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}

func scanSleep(row rowScanner) (models.SleepEntry, error) {
	var e models.SleepEntry
	err := row.Scan(&e.ID, &e.OwnerID, &e.Day, &e.Start, &e.End, &e.DurationMinutes, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) UpsertSleep(ctx context.Context, entry models.SleepEntry) (models.SleepEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sleep_entries (`+sleepInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, day) DO UPDATE SET
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			duration_minutes = EXCLUDED.duration_minutes,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING `+sleepSelect,
		entry.ID, entry.OwnerID, entry.Day, entry.Start, entry.End, entry.DurationMinutes, entry.Notes,
		entry.CreatedAt, entry.UpdatedAt)

	saved, err := scanSleep(row)
	if err != nil {
		return models.SleepEntry{}, fmt.Errorf("failed to upsert sleep entry: %w", err)
	}
	return saved, nil
}

func (s *Store) ListSleep(ctx context.Context, ownerID string, startDay, endDay string) ([]models.SleepEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sleepSelect+`
		FROM sleep_entries WHERE owner_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SleepEntry
	for rows.Next() {
		e, err := scanSleep(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanJournal(row rowScanner) (models.JournalEntry, error) {
	var e models.JournalEntry
	var highlights []byte
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Day, &e.Summary, &highlights, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.JournalEntry{}, err
	}
	if err := json.Unmarshal(highlights, &e.Highlights); err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to decode highlights: %w", err)
	}
	return e, nil
}

func (s *Store) UpsertJournal(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	highlights, err := json.Marshal(nonNilStrings(entry.Highlights))
	if err != nil {
		return models.JournalEntry{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO journal_entries (`+journalInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, day) DO UPDATE SET
			summary = EXCLUDED.summary,
			highlights = EXCLUDED.highlights,
			updated_at = EXCLUDED.updated_at
		RETURNING `+journalSelect,
		entry.ID, entry.OwnerID, entry.Day, entry.Summary, string(highlights), entry.CreatedAt, entry.UpdatedAt)

	saved, err := scanJournal(row)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to upsert journal entry: %w", err)
	}
	return saved, nil
}

func (s *Store) ListJournal(ctx context.Context, ownerID string, startDay, endDay string) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalSelect+`
		FROM journal_entries WHERE owner_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) AddStudySession(ctx context.Context, session models.StudySession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_sessions (`+studyInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.OwnerID, session.Day, session.Subject, session.TimeSpent, session.Notes,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add study session: %w", err)
	}
	return nil
}

func (s *Store) ListStudySessions(ctx context.Context, ownerID string, startDay, endDay string) ([]models.StudySession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+studySelect+`
		FROM study_sessions WHERE owner_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var ss models.StudySession
		if err := rows.Scan(&ss.ID, &ss.OwnerID, &ss.Day, &ss.Subject, &ss.TimeSpent, &ss.Notes, &ss.CreatedAt, &ss.UpdatedAt); err != nil {
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
		INSERT INTO food_entries (`+foodInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OwnerID, entry.Day, entry.MealType, string(items), calories,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add food entry: %w", err)
	}
	return nil
}

func (s *Store) ListFoodEntries(ctx context.Context, ownerID string, startDay, endDay string) ([]models.FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+foodSelect+`
		FROM food_entries WHERE owner_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FoodEntry
	for rows.Next() {
		var e models.FoodEntry
		var items []byte
		var calories sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Day, &e.MealType, &items, &calories, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &e.Items); err != nil {
			return nil, fmt.Errorf("failed to decode food items: %w", err)
		}
		if calories.Valid {
			c := calories.Float64
			e.Calories = &c
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) AddExpense(ctx context.Context, entry models.ExpenseEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_entries (`+expenseInsert+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.OwnerID, entry.Day, entry.Amount, entry.Currency, entry.Category, entry.Description,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string, startDay, endDay string) ([]models.ExpenseEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseSelect+`
		FROM expense_entries WHERE owner_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day, created_at`, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ExpenseEntry
	for rows.Next() {
		var e models.ExpenseEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Day, &e.Amount, &e.Currency, &e.Category, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
