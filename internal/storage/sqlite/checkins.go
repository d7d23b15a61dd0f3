package sqlite

import (
	"context"
	"fmt"

	"github.com/julianstephens/lifelog/internal/models"
)

const checkInColumns = "id, habit_id, owner_id, day, value_kind, value, created_at, updated_at"

func scanCheckIn(row rowScanner) (models.CheckIn, error) {
	var c models.CheckIn
	var kind models.ValueKind
	var value float64
	var createdAt, updatedAt string

	if err := row.Scan(&c.ID, &c.HabitID, &c.OwnerID, &c.Day, &kind, &value, &createdAt, &updatedAt); err != nil {
		return models.CheckIn{}, err
	}
	c.Value = decodeValue(kind, value)

	var err error
	if c.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.CheckIn{}, err
	}
	if c.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.CheckIn{}, err
	}
	return c, nil
}

func decodeValue(kind models.ValueKind, value float64) models.Value {
	if kind == models.ValueKindBool {
		return models.BoolValue(value != 0)
	}
	return models.CountValue(value)
}

// UpsertCheckIn inserts or replaces the value of the (habit_id, day) check-in in one statement.
func (s *Store) UpsertCheckIn(ctx context.Context, checkIn models.CheckIn) (models.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO habit_checkins (`+checkInColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			value_kind = excluded.value_kind,
			value = excluded.value,
			updated_at = excluded.updated_at
		RETURNING `+checkInColumns,
		checkIn.ID, checkIn.HabitID, checkIn.OwnerID, checkIn.Day,
		checkIn.Value.Kind(), checkIn.Value.Numeric(),
		formatTime(checkIn.CreatedAt), formatTime(checkIn.UpdatedAt))

	saved, err := scanCheckIn(row)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("failed to upsert check-in: %w", err)
	}
	return saved, nil
}

func (s *Store) ListCheckIns(ctx context.Context, ownerID string, startDay, endDay string) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT c.id, c.habit_id, c.owner_id, c.day, c.value_kind, c.value, c.created_at, c.updated_at
		FROM habit_checkins c
		JOIN habits h ON h.id = c.habit_id AND h.owner_id = c.owner_id
		WHERE c.owner_id = ? AND h.archived = 0 AND c.day >= ? AND c.day <= ?
		ORDER BY c.day`, ownerID, startDay, endDay)
}

func (s *Store) ListCheckInsForHabit(ctx context.Context, ownerID, habitID string, startDay, endDay string) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT `+checkInColumns+`
		FROM habit_checkins
		WHERE owner_id = ? AND habit_id = ? AND day >= ? AND day <= ?
		ORDER BY day`, ownerID, habitID, startDay, endDay)
}

func (s *Store) ListRecentCheckIns(ctx context.Context, ownerID, habitID string, beforeDay string, limit int) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, `
		SELECT `+checkInColumns+`
		FROM habit_checkins
		WHERE owner_id = ? AND habit_id = ? AND day <= ?
		ORDER BY day DESC
		LIMIT ?`, ownerID, habitID, beforeDay, limit)
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
