package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/models"
)

const habitColumns = "id, owner_id, title, kind, schedule, target, archived, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var target sql.NullInt64
	var createdAt, updatedAt string

	if err := row.Scan(&h.ID, &h.OwnerID, &h.Title, &h.Kind, &h.Schedule, &target, &h.Archived, &createdAt, &updatedAt); err != nil {
		return models.Habit{}, err
	}
	if target.Valid {
		n := int(target.Int64)
		h.Target = &n
	}

	var err error
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.OwnerID, habit.Title, habit.Kind, habit.Schedule, nullTarget(habit.Target),
		habit.Archived, formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET title = ?, kind = ?, schedule = ?, target = ?, archived = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		habit.Title, habit.Kind, habit.Schedule, nullTarget(habit.Target), habit.Archived,
		formatTime(habit.UpdatedAt), habit.ID, habit.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return expectOneRow(result, "habit %s", habit.ID)
}

func (s *Store) GetHabit(ctx context.Context, ownerID, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = ? AND owner_id = ?`, id, ownerID)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, lerrors.NotFoundf("habit %s", id)
	}
	return h, err
}

func (s *Store) ListHabits(ctx context.Context, ownerID string, includeArchived bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE owner_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) SetHabitArchived(ctx context.Context, ownerID, id string, archived bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET archived = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ? AND owner_id = ?`,
		archived, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(result, "habit %s", id)
}

func nullTarget(target *int) sql.NullInt64 {
	if target == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*target), Valid: true}
}

func expectOneRow(result sql.Result, format string, args ...interface{}) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return lerrors.NotFoundf(format, args...)
	}
	return nil
}
