package postgres

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

	if err := row.Scan(&h.ID, &h.OwnerID, &h.Title, &h.Kind, &h.Schedule, &target, &h.Archived, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return models.Habit{}, err
	}
	if target.Valid {
		n := int(target.Int64)
		h.Target = &n
	}
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		habit.ID, habit.OwnerID, habit.Title, string(habit.Kind), string(habit.Schedule), nullTarget(habit.Target),
		habit.Archived, habit.CreatedAt, habit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET title = $1, kind = $2, schedule = $3, target = $4, archived = $5, updated_at = $6
		WHERE id = $7 AND owner_id = $8`,
		habit.Title, string(habit.Kind), string(habit.Schedule), nullTarget(habit.Target), habit.Archived,
		habit.UpdatedAt, habit.ID, habit.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return expectOneRow(result, "habit %s", habit.ID)
}

func (s *Store) GetHabit(ctx context.Context, ownerID, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = $1 AND owner_id = $2`, id, ownerID)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, lerrors.NotFoundf("habit %s", id)
	}
	return h, err
}

func (s *Store) ListHabits(ctx context.Context, ownerID string, includeArchived bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE owner_id = $1"
	if !includeArchived {
		query += " AND archived = FALSE"
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
		UPDATE habits SET archived = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3`,
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
