package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/lifelog/internal/models"
)

const (
	sleepColumns   = "id, owner_id, day, start_at, end_at, duration_minutes, notes, created_at, updated_at"
	journalColumns = "id, owner_id, day, summary, highlights, created_at, updated_at"
)

func scanSleep(row rowScanner) (models.SleepEntry, error) {
	var e models.SleepEntry
	var startAt, endAt, createdAt, updatedAt string

	if err := row.Scan(&e.ID, &e.OwnerID, &e.Day, &startAt, &endAt, &e.DurationMinutes, &e.Notes, &createdAt, &updatedAt); err != nil {
		return models.SleepEntry{}, err
	}

	var err error
	if e.Start, err = parseTime("start_at", startAt); err != nil {
		return models.SleepEntry{}, err
	}
	if e.End, err = parseTime("end_at", endAt); err != nil {
		return models.SleepEntry{}, err
	}
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.SleepEntry{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.SleepEntry{}, err
	}
	return e, nil
}

func scanJournal(row rowScanner) (models.JournalEntry, error) {
	var e models.JournalEntry
	var highlights, createdAt, updatedAt string

	if err := row.Scan(&e.ID, &e.OwnerID, &e.Day, &e.Summary, &highlights, &createdAt, &updatedAt); err != nil {
		return models.JournalEntry{}, err
	}
	if err := json.Unmarshal([]byte(highlights), &e.Highlights); err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to decode highlights: %w", err)
	}

	var err error
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.JournalEntry{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.JournalEntry{}, err
	}
	return e, nil
}

// UpsertSleep writes the owner's sleep entry for the day, replacing every field on conflict.
func (s *Store) UpsertSleep(ctx context.Context, entry models.SleepEntry) (models.SleepEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sleep_entries (`+sleepColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, day) DO UPDATE SET
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			duration_minutes = excluded.duration_minutes,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING `+sleepColumns,
		entry.ID, entry.OwnerID, entry.Day, formatTime(entry.Start), formatTime(entry.End),
		entry.DurationMinutes, entry.Notes, formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))

	saved, err := scanSleep(row)
	if err != nil {
		return models.SleepEntry{}, fmt.Errorf("failed to upsert sleep entry: %w", err)
	}
	return saved, nil
}

func (s *Store) ListSleep(ctx context.Context, ownerID string, startDay, endDay string) ([]models.SleepEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sleepColumns+`
		FROM sleep_entries WHERE owner_id = ? AND day >= ? AND day <= ?
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

// UpsertJournal writes the owner's journal entry for the day, replacing every field on conflict.
func (s *Store) UpsertJournal(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	highlights, err := json.Marshal(nonNilStrings(entry.Highlights))
	if err != nil {
		return models.JournalEntry{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, day) DO UPDATE SET
			summary = excluded.summary,
			highlights = excluded.highlights,
			updated_at = excluded.updated_at
		RETURNING `+journalColumns,
		entry.ID, entry.OwnerID, entry.Day, entry.Summary, string(highlights),
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))

	saved, err := scanJournal(row)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to upsert journal entry: %w", err)
	}
	return saved, nil
}

func (s *Store) ListJournal(ctx context.Context, ownerID string, startDay, endDay string) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries WHERE owner_id = ? AND day >= ? AND day <= ?
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

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
