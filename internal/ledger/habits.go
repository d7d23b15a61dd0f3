package ledger

import (
	"context"
	"strings"

	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/logger"
	"github.com/julianstephens/lifelog/internal/models"
)

// HabitInput carries the editable fields of a habit.
type HabitInput struct {
	Title    string
	Kind     models.HabitKind
	Schedule models.Schedule
	Target   *int
}

func (in HabitInput) validate() (HabitInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, lerrors.Invalid("title", "is required")
	}
	if _, err := models.ParseHabitKind(string(in.Kind)); err != nil {
		return in, lerrors.Invalid("kind", "must be boolean or count")
	}
	if in.Schedule == "" {
		in.Schedule = models.ScheduleDaily
	}
	if _, err := models.ParseSchedule(string(in.Schedule)); err != nil {
		return in, lerrors.Invalid("schedule", "must be daily, weekly, monthly or custom")
	}
	if in.Target != nil {
		if *in.Target <= 0 {
			return in, lerrors.Invalid("target", "must be a positive integer")
		}
		if in.Kind == models.HabitKindBoolean {
			return in, lerrors.Invalid("target", "only applies to count habits")
		}
	}
	return in, nil
}

func (s *Service) CreateHabit(ctx context.Context, ownerID string, in HabitInput) (models.Habit, error) {
	if strings.TrimSpace(ownerID) == "" {
		return models.Habit{}, lerrors.Invalid("owner_id", "is required")
	}
	in, err := in.validate()
	if err != nil {
		return models.Habit{}, err
	}

	now := s.now().UTC()
	habit := models.Habit{
		ID:        newID(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Kind:      in.Kind,
		Schedule:  in.Schedule,
		Target:    in.Target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddHabit(context.WithoutCancel(ctx), habit); err != nil {
		return models.Habit{}, err
	}
	logger.Info("Created habit", "owner", ownerID, "habit", habit.ID, "kind", habit.Kind)
	return habit, nil
}

// UpdateHabit replaces the editable fields of an owned habit. Existing
// check-ins are kept; they are judged against the new kind and target.
func (s *Service) UpdateHabit(ctx context.Context, ownerID, habitID string, in HabitInput) (models.Habit, error) {
	habit, err := s.store.GetHabit(ctx, ownerID, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	in, err = in.validate()
	if err != nil {
		return models.Habit{}, err
	}

	habit.Title = in.Title
	habit.Kind = in.Kind
	habit.Schedule = in.Schedule
	habit.Target = in.Target
	habit.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateHabit(context.WithoutCancel(ctx), habit); err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

func (s *Service) GetHabit(ctx context.Context, ownerID, habitID string) (models.Habit, error) {
	return s.store.GetHabit(ctx, ownerID, habitID)
}

func (s *Service) ListHabits(ctx context.Context, ownerID string, includeArchived bool) ([]models.Habit, error) {
	return s.store.ListHabits(ctx, ownerID, includeArchived)
}

// ArchiveHabit hides a habit from analytics and streak snapshots. Its check-ins are kept.
func (s *Service) ArchiveHabit(ctx context.Context, ownerID, habitID string) error {
	if err := s.store.SetHabitArchived(context.WithoutCancel(ctx), ownerID, habitID, true); err != nil {
		return err
	}
	logger.Info("Archived habit", "owner", ownerID, "habit", habitID)
	return nil
}

func (s *Service) UnarchiveHabit(ctx context.Context, ownerID, habitID string) error {
	if err := s.store.SetHabitArchived(context.WithoutCancel(ctx), ownerID, habitID, false); err != nil {
		return err
	}
	logger.Info("Unarchived habit", "owner", ownerID, "habit", habitID)
	return nil
}
