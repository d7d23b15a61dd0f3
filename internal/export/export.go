// Package export moves one owner's records in and out of a portable JSON
// bundle, optionally age-encrypted with a passphrase.
package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/google/uuid"

	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/logger"
	"github.com/julianstephens/lifelog/internal/models"
	"github.com/julianstephens/lifelog/internal/storage"
)

// FormatVersion is bumped whenever the bundle layout changes incompatibly.
const FormatVersion = 1

var (
	// ErrWrongPassphrase is returned when an encrypted bundle cannot be opened.
	ErrWrongPassphrase = errors.New("wrong passphrase")
	// ErrPassphraseRequired is returned when reading an encrypted bundle without a passphrase.
	ErrPassphraseRequired = errors.New("bundle is encrypted; a passphrase is required")
)

// Bundle is the on-disk export of one owner's records between two day keys.
type Bundle struct {
	Version    int                   `json:"version"`
	OwnerID    string                `json:"owner_id"`
	ExportedAt time.Time             `json:"exported_at"`
	StartDay   string                `json:"start_day"`
	EndDay     string                `json:"end_day"`
	Habits     []models.Habit        `json:"habits"`
	CheckIns   []models.CheckIn      `json:"check_ins"`
	Sleep      []models.SleepEntry   `json:"sleep"`
	Journal    []models.JournalEntry `json:"journal"`
	Study      []models.StudySession `json:"study"`
	Food       []models.FoodEntry    `json:"food"`
	Expenses   []models.ExpenseEntry `json:"expenses"`
}

// Count returns the total number of records in the bundle.
func (b Bundle) Count() int {
	return len(b.Habits) + len(b.CheckIns) + len(b.Sleep) + len(b.Journal) +
		len(b.Study) + len(b.Food) + len(b.Expenses)
}

// Build reads every record of ownerID with a day key in [startDay, endDay].
// Habits are exported in full, archived ones included.
func Build(ctx context.Context, store storage.Provider, ownerID, startDay, endDay string) (Bundle, error) {
	if ownerID == "" {
		return Bundle{}, lerrors.Invalid("owner_id", "is required")
	}
	if startDay > endDay {
		return Bundle{}, lerrors.InvalidRangef("start %s is after end %s", startDay, endDay)
	}

	b := Bundle{
		Version:    FormatVersion,
		OwnerID:    ownerID,
		ExportedAt: time.Now().UTC(),
		StartDay:   startDay,
		EndDay:     endDay,
	}

	var err error
	if b.Habits, err = store.ListHabits(ctx, ownerID, true); err != nil {
		return Bundle{}, fmt.Errorf("failed to export habits: %w", err)
	}
	for _, h := range b.Habits {
		checkIns, err := store.ListCheckInsForHabit(ctx, ownerID, h.ID, startDay, endDay)
		if err != nil {
			return Bundle{}, fmt.Errorf("failed to export check-ins for %s: %w", h.ID, err)
		}
		b.CheckIns = append(b.CheckIns, checkIns...)
	}
	if b.Sleep, err = store.ListSleep(ctx, ownerID, startDay, endDay); err != nil {
		return Bundle{}, fmt.Errorf("failed to export sleep: %w", err)
	}
	if b.Journal, err = store.ListJournal(ctx, ownerID, startDay, endDay); err != nil {
		return Bundle{}, fmt.Errorf("failed to export journal: %w", err)
	}
	if b.Study, err = store.ListStudySessions(ctx, ownerID, startDay, endDay); err != nil {
		return Bundle{}, fmt.Errorf("failed to export study sessions: %w", err)
	}
	if b.Food, err = store.ListFoodEntries(ctx, ownerID, startDay, endDay); err != nil {
		return Bundle{}, fmt.Errorf("failed to export food entries: %w", err)
	}
	if b.Expenses, err = store.ListExpenses(ctx, ownerID, startDay, endDay); err != nil {
		return Bundle{}, fmt.Errorf("failed to export expenses: %w", err)
	}

	logger.Debug("Built export bundle", "owner", ownerID, "start", startDay, "end", endDay, "records", b.Count())
	return b, nil
}

// Write encodes b as indented JSON, armored and age-encrypted when passphrase is set.
func Write(w io.Writer, b Bundle, passphrase string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing bundle: %w", err)
	}

	if passphrase == "" {
		_, err := w.Write(append(data, '\n'))
		return err
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating age recipient: %w", err)
	}

	armorWriter := armor.NewWriter(w)
	encWriter, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return fmt.Errorf("initializing age encryption: %w", err)
	}
	if _, err := encWriter.Write(data); err != nil {
		return fmt.Errorf("encrypting bundle: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return fmt.Errorf("finalizing armor: %w", err)
	}
	return nil
}

// Read decodes a bundle written by Write. Plain JSON bundles ignore passphrase.
func Read(r io.Reader, passphrase string) (Bundle, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(armor.Header))

	var src io.Reader = br
	if bytes.Equal(head, []byte(armor.Header)) {
		if passphrase == "" {
			return Bundle{}, ErrPassphraseRequired
		}
		identity, err := age.NewScryptIdentity(passphrase)
		if err != nil {
			return Bundle{}, fmt.Errorf("creating age identity: %w", err)
		}
		plain, err := age.Decrypt(armor.NewReader(br), identity)
		if err != nil {
			// age reports a bad passphrase only through its message
			msg := err.Error()
			if strings.Contains(msg, "no identity matched") || strings.Contains(msg, "incorrect") {
				return Bundle{}, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
			}
			return Bundle{}, fmt.Errorf("decrypting bundle: %w", err)
		}
		src = plain
	}

	var b Bundle
	if err := json.NewDecoder(src).Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decoding bundle: %w", err)
	}
	if b.Version != FormatVersion {
		return Bundle{}, fmt.Errorf("unsupported bundle version %d (expected %d)", b.Version, FormatVersion)
	}
	return b, nil
}

// Result counts what Restore wrote and skipped.
type Result struct {
	Written int
	Skipped int
}

// Restore writes b into store under ownerID. Habits that already exist are
// kept as they are. Singleton-per-day records go through the store's upserts
// so the bundle wins for its days; multi-per-day records whose id is already
// present are skipped.
//
// A bundle exported by another owner is re-keyed first: every record id is
// replaced by a name-based UUID derived from ownerID and the original id, so
// the import never collides with the exporter's rows and stays idempotent.
// Check-ins must reference a habit in the bundle or one ownerID already has;
// this is verified before anything is written. Writes are not transactional,
// so a store failure part way through leaves the earlier records in place.
func Restore(ctx context.Context, store storage.Provider, ownerID string, b Bundle) (Result, error) {
	if ownerID == "" {
		return Result{}, lerrors.Invalid("owner_id", "is required")
	}
	if b.OwnerID != "" && b.OwnerID != ownerID {
		b = rekey(b, ownerID)
	}
	if err := checkHabitRefs(ctx, store, ownerID, b); err != nil {
		return Result{}, err
	}
	var res Result

	for _, h := range b.Habits {
		h.OwnerID = ownerID
		if _, err := store.GetHabit(ctx, ownerID, h.ID); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, lerrors.ErrNotFound) {
			return res, err
		}
		if err := store.AddHabit(ctx, h); err != nil {
			return res, fmt.Errorf("failed to import habit %s: %w", h.ID, err)
		}
		res.Written++
	}

	for _, c := range b.CheckIns {
		c.OwnerID = ownerID
		if _, err := store.UpsertCheckIn(ctx, c); err != nil {
			return res, fmt.Errorf("failed to import check-in %s: %w", c.ID, err)
		}
		res.Written++
	}
	for _, e := range b.Sleep {
		e.OwnerID = ownerID
		if _, err := store.UpsertSleep(ctx, e); err != nil {
			return res, fmt.Errorf("failed to import sleep for %s: %w", e.Day, err)
		}
		res.Written++
	}
	for _, e := range b.Journal {
		e.OwnerID = ownerID
		if _, err := store.UpsertJournal(ctx, e); err != nil {
			return res, fmt.Errorf("failed to import journal for %s: %w", e.Day, err)
		}
		res.Written++
	}

	seen, err := existingIDs(ctx, store, ownerID, b.StartDay, b.EndDay)
	if err != nil {
		return res, err
	}
	for _, s := range b.Study {
		s.OwnerID = ownerID
		if err := addOnce(seen, s.ID, &res, func() error { return store.AddStudySession(ctx, s) }); err != nil {
			return res, fmt.Errorf("failed to import study session %s: %w", s.ID, err)
		}
	}
	for _, f := range b.Food {
		f.OwnerID = ownerID
		if err := addOnce(seen, f.ID, &res, func() error { return store.AddFoodEntry(ctx, f) }); err != nil {
			return res, fmt.Errorf("failed to import food entry %s: %w", f.ID, err)
		}
	}
	for _, e := range b.Expenses {
		e.OwnerID = ownerID
		if err := addOnce(seen, e.ID, &res, func() error { return store.AddExpense(ctx, e) }); err != nil {
			return res, fmt.Errorf("failed to import expense %s: %w", e.ID, err)
		}
	}

	logger.Info("Restored export bundle", "owner", ownerID, "written", res.Written, "skipped", res.Skipped)
	return res, nil
}

// checkHabitRefs fails when a check-in points at a habit that is neither in
// the bundle nor owned by ownerID.
func checkHabitRefs(ctx context.Context, store storage.Provider, ownerID string, b Bundle) error {
	known := make(map[string]bool, len(b.Habits))
	for _, h := range b.Habits {
		known[h.ID] = true
	}
	for _, c := range b.CheckIns {
		if known[c.HabitID] {
			continue
		}
		if _, err := store.GetHabit(ctx, ownerID, c.HabitID); err != nil {
			if errors.Is(err, lerrors.ErrNotFound) {
				return lerrors.Invalid("check_ins", fmt.Sprintf("check-in %s references unknown habit %s", c.ID, c.HabitID))
			}
			return err
		}
		known[c.HabitID] = true
	}
	return nil
}

// rekey returns a copy of b whose record ids are derived from ownerID.
func rekey(b Bundle, ownerID string) Bundle {
	id := func(old string) string {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ownerID+"/"+old)).String()
	}

	out := b
	out.Habits = make([]models.Habit, len(b.Habits))
	for i, h := range b.Habits {
		h.ID = id(h.ID)
		out.Habits[i] = h
	}
	out.CheckIns = make([]models.CheckIn, len(b.CheckIns))
	for i, c := range b.CheckIns {
		c.ID, c.HabitID = id(c.ID), id(c.HabitID)
		out.CheckIns[i] = c
	}
	out.Sleep = make([]models.SleepEntry, len(b.Sleep))
	for i, e := range b.Sleep {
		e.ID = id(e.ID)
		out.Sleep[i] = e
	}
	out.Journal = make([]models.JournalEntry, len(b.Journal))
	for i, e := range b.Journal {
		e.ID = id(e.ID)
		out.Journal[i] = e
	}
	out.Study = make([]models.StudySession, len(b.Study))
	for i, e := range b.Study {
		e.ID = id(e.ID)
		out.Study[i] = e
	}
	out.Food = make([]models.FoodEntry, len(b.Food))
	for i, e := range b.Food {
		e.ID = id(e.ID)
		out.Food[i] = e
	}
	out.Expenses = make([]models.ExpenseEntry, len(b.Expenses))
	for i, e := range b.Expenses {
		e.ID = id(e.ID)
		out.Expenses[i] = e
	}
	out.OwnerID = ownerID
	return out
}

func addOnce(seen map[string]bool, id string, res *Result, add func() error) error {
	if seen[id] {
		res.Skipped++
		return nil
	}
	if err := add(); err != nil {
		return err
	}
	seen[id] = true
	res.Written++
	return nil
}

// existingIDs collects ids of multi-per-day records already stored in the bundle's window.
func existingIDs(ctx context.Context, store storage.Provider, ownerID, startDay, endDay string) (map[string]bool, error) {
	seen := make(map[string]bool)
	if startDay == "" || endDay == "" {
		return seen, nil
	}

	study, err := store.ListStudySessions(ctx, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	for _, s := range study {
		seen[s.ID] = true
	}
	food, err := store.ListFoodEntries(ctx, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	for _, f := range food {
		seen[f.ID] = true
	}
	expenses, err := store.ListExpenses(ctx, ownerID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		seen[e.ID] = true
	}
	return seen, nil
}
