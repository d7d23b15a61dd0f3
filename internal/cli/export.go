package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lifelog/internal/export"
	"github.com/julianstephens/lifelog/internal/storage"
)

const passphraseEnv = "LIFELOG_EXPORT_PASSPHRASE"

type ExportCmd struct {
	Start   string `help:"First day to export (default: all history)." default:""`
	End     string `help:"Last day to export (default: today)." default:""`
	Out     string `short:"o" help:"Output file (default: stdout)." default:""`
	Encrypt bool   `help:"Encrypt the bundle with a passphrase (age). Reads LIFELOG_EXPORT_PASSPHRASE or prompts."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	startDay, endDay, err := c.window(ctx)
	if err != nil {
		return err
	}

	passphrase := ""
	if c.Encrypt {
		if passphrase, err = readPassphrase(true); err != nil {
			return err
		}
	}

	bundle, err := export.Build(context.Background(), ctx.Store, ctx.OwnerID, startDay, endDay)
	if err != nil {
		return err
	}

	if c.Out == "" {
		return export.Write(ctx.Out, bundle, passphrase)
	}
	if err := writeFileAtomic(c.Out, func(w io.Writer) error {
		return export.Write(w, bundle, passphrase)
	}); err != nil {
		return err
	}
	ctx.Printf("Exported %d record(s) to %s\n", bundle.Count(), c.Out)
	return nil
}

func (c *ExportCmd) window(ctx *Context) (string, string, error) {
	days := ctx.Days()
	startDay, endDay := storage.MinDay, days.DayKey(ctx.Now())
	if c.Start != "" {
		t, err := days.ParseInstant(c.Start)
		if err != nil {
			return "", "", fmt.Errorf("invalid --start: %w", err)
		}
		startDay = days.DayKey(t)
	}
	if c.End != "" {
		t, err := days.ParseInstant(c.End)
		if err != nil {
			return "", "", fmt.Errorf("invalid --end: %w", err)
		}
		endDay = days.DayKey(t)
	}
	return startDay, endDay, nil
}

type ImportCmd struct {
	File string `arg:"" help:"Bundle written by 'lifelog export'."`
}

func (c *ImportCmd) Run(ctx *Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	bundle, err := export.Read(f, os.Getenv(passphraseEnv))
	if errors.Is(err, export.ErrPassphraseRequired) {
		passphrase, perr := readPassphrase(false)
		if perr != nil {
			return perr
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		bundle, err = export.Read(f, passphrase)
	}
	if err != nil {
		return err
	}

	if bundle.OwnerID != ctx.OwnerID {
		ctx.Printf("Importing records exported for %q as %q\n", bundle.OwnerID, ctx.OwnerID)
	}
	res, err := export.Restore(context.Background(), ctx.Store, ctx.OwnerID, bundle)
	if err != nil {
		return err
	}
	ctx.Printf("Imported %d record(s), skipped %d already present\n", res.Written, res.Skipped)
	return nil
}

// readPassphrase takes the passphrase from the environment, or prompts for it.
func readPassphrase(confirm bool) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}
	if !Interactive() {
		return "", fmt.Errorf("a passphrase is required; set %s", passphraseEnv)
	}

	var passphrase, repeat string
	fields := []huh.Field{
		huh.NewInput().
			Title("Passphrase").
			EchoMode(huh.EchoModePassword).
			Value(&passphrase).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("passphrase cannot be empty")
				}
				return nil
			}),
	}
	if confirm {
		fields = append(fields, huh.NewInput().
			Title("Repeat passphrase").
			EchoMode(huh.EchoModePassword).
			Value(&repeat))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula()).Run(); err != nil {
		return "", err
	}
	if confirm && passphrase != repeat {
		return "", fmt.Errorf("passphrases do not match")
	}
	return passphrase, nil
}

// writeFileAtomic writes through a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lifelog-export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing export file: %w", err)
	}
	committed = true
	return nil
}
