package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/julianstephens/lifelog/internal/analytics"
	"github.com/julianstephens/lifelog/internal/config"
	"github.com/julianstephens/lifelog/internal/keyring"
	"github.com/julianstephens/lifelog/internal/ledger"
	"github.com/julianstephens/lifelog/internal/storage"
	"github.com/julianstephens/lifelog/internal/storage/postgres"
	"github.com/julianstephens/lifelog/internal/storage/sqlite"
	"github.com/julianstephens/lifelog/internal/utils"
)

// KeyringDatabaseURL in database.url selects the connection string held in the OS keyring.
const KeyringDatabaseURL = "keyring"

type Context struct {
	Config     *config.Config
	ConfigPath string
	Store      storage.Provider
	Ledger     *ledger.Service
	Aggregator *analytics.Aggregator
	OwnerID    string
	Out        io.Writer
	Now        func() time.Time
}

// NewContext wires the ledger and aggregator over store using cfg.
func NewContext(cfg *config.Config, store storage.Provider) *Context {
	days := utils.NewDayBoundary(cfg.Location())
	return &Context{
		Config:  cfg,
		Store:   store,
		Ledger:  ledger.NewService(store, days, cfg.Ledger.Currency),
		OwnerID: cfg.Ledger.OwnerID,
		Aggregator: analytics.NewAggregator(store, days, analytics.Options{
			DomainTimeout: cfg.Analytics.DomainTimeout.Duration,
			Currency:      cfg.Ledger.Currency,
		}),
		Out: os.Stdout,
		Now: time.Now,
	}
}

// Days returns the reference-zone day normalizer.
func (c *Context) Days() utils.DayBoundary {
	return c.Ledger.Days()
}

// Instant resolves an optional --date flag. Empty means now.
func (c *Context) Instant(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return c.Now(), nil
	}
	t, err := c.Days().ParseInstant(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return t, nil
}

func (c *Context) Printf(format string, args ...interface{}) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

// Interactive reports whether prompts can be shown on this terminal.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// OpenStore selects the storage provider for a database URL: a postgres://
// connection string, the keyring marker, or a SQLite file path.
func OpenStore(url string) (storage.Provider, error) {
	if url == KeyringDatabaseURL {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("database.url is 'keyring' but no connection string is stored; run 'lifelog keyring set'")
			}
			return nil, err
		}
		// keyring entries may carry a password
		return postgres.New(connStr), nil
	}

	if isPostgresURL(url) || strings.Contains(url, "host=") {
		if _, err := postgres.ValidateConnString(url); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: store it with 'lifelog keyring set' and set database.url = %q, or use .pgpass",
					err, KeyringDatabaseURL)
			}
			return nil, err
		}
		return postgres.New(url), nil
	}

	return sqlite.NewStore(url), nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
