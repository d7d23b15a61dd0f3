package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/lifelog/internal/cli"
	"github.com/julianstephens/lifelog/internal/cli/system"
	"github.com/julianstephens/lifelog/internal/config"
	"github.com/julianstephens/lifelog/internal/constants"
	lerrors "github.com/julianstephens/lifelog/internal/errors"
	"github.com/julianstephens/lifelog/internal/logger"
	"github.com/julianstephens/lifelog/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." default:"" env:"LIFELOG_CONFIG"`
	Database string `help:"SQLite path, PostgreSQL connection string without a password, or 'keyring'. Overrides database.url." default:""`
	Owner    string `help:"Owner id records are written for. Overrides ledger.owner_id." default:""`
	Debug    bool   `help:"Log debug output to stderr."`
	Metrics  bool   `help:"Print this run's lifelog metrics to stderr on exit."`
	NoColor  bool   `help:"Disable colored output."`

	Init    system.InitCmd    `cmd:"" help:"Initialize lifelog storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Cfg     system.ConfigCmd  `cmd:"" name:"config" help:"Manage the config file."`

	Habit   cli.HabitCmd   `cmd:"" help:"Manage habits and check-ins."`
	Sleep   cli.SleepCmd   `cmd:"" help:"Track sleep."`
	Journal cli.JournalCmd `cmd:"" help:"Keep a daily journal."`
	Study   cli.StudyCmd   `cmd:"" help:"Track study sessions."`
	Food    cli.FoodCmd    `cmd:"" help:"Track meals."`
	Expense cli.ExpenseCmd `cmd:"" help:"Track expenses."`
	Summary cli.SummaryCmd `cmd:"" help:"Summarize a date range across all domains."`
	Export  cli.ExportCmd  `cmd:"" help:"Export records to a JSON bundle, optionally encrypted."`
	Import  cli.ImportCmd  `cmd:"" help:"Import records from an exported bundle."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal activity ledger: habits, sleep, journal, study, food and expenses"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		lerrors.Fatal(err)
	}
	if CLI.Database != "" {
		cfg.Database.URL = CLI.Database
	}
	if CLI.Owner != "" {
		cfg.Ledger.OwnerID = CLI.Owner
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}

	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, DataDir: config.GetPaths().DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	if CLI.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	command := strings.Fields(ctx.Command())[0]

	// keyring and config commands run without a store
	var store storage.Provider
	if command != "keyring" && command != "config" {
		store, err = cli.OpenStore(cfg.Database.URL)
		if err != nil {
			lerrors.Fatal(err)
		}
		defer store.Close()
	}

	appCtx := cli.NewContext(cfg, store)
	appCtx.ConfigPath = CLI.Config

	// init and migrate open the database themselves
	if store != nil && command != "init" && command != "migrate" {
		if err := store.Load(context.Background()); err != nil {
			lerrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)

	if CLI.Metrics {
		if dumpErr := cli.DumpMetrics(os.Stderr, prometheus.DefaultGatherer); dumpErr != nil {
			logger.Warn("failed to dump metrics", "error", dumpErr)
		}
	}

	if err != nil {
		if store != nil {
			store.Close()
		}
		lerrors.Fatal(err)
	}
}
