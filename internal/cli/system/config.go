package system

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/lifelog/internal/cli"
	"github.com/julianstephens/lifelog/internal/config"
)

type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write the effective configuration to the config file."`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration (file plus environment)."`
}

type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing config file."`
}

func (c *ConfigInitCmd) Run(ctx *cli.Context) error {
	path := ctx.ConfigPath
	if path == "" {
		path = config.GetPaths().ConfigFile
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Save(path, ctx.Config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ctx.Printf("Wrote config to: %s\n", path)
	return nil
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *cli.Context) error {
	shown := *ctx.Config
	if shown.IsPostgres() {
		shown.Database.URL = maskPassword(shown.Database.URL)
	}
	out := ctx.Out
	if out == nil {
		out = os.Stdout
	}
	return toml.NewEncoder(out).Encode(shown)
}
