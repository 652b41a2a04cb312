package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// SetupDatabase creates the state database named by the config file and brings its schema up to date.
//
// A missing config file is created from the defaults first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := shared.ResolveConfigPath(cmd.String("config"))

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}
	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	before := 0
	if _, err := os.Stat(config.Database.Path); err == nil {
		if existing, err := shared.NewDatabase(config.Database.Path); err == nil {
			if applied, err := shared.AppliedVersions(existing); err == nil {
				before = len(applied)
			}
			existing.Close()
		}
	}

	r.logger.Info("initializing state database", "path", config.Database.Path)
	db, err := shared.OpenStateDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration versions: %w", err)
	}

	r.logger.Info("state database ready", "path", config.Database.Path, "applied", len(applied)-before)
	return r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, len(applied)-before)
}

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := shared.ResolveConfigPath(cmd.String("config"))
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", configPath)
	return r.writePlain("✓ Configuration written to %s\n", configPath)
}
