package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Setup creates the config file when missing, brings the database schema up to date,
// and writes an empty lists file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.EnsureDir(filepath.Dir(r.configPath)); err != nil {
			return err
		}
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		r.setConfig(config)
	}

	if err := shared.EnsureDir(r.config.DataDir()); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.DatabasePath())
	store, err := r.openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	versions, err := shared.AppliedVersions(store.DB)
	if err != nil {
		return err
	}

	lists := r.listRepository()
	if _, err := os.Stat(lists.Path()); errors.Is(err, fs.ErrNotExist) {
		if err := lists.Save(&models.ListFile{}); err != nil {
			return err
		}
		r.logger.Info("lists file created", "path", lists.Path())
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config:     %s\n", r.configPath)
	r.writePlain("Database:   %s (migrations %v)\n", r.config.DatabasePath(), versions)
	r.writePlain("Lists file: %s\n", lists.Path())
	r.writePlainln("Next steps:")
	r.writePlain("1. curator auth tracker\n")
	r.writePlain("2. curator auth catalog\n")
	r.writePlain("3. curator auth recommender --key <api key>\n")
	r.writePlain("4. curator lists add --name \"Weekend picks\" --history 50\n")
	return nil
}

// Unlock removes the update lock marker.
func (r *Runner) Unlock(ctx context.Context, cmd *cli.Command) error {
	path := r.config.LockPath()
	if !shared.LockHeld(path) {
		return r.writePlain("No update lock at %s\n", path)
	}
	if err := shared.ForceUnlock(path); err != nil {
		return err
	}
	r.logger.Warn("removed update lock", "path", path)
	return r.writePlain("✓ Removed %s\n", path)
}
