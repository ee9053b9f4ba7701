package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/ui"
)

// listView is the JSON shape printed by "lists show --json".
type listView struct {
	ID string `json:"id"`
	models.ListConfig
}

// ListsShow prints the configured lists in processing order.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	file, err := r.listRepository().Load()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]listView, 0, len(file.Lists))
		for _, l := range file.Lists {
			views = append(views, listView{ID: l.ID, ListConfig: l})
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	if len(file.Lists) == 0 {
		return r.writePlain("No lists configured. Add one with: curator lists add --name <name>\n")
	}

	style := ui.Styles()
	r.writePlainHeader(fmt.Sprintf("Lists (%d)", len(file.Lists)))
	for _, l := range file.Lists {
		state := style.OK("enabled")
		if !l.Enabled {
			state = style.Help("disabled")
		}
		r.writePlain("%s  %s [%s]\n", l.ID, style.Title(l.Title()), state)
		r.writePlain("    kind=%s count=%d", l.Kind, l.TargetCount)
		for _, source := range []string{models.SourceWatchHistory, models.SourceWatchlist} {
			if a, ok := l.AttachedData[source]; ok && a.ItemCount > 0 {
				r.writePlain(" %s=%d", source, a.ItemCount)
			}
		}
		r.writePlain("\n")
		if l.PromptSuffix != "" {
			r.writePlain("    prompt: %s\n", l.PromptSuffix)
		}
	}
	return nil
}

// ListsAdd validates a new list and stores it, creating the remote list first unless --id is given.
func (r *Runner) ListsAdd(ctx context.Context, cmd *cli.Command) error {
	cfg := models.ListConfig{
		ID:           strings.TrimSpace(cmd.String("id")),
		Enabled:      !cmd.Bool("disabled"),
		Name:         cmd.String("name"),
		Kind:         models.ListKind(cmd.String("kind")),
		TargetCount:  int(cmd.Int("count")),
		Description:  cmd.String("description"),
		PromptSuffix: cmd.String("prompt"),
		AttachedData: map[string]models.AttachedSource{},
	}

	mediaKind := cmd.String("media-kind")
	for source, flag := range map[string]string{models.SourceWatchHistory: "history", models.SourceWatchlist: "watchlist"} {
		if n := int(cmd.Int(flag)); n > 0 {
			cfg.AttachedData[source] = models.AttachedSource{ItemCount: n, MediaKind: mediaKind, Random: cmd.Bool("random")}
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if cfg.ID == "" {
		creds := r.credentials()
		if !creds.Catalog.Present() {
			return fmt.Errorf("%w: link the catalog with 'curator auth catalog' or pass --id", shared.ErrNotAuthenticated)
		}
		id, err := r.catalogService(creds.Catalog).Create(ctx, cfg.Name, cfg.Description)
		if err != nil {
			return err
		}
		r.logger.Info("created catalog list", "id", id, "name", cfg.Name)
		cfg.ID = id
	}

	if err := r.listRepository().Add(cfg); err != nil {
		return err
	}
	return r.writePlain("✓ Added list %s (%s)\n", cfg.ID, cfg.Name)
}

// ListsEnable includes a list in updates.
func (r *Runner) ListsEnable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(cmd, true)
}

// ListsDisable excludes a list from updates without removing it.
func (r *Runner) ListsDisable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(cmd, false)
}

func (r *Runner) setEnabled(cmd *cli.Command, enabled bool) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}
	if err := r.listRepository().SetEnabled(id, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return r.writePlain("✓ List %s %s\n", id, state)
}

// ListsRemove deletes a list configuration. The remote list is left in place.
func (r *Runner) ListsRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}
	if err := r.listRepository().Remove(id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed list %s\n", id)
}

// ListsEdit opens the interactive list editor.
func (r *Runner) ListsEdit(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(r.config.LogPath())
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)
	r.config.Notifications.Disabled = true

	engine, err := r.syncEngine()
	if err != nil {
		r.logger.Warn("updates unavailable in editor", "error", err)
	}

	model := ui.NewModel(ctx, r.listRepository(), engine)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
