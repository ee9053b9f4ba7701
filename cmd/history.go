package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/formatter"
)

// HistoryExport writes one mirrored table to a file in the requested format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	source := cmd.String("source")
	repo, err := store.Events(source)
	if err != nil {
		return err
	}
	events, err := repo.All()
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(&formatter.EventExport{Source: source, Events: events}, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported rows", "source", source, "count", len(events), "path", path)
	return r.writePlain("✓ Exported %d rows to %s\n", len(events), path)
}
