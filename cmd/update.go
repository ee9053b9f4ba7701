package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/desertthunder/curator/internal/ui"
)

// runSummary is the JSON shape printed by "update --json".
type runSummary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  string        `json:"duration"`
	SyncError string        `json:"sync_error,omitempty"`
	Published int           `json:"published"`
	Failed    int           `json:"failed"`
	Disabled  int           `json:"disabled"`
	Lists     []listSummary `json:"lists"`
}

type listSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Submitted  int      `json:"submitted"`
	Unresolved []string `json:"unresolved,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func summarize(res *tasks.RunResult) runSummary {
	s := runSummary{
		RunID:     res.RunID,
		StartedAt: res.StartedAt,
		Duration:  res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
		Published: res.Published(),
		Failed:    res.Failed(),
		Disabled:  res.Disabled,
		Lists:     make([]listSummary, 0, len(res.Lists)),
	}
	if res.SyncErr != nil {
		s.SyncError = res.SyncErr.Error()
	}
	for _, o := range res.Lists {
		ls := listSummary{ID: o.ListID, Name: o.Name, Status: string(o.Status), Submitted: o.Submitted, Unresolved: o.Unresolved}
		if o.Err != nil {
			ls.Error = o.Err.Error()
		}
		s.Lists = append(s.Lists, ls)
	}
	return s
}

// withProgress runs fn with a progress channel drained by a printer goroutine.
func (r *Runner) withProgress(quiet bool, fn func(chan<- tasks.ProgressUpdate)) {
	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.logger.Debug("progress", "phase", u.Phase, "step", u.Step, "total", u.Total, "message", u.Message)
			if quiet || u.Message == "" {
				continue
			}
			if u.Total > 0 {
				r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
			} else {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()

	fn(progress)
	close(progress)
	wg.Wait()
}

// Update runs one full pipeline pass.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.syncEngine()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	var res *tasks.RunResult
	r.withProgress(asJSON, func(progress chan<- tasks.ProgressUpdate) {
		res, err = engine.Update(ctx, progress)
	})
	if err != nil {
		return err
	}

	if recErr := r.timer().Record(); recErr != nil {
		r.logger.Warn("could not record run time", "error", recErr)
	}

	if asJSON {
		return r.writeJSON(summarize(res), true)
	}
	r.printResult(res)
	return nil
}

func (r *Runner) printResult(res *tasks.RunResult) {
	style := ui.Styles()
	r.writePlainHeader("Update complete")
	if res.SyncErr != nil {
		r.writePlain("%s tracker sync failed, used existing data: %v\n", style.Warn("!"), res.SyncErr)
	}
	for _, o := range res.Lists {
		switch o.Status {
		case tasks.StatusPublished:
			r.writePlain("%s %s (%d titles)\n", style.OK("✓"), o.Name, o.Submitted)
			if len(o.Unresolved) > 0 {
				r.writePlain("    not found: %v\n", o.Unresolved)
			}
		case tasks.StatusSkipped:
			r.writePlain("%s %s skipped: %v\n", style.Warn("-"), o.Name, o.Err)
		default:
			r.writePlain("%s %s failed: %v\n", style.Err("✗"), o.Name, o.Err)
		}
	}
	r.writePlain("Published: %d  Failed: %d  Disabled: %d  (%s)\n",
		res.Published(), res.Failed(), res.Disabled, res.FinishedAt.Sub(res.StartedAt).Round(time.Second))
}

// Sync mirrors tracker data into the local tables only.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.syncEngine()
	if err != nil {
		return err
	}

	var res *tasks.TrackerSyncResult
	r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) {
		res, err = engine.SyncTracker(ctx, progress)
	})
	if err != nil {
		return err
	}

	for _, source := range []string{models.SourceWatchHistory, models.SourceWatchlist} {
		r.writePlain("%-14s fetched %d, stored %d new\n", source, res.Fetched[source], res.Inserted[source])
	}
	return nil
}

func (r *Runner) timer() *tasks.Timer {
	return &tasks.Timer{
		StampPath: r.config.LastRunPath(),
		Interval:  r.config.UpdateInterval(),
		Poll:      r.config.PollInterval(),
		Logger:    r.logger,
	}
}

// Watch runs updates whenever the configured interval has elapsed.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.syncEngine()
	if err != nil {
		return err
	}
	timer := r.timer()
	timer.Updater = engine

	if cmd.Bool("once") {
		var ran bool
		r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) {
			ran, err = timer.Tick(ctx, progress)
		})
		switch {
		case errors.Is(err, shared.ErrUpdateRunning):
			return r.writePlain("Already updating, please wait\n")
		case err != nil:
			return err
		case !ran:
			_, remaining := timer.Due()
			return r.writePlain("Next update in %s\n", remaining.Round(time.Minute))
		}
		return r.writePlain("✓ Update complete\n")
	}

	r.writePlain("Watching for updates every %s (Ctrl+C to stop)\n", timer.Interval)
	r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) {
		err = timer.Run(ctx, progress)
	})
	if err != nil {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	return nil
}
