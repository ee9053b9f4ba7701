package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curator/internal/shared"
)

// Updater is the part of [SyncEngine] the timer drives.
type Updater interface {
	Update(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error)
}

// Timer triggers an update whenever Interval has passed since the last recorded run.
//
// The last run is stored as Unix seconds in StampPath. A missing or unreadable
// stamp counts as "never ran".
type Timer struct {
	Updater   Updater
	StampPath string
	Interval  time.Duration
	Poll      time.Duration
	Logger    *log.Logger
	Now       func() time.Time
}

func (t *Timer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Timer) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

// LastRun reads the stamp file. The zero time means no run was recorded.
func (t *Timer) LastRun() time.Time {
	data, err := os.ReadFile(t.StampPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger().Warn("could not read last run stamp", "path", t.StampPath, "error", err)
		}
		return time.Time{}
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		t.logger().Warn("invalid last run stamp, treating as never run", "path", t.StampPath, "error", err)
		return time.Time{}
	}
	return time.Unix(0, int64(secs*float64(time.Second)))
}

// Due reports whether an update should run now and how long remains otherwise.
func (t *Timer) Due() (bool, time.Duration) {
	last := t.LastRun()
	if last.IsZero() {
		return true, 0
	}
	elapsed := t.now().Sub(last)
	if elapsed >= t.Interval {
		return true, 0
	}
	return false, t.Interval - elapsed
}

// Record stamps the current time as the last run.
func (t *Timer) Record() error {
	if err := shared.EnsureDir(filepath.Dir(t.StampPath)); err != nil {
		return err
	}
	stamp := strconv.FormatInt(t.now().Unix(), 10)
	if err := os.WriteFile(t.StampPath, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("failed to write last run stamp: %w", err)
	}
	return nil
}

// Tick runs one update if one is due and reports whether it ran.
//
// The stamp is written after any attempt except one refused by the run lock,
// so a failing run is not retried until the next interval.
func (t *Timer) Tick(ctx context.Context, progress chan<- ProgressUpdate) (bool, error) {
	due, remaining := t.Due()
	if !due {
		t.logger().Debug("update not due", "remaining", remaining.Round(time.Second))
		return false, nil
	}

	_, err := t.Updater.Update(ctx, progress)
	if errors.Is(err, shared.ErrUpdateRunning) || errors.Is(err, context.Canceled) {
		return false, err
	}
	if recErr := t.Record(); recErr != nil {
		return true, errors.Join(err, recErr)
	}
	return true, err
}

// Run polls every Poll until ctx is cancelled. Update errors are logged, never fatal.
func (t *Timer) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	poll := t.Poll
	if poll <= 0 {
		poll = 5 * time.Minute
	}

	t.logger().Info("scheduler started", "interval", t.Interval, "poll", poll)
	for {
		ran, err := t.Tick(ctx, progress)
		switch {
		case err != nil && ctx.Err() == nil:
			t.logger().Error("scheduled update failed", "error", err)
		case ran:
			t.logger().Info("scheduled update complete")
		}

		if err := shared.Sleep(ctx, poll); err != nil {
			t.logger().Info("scheduler stopped")
			return nil
		}
	}
}
