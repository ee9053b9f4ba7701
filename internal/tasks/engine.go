package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/prompts"
	"github.com/desertthunder/curator/internal/repositories"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
)

// SyncEngine defines the list update operations.
type SyncEngine interface {
	// Update refreshes every enabled list under the run lock.
	Update(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error)

	// SyncTracker mirrors new tracker rows into the local store.
	SyncTracker(ctx context.Context, progress chan<- ProgressUpdate) (*TrackerSyncResult, error)
}

// Notifier shows short user-facing messages such as "list updated".
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

// ListStatus is how one list fared in a run.
type ListStatus string

const (
	StatusPublished ListStatus = "published"
	StatusSkipped   ListStatus = "skipped"
	StatusFailed    ListStatus = "failed"
)

// ListOutcome records the result of processing one list.
type ListOutcome struct {
	ListID     string
	Name       string
	Status     ListStatus
	Submitted  int
	Unresolved []string
	Err        error
}

// TrackerSyncResult counts rows per mirrored table.
type TrackerSyncResult struct {
	Fetched  map[string]int
	Inserted map[string]int
}

// RunResult summarises one update.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Sync       *TrackerSyncResult
	SyncErr    error // tracker failure the run continued past
	Lists      []ListOutcome
	Disabled   int
}

func (r *RunResult) count(s ListStatus) int {
	n := 0
	for _, o := range r.Lists {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *RunResult) Published() int { return r.count(StatusPublished) }

// Failed counts lists that were attempted but not published, skipped ones included.
func (r *RunResult) Failed() int { return r.count(StatusFailed) + r.count(StatusSkipped) }

// EngineOptions carries the dependencies for [NewEngine].
type EngineOptions struct {
	Store       *repositories.Store
	Lists       *repositories.ListRepository
	Tracker     services.Tracker
	Recommender services.Recommender
	Publisher   services.Publisher
	Credentials models.Credentials
	LockPath    string
	Pacer       *shared.Pacer // spaces recommender calls
	Logger      *log.Logger
	Notifier    Notifier
	Shuffle     func(n int, swap func(i, j int))
}

// Engine implements [SyncEngine] against the local store and the remote services.
type Engine struct {
	store       *repositories.Store
	lists       *repositories.ListRepository
	tracker     services.Tracker
	recommender services.Recommender
	publisher   services.Publisher
	creds       models.Credentials
	lockPath    string
	pacer       *shared.Pacer
	logger      *log.Logger
	notifier    Notifier
	shuffle     func(n int, swap func(i, j int))
}

// NewEngine creates an Engine. A nil Pacer never waits and a nil Notifier discards messages.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		store:       opts.Store,
		lists:       opts.Lists,
		tracker:     opts.Tracker,
		recommender: opts.Recommender,
		publisher:   opts.Publisher,
		creds:       opts.Credentials,
		lockPath:    opts.LockPath,
		pacer:       opts.Pacer,
		logger:      opts.Logger,
		notifier:    opts.Notifier,
		shuffle:     opts.Shuffle,
	}
	if e.pacer == nil {
		e.pacer = shared.NewPacer(0)
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.shuffle == nil {
		e.shuffle = defaultShuffle
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) checkServices() error {
	switch {
	case e.store == nil || e.lists == nil:
		return fmt.Errorf("%w: local store not initialized", shared.ErrServiceUnavailable)
	case e.tracker == nil:
		return fmt.Errorf("%w: tracker not initialized", shared.ErrServiceUnavailable)
	case e.recommender == nil:
		return fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	case e.publisher == nil:
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// preflight verifies every credential before anything is touched.
func (e *Engine) preflight(ctx context.Context) error {
	if err := e.checkServices(); err != nil {
		return err
	}

	var missing []string
	if !e.creds.Tracker.Present() {
		missing = append(missing, string(models.ProviderTracker))
	}
	if !e.creds.Catalog.Present() {
		missing = append(missing, string(models.ProviderCatalog))
	}
	if !e.creds.Recommender.Present() {
		missing = append(missing, string(models.ProviderRecommender))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", shared.ErrMissingCredentials, missing)
	}

	if !e.recommender.ValidateCredential(ctx) {
		return fmt.Errorf("%w: recommender key was rejected", shared.ErrInvalidCredentials)
	}
	return nil
}

// Update performs one full refresh.
//
// Preconditions are checked before the lock is taken, so a failed check leaves
// no marker behind. Once acquired the lock is released on every return path.
func (e *Engine) Update(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	e.sendProgress(progress, preflightUpdate())
	if err := e.preflight(ctx); err != nil {
		e.notifier.Notify("Update not started", err.Error())
		return nil, err
	}

	lock, err := shared.AcquireLock(e.lockPath)
	if err != nil {
		if errors.Is(err, shared.ErrUpdateRunning) {
			e.notifier.Notify("Update skipped", "Already updating, please wait")
		}
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Error("failed to release run lock", "path", lock.Path, "error", err)
		}
	}()

	logger := shared.WithLogger(e.logger, "run", lock.ID)
	result := &RunResult{RunID: lock.ID, StartedAt: time.Now()}
	e.sendProgress(progress, lockUpdate(lock.ID))
	logger.Info("update started")

	sync, err := e.syncTracker(ctx, progress, logger)
	result.Sync = sync
	if err != nil {
		if !isRemoteFailure(err) {
			return result, err
		}
		result.SyncErr = err
		logger.Warn("tracker sync failed, continuing with stored rows", "error", err)
	}

	file, err := e.lists.Load()
	if err != nil {
		return result, err
	}

	total := len(file.Lists)
	for i, cfg := range file.Lists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		step := i + 1
		if !cfg.Enabled {
			result.Disabled++
			logger.Debug("skipping disabled list", "list", cfg.ID)
			continue
		}

		e.sendProgress(progress, processListUpdate(step, total, cfg))
		outcome, err := e.processList(ctx, progress, logger, cfg, step, total)
		if err != nil {
			return result, err
		}
		result.Lists = append(result.Lists, outcome)
		e.sendProgress(progress, listOutcomeUpdate(step, total, outcome))
	}

	result.FinishedAt = time.Now()
	logger.Info("update finished",
		"published", result.Published(), "failed", result.Failed(), "disabled", result.Disabled,
		"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	e.sendProgress(progress, completeUpdate(result))
	return result, nil
}

// processList runs one list through recommend, clear, publish, and rename.
//
// Failures confined to this list are reported in the outcome. A returned error
// aborts the whole run.
func (e *Engine) processList(
	ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger,
	cfg models.ListConfig, step, total int,
) (ListOutcome, error) {
	out := ListOutcome{ListID: cfg.ID, Name: cfg.Title()}
	logger = logger.With("list", cfg.ID)

	fail := func(status ListStatus, err error) (ListOutcome, error) {
		out.Status = status
		out.Err = err
		logger.Warn("list not updated", "status", status, "error", err)
		return out, nil
	}

	if err := cfg.Validate(); err != nil {
		return fail(StatusFailed, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err))
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return out, err
	}

	userData, err := e.collectUserData(cfg)
	if err != nil {
		return out, err
	}

	prompt, err := prompts.Build(prompts.Request{
		ListName: cfg.Name,
		UserData: userData,
		Suffix:   cfg.PromptSuffix,
		Kind:     cfg.Kind,
		Count:    cfg.TargetCount,
	})
	if err != nil {
		return fail(StatusFailed, err)
	}

	e.sendProgress(progress, recommendUpdate(step, total, cfg.Title()))
	recs, err := e.recommender.Generate(ctx, prompt)
	switch {
	case errors.Is(err, shared.ErrParse):
		e.notifier.Notify("List skipped", fmt.Sprintf("Could not read recommendations for %s", cfg.Title()))
		return fail(StatusSkipped, err)
	case err != nil:
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return fail(StatusFailed, err)
	}

	listID := cfg.ID
	if listID == "" {
		listID, err = e.publisher.Create(ctx, cfg.Name, cfg.Description)
		if err != nil {
			return fail(StatusFailed, fmt.Errorf("failed to create list: %w", err))
		}
		out.ListID = listID
		logger.Info("created remote list", "id", listID)
	} else if err := e.publisher.Clear(ctx, listID); err != nil {
		return fail(StatusFailed, fmt.Errorf("failed to clear list: %w", err))
	}

	e.sendProgress(progress, publishUpdate(step, total, cfg.Title(), len(recs.Items)))
	published, err := e.publisher.ReplaceItems(ctx, listID, cfg.Kind, recs.Items)
	if err != nil {
		e.notifier.Notify("List emptied", fmt.Sprintf("%s was cleared but could not be refilled", cfg.Title()))
		return fail(StatusFailed, fmt.Errorf("%w: %v", shared.ErrPartialPublish, err))
	}
	out.Submitted = published.Submitted
	out.Unresolved = published.Unresolved

	displayName := cfg.DisplayName
	if recs.ListName != "" {
		if err := e.publisher.Rename(ctx, listID, recs.ListName); err != nil {
			logger.Warn("failed to rename list", "name", recs.ListName, "error", err)
		} else {
			displayName = recs.ListName
			out.Name = displayName
			e.sendProgress(progress, renameUpdate(step, total, displayName))
		}
	}

	if err := e.persistList(cfg.ID, listID, displayName); err != nil {
		return out, err
	}

	out.Status = StatusPublished
	logger.Info("list updated", "submitted", out.Submitted, "unresolved", len(out.Unresolved))
	e.notifier.Notify("List updated", fmt.Sprintf("%s has %d new titles", out.Name, out.Submitted))
	return out, nil
}

// persistList records the generated name and, for newly created lists, the remote id.
func (e *Engine) persistList(oldID, newID, displayName string) error {
	return e.lists.Update(func(f *models.ListFile) error {
		if oldID != newID && !f.Rekey(oldID, newID) {
			return nil
		}
		cfg, ok := f.Get(newID)
		if !ok {
			return nil
		}
		cfg.DisplayName = displayName
		f.Put(cfg)
		return nil
	})
}

// SyncTracker mirrors new tracker rows into the local store without touching any list.
func (e *Engine) SyncTracker(ctx context.Context, progress chan<- ProgressUpdate) (*TrackerSyncResult, error) {
	if e.store == nil || e.tracker == nil {
		return nil, fmt.Errorf("%w: tracker sync not initialized", shared.ErrServiceUnavailable)
	}
	if !e.creds.Tracker.Present() {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingCredentials, models.ProviderTracker)
	}
	return e.syncTracker(ctx, progress, e.logger)
}

type syncSource struct {
	phase Phase
	repo  *repositories.EventRepository
	fetch func(ctx context.Context, startAt string) ([]models.WatchEvent, error)
}

func (e *Engine) syncTracker(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger) (*TrackerSyncResult, error) {
	result := &TrackerSyncResult{Fetched: map[string]int{}, Inserted: map[string]int{}}
	sources := []syncSource{
		{phase: SyncHistory, repo: e.store.History, fetch: e.tracker.History},
		{phase: SyncWatchlist, repo: e.store.Watchlist, fetch: e.tracker.Watchlist},
	}

	for i, src := range sources {
		table := src.repo.Table()
		cursor, err := src.repo.Latest()
		if err != nil {
			return result, err
		}

		e.sendProgress(progress, syncSourceUpdate(src.phase, i+1, len(sources), cursor))
		rows, err := src.fetch(ctx, cursor)
		if err != nil {
			return result, fmt.Errorf("failed to fetch %s: %w", table, err)
		}

		inserted, err := src.repo.Insert(rows)
		if err != nil {
			return result, err
		}
		result.Fetched[table] = len(rows)
		result.Inserted[table] = inserted
		e.sendProgress(progress, syncedSourceUpdate(src.phase, i+1, len(sources), len(rows), inserted))
		logger.Info("mirrored tracker rows", "table", table, "since", cursor, "fetched", len(rows), "inserted", inserted)
	}
	return result, nil
}

// isRemoteFailure reports whether err came from a remote service rather than local I/O.
func isRemoteFailure(err error) bool {
	return errors.Is(err, shared.ErrAPIRequest) ||
		errors.Is(err, shared.ErrRateLimited) ||
		errors.Is(err, shared.ErrServiceUnavailable)
}
