package tasks

import (
	"fmt"

	"github.com/desertthunder/curator/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Preflight Phase = iota
	AcquireLock
	SyncHistory
	SyncWatchlist
	ProcessList
	Recommend
	Publish
	Rename
	Complete
)

func (p Phase) String() string {
	switch p {
	case Preflight:
		return "preflight"
	case AcquireLock:
		return "acquire_lock"
	case SyncHistory:
		return "sync_history"
	case SyncWatchlist:
		return "sync_watchlist"
	case ProcessList:
		return "process_list"
	case Recommend:
		return "recommend"
	case Publish:
		return "publish"
	case Rename:
		return "rename"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func preflightUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Preflight, Step: 1, Total: 1, Message: "Checking credentials..."}
}

func lockUpdate(runID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AcquireLock,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Update %s started", runID),
	}
}

func syncSourceUpdate(phase Phase, step, total int, cursor string) ProgressUpdate {
	from := "the beginning"
	if cursor != "" {
		from = cursor
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s since %s...", sourceLabel(phase), from),
	}
}

func syncedSourceUpdate(phase Phase, step, total, fetched, inserted int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s: %d fetched, %d new", sourceLabel(phase), fetched, inserted),
	}
}

func processListUpdate(step, total int, cfg models.ListConfig) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, cfg.Title()),
		Data:    cfg,
	}
}

func recommendUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Asking for recommendations: %s...", step, total, name),
	}
}

func publishUpdate(step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Publish,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Publishing %d titles to %s...", step, total, count, name),
	}
}

func renameUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Rename,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Renamed to %s", step, total, name),
	}
}

func listOutcomeUpdate(step, total int, out ListOutcome) ProgressUpdate {
	var msg string
	switch out.Status {
	case StatusPublished:
		msg = fmt.Sprintf("[%d/%d] ✓ %s (%d titles)", step, total, out.Name, out.Submitted)
	case StatusSkipped:
		msg = fmt.Sprintf("[%d/%d] - %s: %v", step, total, out.Name, out.Err)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, out.Name, out.Err)
	}
	return ProgressUpdate{Phase: ProcessList, Step: step, Total: total, Message: msg, Data: out}
}

func completeUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Update finished: %d published, %d failed, %d disabled", result.Published(), result.Failed(), result.Disabled),
		Data:    result,
	}
}

func sourceLabel(phase Phase) string {
	if phase == SyncWatchlist {
		return "watchlist"
	}
	return "watch history"
}
