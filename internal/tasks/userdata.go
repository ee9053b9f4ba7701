package tasks

import (
	"math/rand/v2"
	"strings"

	"github.com/desertthunder/curator/internal/formatter"
	"github.com/desertthunder/curator/internal/models"
)

// DefaultItemCount is used when an attached source sets item_count to 0.
const DefaultItemCount = 10

const noUserData = "No viewing data available yet."

// attachedOrder fixes the order sources appear in a prompt.
var attachedOrder = []string{models.SourceWatchHistory, models.SourceWatchlist}

func defaultShuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// collectUserData renders the rows named by cfg.AttachedData into prompt text.
func (e *Engine) collectUserData(cfg models.ListConfig) (string, error) {
	var sections []string
	for _, source := range attachedOrder {
		opts, ok := cfg.AttachedData[source]
		if !ok {
			continue
		}

		repo, err := e.store.Events(source)
		if err != nil {
			return "", err
		}
		rows, err := repo.All()
		if err != nil {
			return "", err
		}

		rows = selectRows(rows, opts, e.shuffle)
		if section := formatter.PromptSection(&formatter.EventExport{Source: source, Events: rows}); section != "" {
			sections = append(sections, section)
		}
	}

	if len(sections) == 0 {
		return noUserData, nil
	}
	return strings.Join(sections, "\n"), nil
}

// selectRows filters rows by media kind, optionally shuffles, and truncates to the item count.
// rows arrive newest first, so an unshuffled selection keeps the most recent entries.
func selectRows(rows []models.WatchEvent, opts models.AttachedSource, shuffle func(int, func(i, j int))) []models.WatchEvent {
	filtered := make([]models.WatchEvent, 0, len(rows))
	for _, r := range rows {
		if matchesMediaKind(r, opts.MediaKind) {
			filtered = append(filtered, r)
		}
	}

	if opts.Random {
		shuffle(len(filtered), func(i, j int) { filtered[i], filtered[j] = filtered[j], filtered[i] })
	}

	limit := opts.ItemCount
	if limit <= 0 {
		limit = DefaultItemCount
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func matchesMediaKind(r models.WatchEvent, kind string) bool {
	switch kind {
	case models.KindMovie:
		return r.Kind == models.KindMovie
	case models.KindShow:
		return r.IsShow()
	}
	return true
}
