package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/curator/internal/models"
)

var _ list.Item = listItem{}

// listItem wraps [models.ListConfig] to implement [list.Item].
type listItem struct {
	cfg models.ListConfig
}

func (i listItem) FilterValue() string { return i.cfg.Title() }
func (i listItem) Title() string {
	mark := "●"
	if !i.cfg.Enabled {
		mark = "○"
	}
	return fmt.Sprintf("%s %s", mark, i.cfg.Title())
}

func (i listItem) Description() string {
	desc := fmt.Sprintf("%s • %d titles", i.cfg.Kind, i.cfg.TargetCount)
	if sources := attachedSummary(i.cfg); sources != "" {
		desc = fmt.Sprintf("%s • %s", desc, sources)
	}
	if !i.cfg.Enabled {
		desc += " • disabled"
	}
	return desc
}

func attachedSummary(cfg models.ListConfig) string {
	names := make([]string, 0, len(cfg.AttachedData))
	for name := range cfg.AttachedData {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func toItems(lists []models.ListConfig) []list.Item {
	items := make([]list.Item, len(lists))
	for i, l := range lists {
		items[i] = listItem{cfg: l}
	}
	return items
}
