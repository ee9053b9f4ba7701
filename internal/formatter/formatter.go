// package formatter renders mirrored tracker rows as CSV, Markdown, JSON, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// EventExport is one local table's rows, ready to render.
type EventExport struct {
	Source string
	Events []models.WatchEvent
}

// Format names accepted by [Render].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "txt"
)

// ExportToCSV writes columns item_id, item_type, title, added_at with a header row.
func ExportToCSV(export *EventExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"item_id", "item_type", "title", "added_at"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range export.Events {
		if err := writer.Write([]string{e.ExternalID, e.Kind, e.Title, e.Timestamp}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, a count, and a numbered list.
func ExportToMarkdown(export *EventExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", sourceTitle(export.Source))
	fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(export.Events))

	for i, e := range export.Events {
		fmt.Fprintf(&buf, "%d. %s (%s) _%s_\n", i+1, e.Title, kindLabel(e.Kind), e.Timestamp)
	}
	return buf.Bytes(), nil
}

// ExportToText renders one "title - kind" line per row.
func ExportToText(export *EventExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %d entries\n\n", sourceTitle(export.Source), len(export.Events))
	for i, e := range export.Events {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, e.Title, kindLabel(e.Kind))
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders the rows as an indented JSON array.
func ExportToJSON(export *EventExport) ([]byte, error) {
	events := export.Events
	if events == nil {
		events = []models.WatchEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Render dispatches on format.
func Render(export *EventExport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	case FormatText, "text":
		return ExportToText(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// WriteExport renders export and writes it to path.
//
// Defaults to {source}.{ext} when path is empty.
func WriteExport(export *EventExport, format, path string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = fmt.Sprintf("%s.%s", export.Source, extension(format))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// PromptSection renders rows as a compact "title (kind)" block under a source heading,
// the form the model sees in a recommendation prompt.
func PromptSection(export *EventExport) string {
	if len(export.Events) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", sourceTitle(export.Source))
	for _, e := range export.Events {
		fmt.Fprintf(&b, "- %s (%s)\n", e.Title, kindLabel(e.Kind))
	}
	return b.String()
}

func sourceTitle(source string) string {
	switch source {
	case models.SourceWatchHistory:
		return "Watch history"
	case models.SourceWatchlist:
		return "Watchlist"
	}
	return source
}

func kindLabel(kind string) string {
	if kind == models.KindTVShow {
		return "show"
	}
	return kind
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	}
	return strings.ToLower(format)
}
