package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	th "github.com/desertthunder/curator/internal/testing"
)

func sampleExport() *EventExport {
	return &EventExport{
		Source: models.SourceWatchHistory,
		Events: []models.WatchEvent{
			{ExternalID: "1", Kind: models.KindMovie, Title: "Heat", Timestamp: "2024-01-02T00:00:00.000Z"},
			{ExternalID: "2", Kind: models.KindTVShow, Title: "Dark, Season 1", Timestamp: "2024-01-01T00:00:00.000Z"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "item_id,item_type,title,added_at\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `2,tv_show,"Dark, Season 1",`) {
			t.Errorf("CSV should quote titles with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, _ := ExportToMarkdown(sampleExport())
		output := string(data)

		if !strings.Contains(output, "# Watch history") {
			t.Errorf("Markdown missing heading: %s", output)
		}
		if !strings.Contains(output, "**Entries**: 2") {
			t.Errorf("Markdown missing count: %s", output)
		}
		if !strings.Contains(output, "2. Dark, Season 1 (show)") {
			t.Errorf("Markdown should label shows: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, _ := ExportToText(sampleExport())
		if !strings.Contains(string(data), "1. Heat - movie") {
			t.Errorf("unexpected text output: %s", data)
		}
	})

	t.Run("ExportToJSON empty", func(t *testing.T) {
		data, err := ExportToJSON(&EventExport{Source: models.SourceWatchlist})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("Render rejects unknown format", func(t *testing.T) {
		if _, err := Render(sampleExport(), "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.md")
		got, err := WriteExport(sampleExport(), "md", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, got)
		if !strings.Contains(th.MustReadFile(t, got), "Heat") {
			t.Error("export file missing content")
		}
	})

	t.Run("WriteExport default name", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		defer th.MustChdir(t, wd)

		got, err := WriteExport(sampleExport(), FormatText, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "watch_history.txt" {
			t.Errorf("expected default filename, got %s", got)
		}
	})
}

func TestPromptSection(t *testing.T) {
	got := PromptSection(sampleExport())
	want := "Watch history:\n- Heat (movie)\n- Dark, Season 1 (show)\n"
	if got != want {
		t.Errorf("PromptSection() = %q, want %q", got, want)
	}

	if PromptSection(&EventExport{Source: models.SourceWatchlist}) != "" {
		t.Error("empty source should render nothing")
	}
}
