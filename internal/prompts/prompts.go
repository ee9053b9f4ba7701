// Package prompts builds the recommendation request text sent to the model.
package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Request holds everything that shapes one list's prompt.
type Request struct {
	ListName string
	UserData string
	Suffix   string
	Kind     models.ListKind
	Count    int
}

type flavor struct {
	Subject  string
	ItemType string
}

var flavors = map[models.ListKind]flavor{
	models.ListCombined: {Subject: "movies and TV shows", ItemType: `"movie" or "show"`},
	models.ListMovie:    {Subject: "movies", ItemType: `"movie"`},
	models.ListShow:     {Subject: "TV shows", ItemType: `"show"`},
}

var promptTemplate = template.Must(template.New("recommendation").Parse(`You are a recommendation specialist for {{.Subject}}. Match the mood, tone, pacing, and emotional texture of what the viewer already enjoys rather than surface plot or genre similarities.

Study the viewer's data below and look for:
1. The feelings their favorite {{.Subject}} leave them with.
2. Atmosphere: setting, music, lighting, and pace.
3. The sensibilities of creators who recur in their history.
4. The kind of viewing experience they seem to be chasing.

Reply with exactly {{.Count}} title(s) that are not already in their data, as a single fenced block tagged json in this shape:
` + "```json" + `
{
  "list_name": "a short, streaming-service style list name",
  "recommendations": [
    {"title": "Title", "type": {{.ItemType}}}
  ]
}
` + "```" + `
{{if .Suffix}}
{{.Suffix}}
{{end}}
Base the list name on: {{.ListName}}
Viewer data (duplicates may appear, ignore them):
{{.UserData}}
`))

// Build renders the prompt for req.
//
// An unknown kind or a non-positive count is a configuration error and no text is produced.
func Build(req Request) (string, error) {
	f, ok := flavors[req.Kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown list kind %q", shared.ErrInvalidConfig, req.Kind)
	}
	if req.Count < 1 {
		return "", fmt.Errorf("%w: count must be at least 1, got %d", shared.ErrInvalidConfig, req.Count)
	}

	data := map[string]any{
		"Subject":  f.Subject,
		"ItemType": f.ItemType,
		"Count":    req.Count,
		"Suffix":   strings.TrimSpace(req.Suffix),
		"ListName": req.ListName,
		"UserData": req.UserData,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
