package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
	geminiDefaultModel = "gemini-2.0-flash"
)

// fencedJSON matches the first block opened with ```json.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// GeminiService implements [Recommender] against the generateContent endpoint.
type GeminiService struct {
	api   *APIClient
	model string
	key   string
}

// NewGeminiService creates a recommender. Empty baseURL and model fall back to the public defaults.
func NewGeminiService(baseURL, model string, cred models.Credential, client *http.Client) *GeminiService {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	if model == "" {
		model = geminiDefaultModel
	}
	api := NewAPIClient(baseURL, client).WithHeader("x-goog-api-key", cred.Token)
	return &GeminiService{api: api, model: model, key: cred.Token}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiService) endpoint() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(g.model))
}

func (g *GeminiService) send(ctx context.Context, prompt string) (*APIResponse, error) {
	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}
	return g.api.Do(ctx, http.MethodPost, g.endpoint(), body)
}

// Generate implements [Recommender].
func (g *GeminiService) Generate(ctx context.Context, prompt string) (*models.Recommendations, error) {
	if g.key == "" {
		return nil, fmt.Errorf("%w: recommender API key", shared.ErrMissingCredentials)
	}

	resp, err := g.send(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Method: http.MethodPost, Path: g.endpoint(), Code: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var reply geminiResponse
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return nil, fmt.Errorf("%w: malformed model response: %v", shared.ErrParse, err)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: model response has no candidates", shared.ErrParse)
	}

	return ExtractRecommendations(reply.Candidates[0].Content.Parts[0].Text)
}

// ValidateCredential implements [Recommender].
func (g *GeminiService) ValidateCredential(ctx context.Context) bool {
	if g.key == "" {
		return false
	}
	resp, err := g.send(ctx, "Test")
	return err == nil && resp.StatusCode == http.StatusOK
}

// ExtractRecommendations parses the first ```json fenced block in text.
//
// Items without a title are dropped and item kinds are normalized with [models.NormalizeKind].
func ExtractRecommendations(text string) (*models.Recommendations, error) {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: no json block in reply", shared.ErrParse)
	}

	var recs models.Recommendations
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParse, err)
	}

	items := recs.Items[:0]
	for _, it := range recs.Items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		it.Kind = models.NormalizeKind(it.Kind)
		items = append(items, it)
	}
	recs.Items = items
	recs.ListName = strings.TrimSpace(recs.ListName)
	return &recs, nil
}
