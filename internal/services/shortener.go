package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const tinyURLBase = "http://tinyurl.com/api-create.php"

// Shortener turns long approval links into something a user can type.
type Shortener struct {
	api *APIClient
}

func NewShortener(baseURL string, client *http.Client) *Shortener {
	if baseURL == "" {
		baseURL = tinyURLBase
	}
	return &Shortener{api: NewAPIClient(baseURL, client)}
}

// Shorten returns a short link for long, or long itself when the service fails.
func (s *Shortener) Shorten(ctx context.Context, long string) string {
	resp, err := s.api.Do(ctx, http.MethodGet, "?url="+url.QueryEscape(long), nil)
	if err != nil || !resp.OK() {
		return long
	}
	short := strings.TrimSpace(string(resp.Body))
	if !strings.HasPrefix(short, "http") {
		return long
	}
	return short
}
