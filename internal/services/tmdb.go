package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

const (
	tmdbBaseURL    = "https://api.themoviedb.org"
	tmdbApproveURL = "https://www.themoviedb.org/auth/access"
)

// TMDBOptions configures a [TMDBService].
type TMDBOptions struct {
	BaseURL    string
	ApproveURL string
	// AppToken is the application read token, used for search and the account link flow.
	AppToken string
	// User is the linked account's access token, used for list writes.
	User   models.Credential
	Pacer  *shared.Pacer
	Client *http.Client
	Logger *log.Logger
}

// TMDBService resolves titles and publishes curated lists.
//
// Implements [Resolver] and [Publisher].
type TMDBService struct {
	app        *APIClient
	user       *APIClient
	approveURL string
	pacer      *shared.Pacer
	logger     *log.Logger
}

func NewTMDBService(opts TMDBOptions) *TMDBService {
	if opts.BaseURL == "" {
		opts.BaseURL = tmdbBaseURL
	}
	if opts.ApproveURL == "" {
		opts.ApproveURL = tmdbApproveURL
	}
	if opts.Pacer == nil {
		opts.Pacer = shared.NewPacer(0)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &TMDBService{approveURL: opts.ApproveURL, pacer: opts.Pacer, logger: opts.Logger}
	if opts.AppToken != "" {
		app := models.Credential{Provider: models.ProviderCatalog, Token: opts.AppToken}
		s.app = NewAPIClient(opts.BaseURL, bearerClient(opts.Client, app.TokenSource()))
	}
	if opts.User.Present() {
		s.user = NewAPIClient(opts.BaseURL, bearerClient(opts.Client, opts.User.TokenSource()))
	}
	return s
}

// searcher prefers the application token and falls back to the user's.
func (s *TMDBService) searcher() *APIClient {
	if s.app != nil {
		return s.app
	}
	return s.user
}

func (s *TMDBService) writer() (*APIClient, error) {
	if s.user == nil {
		return nil, fmt.Errorf("%w: catalog account not linked", shared.ErrMissingCredentials)
	}
	return s.user, nil
}

// searchType maps an item kind to the search endpoint segment.
func searchType(kind string) string {
	switch models.NormalizeKind(kind) {
	case models.KindMovie:
		return "movie"
	case models.KindShow:
		return "tv"
	}
	return "multi"
}

type tmdbSearchResponse struct {
	Results []struct {
		ID        int    `json:"id"`
		MediaType string `json:"media_type"`
	} `json:"results"`
}

// Resolve implements [Resolver]. The first search result wins; a result without a
// media_type takes the searched type.
func (s *TMDBService) Resolve(ctx context.Context, title, kind string) (models.ResolvedItem, bool) {
	api := s.searcher()
	if api == nil {
		return models.ResolvedItem{}, false
	}

	st := searchType(kind)
	q := url.Values{}
	q.Set("query", title)
	q.Set("include_adult", "false")
	q.Set("language", "en-US")
	q.Set("page", "1")

	var resp tmdbSearchResponse
	if err := api.DoJSON(ctx, http.MethodGet, "/3/search/"+st+"?"+q.Encode(), nil, &resp); err != nil {
		s.logger.Warn("title search failed", "title", title, "err", err)
		return models.ResolvedItem{}, false
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == 0 {
		return models.ResolvedItem{}, false
	}

	first := resp.Results[0]
	mediaType := first.MediaType
	if mediaType == "" {
		mediaType = st
	}
	if mediaType != "movie" && mediaType != "tv" {
		return models.ResolvedItem{}, false
	}
	return models.ResolvedItem{Title: title, MediaType: mediaType, MediaID: first.ID}, true
}

// Create implements [Publisher] and returns the new list's id.
func (s *TMDBService) Create(ctx context.Context, name, description string) (string, error) {
	api, err := s.writer()
	if err != nil {
		return "", err
	}

	body := map[string]any{"name": name, "description": description, "iso_639_1": "en", "public": true}
	var resp struct {
		ID      int  `json:"id"`
		Success bool `json:"success"`
	}
	if err := api.DoJSON(ctx, http.MethodPost, "/4/list", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create list %q: %w", name, err)
	}
	if resp.ID == 0 {
		return "", fmt.Errorf("%w: create list returned no id", shared.ErrAPIRequest)
	}
	return strconv.Itoa(resp.ID), nil
}

// Clear implements [Publisher].
func (s *TMDBService) Clear(ctx context.Context, listID string) error {
	api, err := s.writer()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/3/list/%s/clear?confirm=true", url.PathEscape(listID))
	if err := api.DoJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to clear list %s: %w", listID, err)
	}
	return nil
}

// Rename implements [Publisher].
func (s *TMDBService) Rename(ctx context.Context, listID, name string) error {
	api, err := s.writer()
	if err != nil {
		return err
	}
	path := "/4/list/" + url.PathEscape(listID)
	if err := api.DoJSON(ctx, http.MethodPut, path, map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("failed to rename list %s: %w", listID, err)
	}
	return nil
}

type tmdbListItem struct {
	MediaType string `json:"media_type"`
	MediaID   int    `json:"media_id"`
}

// ReplaceItems implements [Publisher]. Each item is resolved after a pacer wait; unresolved
// titles are skipped. Any 2xx from the items endpoint counts as success.
func (s *TMDBService) ReplaceItems(ctx context.Context, listID string, kind models.ListKind, items []models.RecommendationItem) (*PublishResult, error) {
	api, err := s.writer()
	if err != nil {
		return nil, err
	}

	result := &PublishResult{}
	payload := make([]tmdbListItem, 0, len(items))
	for _, it := range items {
		if err := s.pacer.Wait(ctx); err != nil {
			return result, err
		}

		resolved, ok := s.Resolve(ctx, it.Title, itemKind(kind, it))
		if !ok {
			s.logger.Warn("title not found in catalog", "list", listID, "title", it.Title)
			result.Unresolved = append(result.Unresolved, it.Title)
			continue
		}
		payload = append(payload, tmdbListItem{MediaType: resolved.MediaType, MediaID: resolved.MediaID})
	}

	if len(payload) == 0 {
		return result, nil
	}

	path := fmt.Sprintf("/4/list/%s/items", url.PathEscape(listID))
	if err := api.DoJSON(ctx, http.MethodPost, path, map[string]any{"items": payload}, nil); err != nil {
		return result, fmt.Errorf("failed to add items to list %s: %w", listID, err)
	}
	result.Submitted = len(payload)
	return result, nil
}

// itemKind picks the search restriction for one item: the list's fixed kind, or for
// combined lists the kind the model reported.
func itemKind(kind models.ListKind, it models.RecommendationItem) string {
	switch kind {
	case models.ListMovie:
		return models.KindMovie
	case models.ListShow:
		return models.KindShow
	}
	return it.Kind
}

// ValidateCredential checks that the linked account token is accepted.
func (s *TMDBService) ValidateCredential(ctx context.Context) bool {
	api, err := s.writer()
	if err != nil {
		return false
	}
	return api.DoJSON(ctx, http.MethodGet, "/3/authentication", nil, nil) == nil
}

// RequestToken starts the account link and returns a request token for the user to approve.
// redirectTo, when set, is where the catalog sends the browser after approval.
func (s *TMDBService) RequestToken(ctx context.Context, redirectTo string) (string, error) {
	if s.app == nil {
		return "", fmt.Errorf("%w: catalog application token", shared.ErrMissingCredentials)
	}

	var body any
	if redirectTo != "" {
		body = map[string]string{"redirect_to": redirectTo}
	}
	var resp struct {
		Success      bool   `json:"success"`
		RequestToken string `json:"request_token"`
	}
	if err := s.app.DoJSON(ctx, http.MethodPost, "/4/auth/request_token", body, &resp); err != nil {
		return "", fmt.Errorf("%w: request token: %v", shared.ErrAuthFailed, err)
	}
	if !resp.Success || resp.RequestToken == "" {
		return "", fmt.Errorf("%w: request token was not issued", shared.ErrAuthFailed)
	}
	return resp.RequestToken, nil
}

// ApprovalURL is the page where the user approves requestToken.
func (s *TMDBService) ApprovalURL(requestToken string) string {
	return s.approveURL + "?request_token=" + url.QueryEscape(requestToken)
}

// AccessToken is the result of a completed account link.
type AccessToken struct {
	Token     string
	AccountID string
}

// AccessToken exchanges an approved request token for the user's access token.
func (s *TMDBService) AccessToken(ctx context.Context, requestToken string) (*AccessToken, error) {
	if s.app == nil {
		return nil, fmt.Errorf("%w: catalog application token", shared.ErrMissingCredentials)
	}

	var resp struct {
		Success     bool   `json:"success"`
		AccessToken string `json:"access_token"`
		AccountID   string `json:"account_id"`
	}
	body := map[string]string{"request_token": requestToken}
	if err := s.app.DoJSON(ctx, http.MethodPost, "/4/auth/access_token", body, &resp); err != nil {
		return nil, fmt.Errorf("%w: access token: %v", shared.ErrAuthFailed, err)
	}
	if !resp.Success || resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: request token not approved", shared.ErrAuthFailed)
	}
	return &AccessToken{Token: resp.AccessToken, AccountID: resp.AccountID}, nil
}
