package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

const (
	traktBaseURL    = "https://api.trakt.tv"
	traktAPIVersion = "2"
)

// TraktOptions configures a [TraktService].
type TraktOptions struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	User         models.Credential
	PageSize     int
	// Backoff is the fixed pause after a 429 before the same page is retried.
	Backoff time.Duration
	Client  *http.Client
	Logger  *log.Logger
	// Sleep replaces [shared.Sleep]; tests use it to skip real pauses.
	Sleep func(ctx context.Context, d time.Duration) error
}

// TraktService implements [Tracker] and the device-code account link.
type TraktService struct {
	api          *APIClient
	auth         *APIClient
	clientID     string
	clientSecret string
	pageSize     int
	backoff      time.Duration
	logger       *log.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewTraktService(opts TraktOptions) *TraktService {
	if opts.BaseURL == "" {
		opts.BaseURL = traktBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = shared.Sleep
	}

	s := &TraktService{
		auth:         NewAPIClient(opts.BaseURL, opts.Client),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		pageSize:     opts.PageSize,
		backoff:      opts.Backoff,
		logger:       opts.Logger,
		sleep:        opts.Sleep,
	}
	if opts.User.Present() {
		s.api = NewAPIClient(opts.BaseURL, bearerClient(opts.Client, opts.User.TokenSource())).
			WithHeader("trakt-api-version", traktAPIVersion).
			WithHeader("trakt-api-key", opts.ClientID)
	}
	return s
}

type traktIDs struct {
	Trakt int `json:"trakt"`
}

type traktTitle struct {
	Title string   `json:"title"`
	IDs   traktIDs `json:"ids"`
}

type traktItem struct {
	ID        int64       `json:"id"`
	WatchedAt string      `json:"watched_at"`
	ListedAt  string      `json:"listed_at"`
	Type      string      `json:"type"`
	Movie     *traktTitle `json:"movie"`
	Show      *traktTitle `json:"show"`
}

// History implements [Tracker] using /sync/history.
func (s *TraktService) History(ctx context.Context, startAt string) ([]models.WatchEvent, error) {
	return s.fetchAll(ctx, "/sync/history", startAt)
}

// Watchlist implements [Tracker] using /users/me/watchlist.
func (s *TraktService) Watchlist(ctx context.Context, startAt string) ([]models.WatchEvent, error) {
	return s.fetchAll(ctx, "/users/me/watchlist", startAt)
}

// fetchAll walks every page of endpoint. Titles repeated within the run are kept once.
func (s *TraktService) fetchAll(ctx context.Context, endpoint, startAt string) ([]models.WatchEvent, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: tracker account not linked", shared.ErrMissingCredentials)
	}

	var (
		events []models.WatchEvent
		seen   = make(map[string]bool)
	)
	for page := 1; ; {
		items, pageCount, err := s.fetchPage(ctx, endpoint, startAt, page)
		if errors.Is(err, shared.ErrRateLimited) {
			s.logger.Warn("tracker rate limit hit, pausing", "endpoint", endpoint, "page", page, "pause", s.backoff)
			if err := s.sleep(ctx, s.backoff); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, it := range items {
			e, ok := toWatchEvent(it)
			if !ok {
				continue
			}
			key := e.Kind + "|" + e.Title
			if seen[key] {
				continue
			}
			seen[key] = true
			events = append(events, e)
		}

		if len(items) < s.pageSize || (pageCount > 0 && page >= pageCount) {
			break
		}
		page++
	}

	s.logger.Debug("tracker fetch complete", "endpoint", endpoint, "events", len(events))
	return events, nil
}

func (s *TraktService) fetchPage(ctx context.Context, endpoint, startAt string, page int) ([]traktItem, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(s.pageSize))
	if startAt != "" {
		q.Set("start_at", startAt)
	}

	resp, err := s.api.Do(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	if !resp.OK() {
		return nil, 0, &StatusError{Method: http.MethodGet, Path: endpoint, Code: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var items []traktItem
	if err := resp.Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	pageCount, _ := strconv.Atoi(resp.Headers.Get("X-Pagination-Page-Count"))
	return items, pageCount, nil
}

// toWatchEvent keeps movies, and folds episodes and shows into their show title.
func toWatchEvent(it traktItem) (models.WatchEvent, bool) {
	ts := it.WatchedAt
	if ts == "" {
		ts = it.ListedAt
	}

	e := models.WatchEvent{ExternalID: strconv.FormatInt(it.ID, 10), Timestamp: ts}
	switch it.Type {
	case "movie":
		if it.Movie == nil {
			return e, false
		}
		e.Kind, e.Title = models.KindMovie, it.Movie.Title
	case "episode", "show", "season":
		if it.Show == nil {
			return e, false
		}
		e.Kind, e.Title = models.KindTVShow, it.Show.Title
	default:
		return e, false
	}
	return e, e.Title != "" && e.Timestamp != ""
}

// DeviceCode is the first step of the device-code account link.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// RequestDeviceCode asks the tracker for a code the user enters at VerificationURL.
func (s *TraktService) RequestDeviceCode(ctx context.Context) (*DeviceCode, error) {
	if s.clientID == "" {
		return nil, fmt.Errorf("%w: tracker client_id", shared.ErrMissingCredentials)
	}
	var dc DeviceCode
	if err := s.auth.DoJSON(ctx, http.MethodPost, "/oauth/device/code", map[string]string{"client_id": s.clientID}, &dc); err != nil {
		return nil, fmt.Errorf("%w: device code: %v", shared.ErrAuthFailed, err)
	}
	return &dc, nil
}

type traktToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
}

// PollDeviceToken polls until the user approves dc, the code expires, or ctx is done.
func (s *TraktService) PollDeviceToken(ctx context.Context, dc *DeviceCode) (*oauth2.Token, error) {
	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	body := map[string]string{"code": dc.DeviceCode, "client_id": s.clientID, "client_secret": s.clientSecret}
	for {
		if dc.ExpiresIn > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: device code expired", shared.ErrTimeout)
		}
		if err := s.sleep(ctx, interval); err != nil {
			return nil, err
		}

		tok, err := s.exchangeDeviceCode(ctx, body)
		switch {
		case err == nil:
			return tok, nil
		case errors.Is(err, shared.ErrAuthPending):
			continue
		case errors.Is(err, shared.ErrRateLimited):
			interval += time.Second
			continue
		default:
			return nil, err
		}
	}
}

func (s *TraktService) exchangeDeviceCode(ctx context.Context, body map[string]string) (*oauth2.Token, error) {
	resp, err := s.auth.Do(ctx, http.MethodPost, "/oauth/device/token", body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var t traktToken
		if err := resp.Decode(&t); err != nil {
			return nil, err
		}
		tok := &oauth2.Token{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, TokenType: t.TokenType}
		if t.ExpiresIn > 0 {
			tok.Expiry = time.Unix(t.CreatedAt, 0).Add(time.Duration(t.ExpiresIn) * time.Second)
		}
		return tok, nil
	case http.StatusBadRequest:
		return nil, shared.ErrAuthPending
	case http.StatusTooManyRequests:
		return nil, shared.ErrRateLimited
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: invalid device code", shared.ErrAuthFailed)
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: device code already used", shared.ErrAuthFailed)
	case http.StatusGone:
		return nil, fmt.Errorf("%w: device code expired", shared.ErrTimeout)
	case 418:
		return nil, fmt.Errorf("%w: user denied access", shared.ErrAuthFailed)
	}
	return nil, &StatusError{Method: http.MethodPost, Path: "/oauth/device/token", Code: resp.StatusCode, Body: snippet(resp.Body)}
}
