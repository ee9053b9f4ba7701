package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// fakeCatalog is an in-memory stand-in for the catalog search and list endpoints.
type fakeCatalog struct {
	mu       sync.Mutex
	titles   map[string]map[string]any // title -> first search result
	searches []string                  // "type:query"
	added    []tmdbListItem
	calls    []string
	itemsErr int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{titles: map[string]map[string]any{}}
}

func (f *fakeCatalog) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /3/search/{type}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		q := r.URL.Query()
		if q.Get("include_adult") != "false" || q.Get("page") != "1" {
			t.Errorf("unexpected search params %v", q)
		}
		f.searches = append(f.searches, r.PathValue("type")+":"+q.Get("query"))
		var results []any
		if res, ok := f.titles[q.Get("query")]; ok {
			results = append(results, res)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})
	mux.HandleFunc("POST /4/list", func(w http.ResponseWriter, r *http.Request) {
		f.record("create")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 777, "success": true}`))
	})
	mux.HandleFunc("POST /3/list/{id}/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "true" {
			t.Errorf("clear must confirm")
		}
		f.record("clear:" + r.PathValue("id"))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PUT /4/list/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.record("rename:" + r.PathValue("id") + ":" + body["name"])
	})
	mux.HandleFunc("POST /4/list/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		f.record("items:" + r.PathValue("id"))
		if f.itemsErr != 0 {
			w.WriteHeader(f.itemsErr)
			return
		}
		var body struct {
			Items []tmdbListItem `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.added = append(f.added, body.Items...)
		f.mu.Unlock()
		w.Write([]byte(`{"success": true}`))
	})
	mux.HandleFunc("GET /3/authentication", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	return mux
}

func (f *fakeCatalog) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func newTestTMDB(url string) *TMDBService {
	return NewTMDBService(TMDBOptions{
		BaseURL:  url,
		AppToken: "app-token",
		User:     models.Credential{Provider: models.ProviderCatalog, Token: "user-token"},
		Logger:   log.New(io.Discard),
	})
}

func TestTMDBResolve(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.titles["Heat"] = map[string]any{"id": 949, "media_type": "movie"}
	catalog.titles["Dark"] = map[string]any{"id": 70523}
	catalog.titles["Kevin Bacon"] = map[string]any{"id": 4724, "media_type": "person"}
	server := httptest.NewServer(catalog.handler(t))
	defer server.Close()

	s := newTestTMDB(server.URL)

	t.Run("idempotent", func(t *testing.T) {
		first, ok1 := s.Resolve(context.Background(), "Heat", models.KindMovie)
		second, ok2 := s.Resolve(context.Background(), "Heat", models.KindMovie)
		if !ok1 || !ok2 || first != second {
			t.Errorf("expected identical results, got %+v/%v and %+v/%v", first, ok1, second, ok2)
		}
		if first.MediaID != 949 || first.MediaType != "movie" {
			t.Errorf("unexpected resolution %+v", first)
		}
	})

	t.Run("missing media_type defaults to searched type", func(t *testing.T) {
		got, ok := s.Resolve(context.Background(), "Dark", models.KindShow)
		if !ok || got.MediaType != "tv" {
			t.Errorf("expected tv, got %+v (ok=%v)", got, ok)
		}
	})

	t.Run("no results", func(t *testing.T) {
		if _, ok := s.Resolve(context.Background(), "Nothing Here", ""); ok {
			t.Error("expected not found")
		}
	})

	t.Run("non-title result is rejected", func(t *testing.T) {
		if _, ok := s.Resolve(context.Background(), "Kevin Bacon", ""); ok {
			t.Error("person results should not resolve")
		}
	})

	t.Run("search type per kind", func(t *testing.T) {
		catalog.mu.Lock()
		catalog.searches = nil
		catalog.mu.Unlock()

		s.Resolve(context.Background(), "a", "movie")
		s.Resolve(context.Background(), "b", "show")
		s.Resolve(context.Background(), "c", "")

		want := []string{"movie:a", "tv:b", "multi:c"}
		for i, w := range want {
			if catalog.searches[i] != w {
				t.Errorf("search %d = %s, want %s", i, catalog.searches[i], w)
			}
		}
	})

	t.Run("server error", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer broken.Close()

		if _, ok := newTestTMDB(broken.URL).Resolve(context.Background(), "Heat", "movie"); ok {
			t.Error("expected not found on server error")
		}
	})
}

func TestTMDBPublisher(t *testing.T) {
	t.Run("ReplaceItems skips unresolved titles", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.titles["A"] = map[string]any{"id": 1, "media_type": "movie"}
		catalog.titles["C"] = map[string]any{"id": 3, "media_type": "movie"}
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		s := newTestTMDB(server.URL)
		items := []models.RecommendationItem{{Title: "A"}, {Title: "B"}, {Title: "C"}}

		result, err := s.ReplaceItems(context.Background(), "55", models.ListMovie, items)
		if err != nil {
			t.Fatalf("ReplaceItems() error = %v", err)
		}
		if result.Submitted != 2 || len(result.Unresolved) != 1 || result.Unresolved[0] != "B" {
			t.Errorf("unexpected result %+v", result)
		}
		if len(catalog.added) != 2 || catalog.added[0].MediaID != 1 || catalog.added[1].MediaID != 3 {
			t.Errorf("expected items 1 and 3 submitted, got %+v", catalog.added)
		}
	})

	t.Run("combined list searches with item kind", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.titles["Dark"] = map[string]any{"id": 70523}
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		s := newTestTMDB(server.URL)
		_, err := s.ReplaceItems(context.Background(), "9", models.ListCombined, []models.RecommendationItem{{Title: "Dark", Kind: models.KindShow}})
		if err != nil {
			t.Fatalf("ReplaceItems() error = %v", err)
		}
		if catalog.searches[0] != "tv:Dark" {
			t.Errorf("expected tv search, got %s", catalog.searches[0])
		}
		if catalog.added[0].MediaType != "tv" {
			t.Errorf("expected tv item, got %+v", catalog.added[0])
		}
	})

	t.Run("nothing resolved skips submission", func(t *testing.T) {
		catalog := newFakeCatalog()
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		result, err := newTestTMDB(server.URL).ReplaceItems(context.Background(), "9", models.ListMovie, []models.RecommendationItem{{Title: "X"}})
		if err != nil {
			t.Fatalf("ReplaceItems() error = %v", err)
		}
		if result.Submitted != 0 || len(catalog.calls) != 0 {
			t.Errorf("expected no submission, got %+v calls=%v", result, catalog.calls)
		}
	})

	t.Run("submission failure", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.titles["A"] = map[string]any{"id": 1, "media_type": "movie"}
		catalog.itemsErr = http.StatusInternalServerError
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		_, err := newTestTMDB(server.URL).ReplaceItems(context.Background(), "9", models.ListMovie, []models.RecommendationItem{{Title: "A"}})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Create Clear Rename", func(t *testing.T) {
		catalog := newFakeCatalog()
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		s := newTestTMDB(server.URL)
		ctx := context.Background()

		id, err := s.Create(ctx, "New", "desc")
		if err != nil || id != "777" {
			t.Fatalf("Create() = %s, %v", id, err)
		}
		if err := s.Clear(ctx, id); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if err := s.Rename(ctx, id, "Renamed"); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}

		want := []string{"create", "clear:777", "rename:777:Renamed"}
		for i, w := range want {
			if catalog.calls[i] != w {
				t.Errorf("call %d = %s, want %s", i, catalog.calls[i], w)
			}
		}
	})

	t.Run("writes require a linked account", func(t *testing.T) {
		s := NewTMDBService(TMDBOptions{BaseURL: "http://unused", AppToken: "app", Logger: log.New(io.Discard)})
		if err := s.Clear(context.Background(), "1"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ValidateCredential", func(t *testing.T) {
		catalog := newFakeCatalog()
		server := httptest.NewServer(catalog.handler(t))
		defer server.Close()

		if !newTestTMDB(server.URL).ValidateCredential(context.Background()) {
			t.Error("expected linked token to validate")
		}

		bad := NewTMDBService(TMDBOptions{
			BaseURL: server.URL,
			User:    models.Credential{Provider: models.ProviderCatalog, Token: "stale"},
			Logger:  log.New(io.Discard),
		})
		if bad.ValidateCredential(context.Background()) {
			t.Error("expected stale token to fail")
		}
	})
}

func TestTMDBAccountLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer app-token" {
			t.Errorf("auth endpoints should use the application token, got %q", r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/4/auth/request_token":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["redirect_to"] != "http://127.0.0.1:3000/approved" {
				t.Errorf("unexpected redirect %q", body["redirect_to"])
			}
			w.Write([]byte(`{"success": true, "request_token": "req-1"}`))
		case "/4/auth/access_token":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["request_token"] != "req-1" {
				w.Write([]byte(`{"success": false}`))
				return
			}
			w.Write([]byte(`{"success": true, "access_token": "acc-1", "account_id": "u-9"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := NewTMDBService(TMDBOptions{BaseURL: server.URL, ApproveURL: "https://example.test/approve", AppToken: "app-token", Logger: log.New(io.Discard)})
	ctx := context.Background()

	token, err := s.RequestToken(ctx, "http://127.0.0.1:3000/approved")
	if err != nil || token != "req-1" {
		t.Fatalf("RequestToken() = %s, %v", token, err)
	}

	if got := s.ApprovalURL(token); got != "https://example.test/approve?request_token=req-1" {
		t.Errorf("ApprovalURL() = %s", got)
	}

	access, err := s.AccessToken(ctx, token)
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if access.Token != "acc-1" || access.AccountID != "u-9" {
		t.Errorf("unexpected access token %+v", access)
	}

	if _, err := s.AccessToken(ctx, "unapproved"); !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}
