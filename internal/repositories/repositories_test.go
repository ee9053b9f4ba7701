package repositories

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestUserInfoRepository(t *testing.T) {
	t.Run("Get returns newest row", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserInfoRepository(db)
		for _, v := range []string{"first", "second", "third"} {
			if err := repo.Put(models.InfoCatalogToken, v); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
		}

		got, err := repo.Get(models.InfoCatalogToken)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != "third" {
			t.Errorf("Get() = %s, want third", got)
		}
	})

	t.Run("Get missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewUserInfoRepository(db).Get("nope")
		if !errors.Is(err, ErrInfoNotFound) {
			t.Errorf("expected ErrInfoNotFound, got %v", err)
		}
	})

	t.Run("Delete and Keys", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserInfoRepository(db)
		repo.Put("b", "1")
		repo.Put("a", "1")
		repo.Put("b", "2")

		keys, err := repo.Keys()
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if strings.Join(keys, ",") != "b,a" {
			t.Errorf("Keys() = %v, want [b a]", keys)
		}

		n, err := repo.Delete("b")
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows deleted, got %d", n)
		}
	})
}

func TestEventRepository(t *testing.T) {
	t.Run("rejects unknown table", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewEventRepository(db, "users; DROP TABLE user_info"); err == nil {
			t.Error("expected error for unknown table")
		}
	})

	t.Run("first write wins on duplicate key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		first := models.WatchEvent{ExternalID: "42", Kind: models.KindMovie, Title: "Original", Timestamp: "2024-01-01T00:00:00.000Z"}
		dup := models.WatchEvent{ExternalID: "42", Kind: models.KindMovie, Title: "Changed", Timestamp: "2024-06-01T00:00:00.000Z"}

		n, err := store.History.Insert([]models.WatchEvent{first})
		if err != nil || n != 1 {
			t.Fatalf("Insert() = %d, %v", n, err)
		}
		n, err = store.History.Insert([]models.WatchEvent{dup})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if n != 0 {
			t.Errorf("duplicate insert should add 0 rows, added %d", n)
		}

		rows, _ := store.History.All()
		if len(rows) != 1 || rows[0].Title != "Original" {
			t.Errorf("expected the original row to survive, got %+v", rows)
		}
	})

	t.Run("same id with different kind is distinct", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		n, err := store.Watchlist.Insert([]models.WatchEvent{
			{ExternalID: "7", Kind: models.KindMovie, Title: "A", Timestamp: "2024-01-01T00:00:00Z"},
			{ExternalID: "7", Kind: models.KindTVShow, Title: "B", Timestamp: "2024-01-02T00:00:00Z"},
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows, got %d", n)
		}
	})

	t.Run("Latest and All ordering", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		latest, err := store.History.Latest()
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if latest != "" {
			t.Errorf("empty table should have no latest timestamp, got %q", latest)
		}

		store.History.Insert([]models.WatchEvent{
			{ExternalID: "1", Kind: models.KindMovie, Title: "Old", Timestamp: "2023-05-01T10:00:00.000Z"},
			{ExternalID: "2", Kind: models.KindTVShow, Title: "New", Timestamp: "2024-02-01T10:00:00.000Z"},
			{ExternalID: "3", Kind: models.KindMovie, Title: "Mid", Timestamp: "2023-12-01T10:00:00.000Z"},
		})

		latest, _ = store.History.Latest()
		if latest != "2024-02-01T10:00:00.000Z" {
			t.Errorf("Latest() = %s", latest)
		}

		rows, _ := store.History.All()
		if rows[0].Title != "New" || rows[2].Title != "Old" {
			t.Errorf("All() should be newest first, got %+v", rows)
		}

		if n, _ := store.History.Count(); n != 3 {
			t.Errorf("Count() = %d, want 3", n)
		}
		if n, _ := store.Watchlist.Count(); n != 0 {
			t.Errorf("watchlist should be untouched, has %d rows", n)
		}
	})

	t.Run("Store.Events", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		repo, err := store.Events(models.SourceWatchlist)
		if err != nil || repo.Table() != TableWatchlist {
			t.Errorf("Events(watchlist) = %v, %v", repo, err)
		}
		if _, err := store.Events("ratings"); err == nil {
			t.Error("expected error for unknown source")
		}
	})
}

func TestListRepository(t *testing.T) {
	newList := func(id, name string) models.ListConfig {
		return models.ListConfig{ID: id, Enabled: true, Name: name, Kind: models.ListMovie, TargetCount: 5}
	}

	t.Run("missing file loads empty", func(t *testing.T) {
		repo := NewListRepository(filepath.Join(t.TempDir(), "lists.json"))
		file, err := repo.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(file.Lists) != 0 {
			t.Errorf("expected no lists, got %d", len(file.Lists))
		}
	})

	t.Run("add keeps insertion order across rewrites", func(t *testing.T) {
		repo := NewListRepository(filepath.Join(t.TempDir(), "nested", "lists.json"))
		for _, id := range []string{"300", "100", "200"} {
			if err := repo.Add(newList(id, "list "+id)); err != nil {
				t.Fatalf("Add(%s) error = %v", id, err)
			}
		}

		if err := repo.SetEnabled("100", false); err != nil {
			t.Fatalf("SetEnabled() error = %v", err)
		}

		file, err := repo.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		var ids []string
		for _, l := range file.Lists {
			ids = append(ids, l.ID)
		}
		if strings.Join(ids, ",") != "300,100,200" {
			t.Errorf("order = %v, want [300 100 200]", ids)
		}
		if file.Lists[1].Enabled {
			t.Error("list 100 should be disabled")
		}
	})

	t.Run("add rejects invalid config", func(t *testing.T) {
		repo := NewListRepository(filepath.Join(t.TempDir(), "lists.json"))
		bad := newList("1", "")
		if err := repo.Add(bad); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("remove unknown id", func(t *testing.T) {
		repo := NewListRepository(filepath.Join(t.TempDir(), "lists.json"))
		if err := repo.Remove("nope"); !errors.Is(err, shared.ErrListNotFound) {
			t.Errorf("expected ErrListNotFound, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lists.json")
		os.WriteFile(path, []byte("{not json"), 0o644)
		if _, err := NewListRepository(path).Load(); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
