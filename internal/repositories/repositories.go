package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/curator/internal/models"
)

// Tables mirrored from the tracker.
const (
	TableWatchHistory = models.SourceWatchHistory
	TableWatchlist    = models.SourceWatchlist
)

func validTable(table string) bool {
	return table == TableWatchHistory || table == TableWatchlist
}

// Store bundles the SQLite repositories opened over one connection.
type Store struct {
	DB        *sql.DB
	UserInfo  *UserInfoRepository
	History   *EventRepository
	Watchlist *EventRepository
}

// NewStore wires every table repository to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		UserInfo:  NewUserInfoRepository(db),
		History:   mustEventRepository(db, TableWatchHistory),
		Watchlist: mustEventRepository(db, TableWatchlist),
	}
}

// Events returns the repository for an attached data source name.
func (s *Store) Events(source string) (*EventRepository, error) {
	switch source {
	case TableWatchHistory:
		return s.History, nil
	case TableWatchlist:
		return s.Watchlist, nil
	}
	return nil, fmt.Errorf("unknown data source %q", source)
}

func (s *Store) Close() error { return s.DB.Close() }

func mustEventRepository(db *sql.DB, table string) *EventRepository {
	repo, err := NewEventRepository(db, table)
	if err != nil {
		panic(err)
	}
	return repo
}
