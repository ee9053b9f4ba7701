package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/curator/internal/models"
)

// EventRepository persists rows of one mirrored tracker table.
type EventRepository struct {
	db    *sql.DB
	table string
}

// NewEventRepository binds a repository to table, which must be watch_history or watchlist.
func NewEventRepository(db *sql.DB, table string) (*EventRepository, error) {
	if !validTable(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return &EventRepository{db: db, table: table}, nil
}

func (r *EventRepository) Table() string { return r.table }

// Insert writes rows in one transaction, skipping any whose (item_id, item_type) already exists.
// It returns the number of rows actually added.
func (r *EventRepository) Insert(events []models.WatchEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (item_id, item_type, title, added_at) VALUES (?, ?, ?, ?)`, r.table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", r.table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range events {
		result, err := stmt.Exec(e.ExternalID, e.Kind, e.Title, e.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", r.table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert into %s: %w", r.table, err)
	}
	return inserted, nil
}

// Latest returns the maximum stored timestamp, or "" for an empty table.
func (r *EventRepository) Latest() (string, error) {
	var latest sql.NullString
	err := r.db.QueryRow(fmt.Sprintf(`SELECT MAX(added_at) FROM %s`, r.table)).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("failed to query latest %s timestamp: %w", r.table, err)
	}
	return latest.String, nil
}

// All returns every row, newest first.
func (r *EventRepository) All() ([]models.WatchEvent, error) {
	rows, err := r.db.Query(fmt.Sprintf(
		`SELECT item_id, item_type, title, added_at FROM %s ORDER BY added_at DESC, id DESC`, r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	var events []models.WatchEvent
	for rows.Next() {
		var e models.WatchEvent
		if err := rows.Scan(&e.ExternalID, &e.Kind, &e.Title, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return n, nil
}
