package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrInfoNotFound is returned by [UserInfoRepository.Get] when no row has the key.
var ErrInfoNotFound = errors.New("user info not found")

// UserInfoRepository stores key/value facts about the linked accounts.
//
// Keys are not unique: Put appends and Get returns the newest row.
type UserInfoRepository struct {
	db *sql.DB
}

// NewUserInfoRepository creates a new [UserInfoRepository] with the given database connection
func NewUserInfoRepository(db *sql.DB) *UserInfoRepository {
	return &UserInfoRepository{db: db}
}

// Put appends a row for key.
func (r *UserInfoRepository) Put(key, value string) error {
	if _, err := r.db.Exec(`INSERT INTO user_info (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("failed to insert user info %s: %w", key, err)
	}
	return nil
}

// Get returns the most recently inserted value for key.
func (r *UserInfoRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM user_info WHERE key = ? ORDER BY id DESC LIMIT 1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrInfoNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user info %s: %w", key, err)
	}
	return value, nil
}

// Delete removes every row for key and returns how many were removed.
func (r *UserInfoRepository) Delete(key string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM user_info WHERE key = ?`, key)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user info %s: %w", key, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// Keys lists distinct keys in first-insert order.
func (r *UserInfoRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM user_info GROUP BY key ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user info keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan user info key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
