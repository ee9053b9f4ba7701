package repositories

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// ListRepository reads and rewrites the lists file.
//
// Every mutation rewrites the whole document; a missing file reads as an empty set.
type ListRepository struct {
	path string
}

func NewListRepository(path string) *ListRepository {
	return &ListRepository{path: path}
}

func (r *ListRepository) Path() string { return r.path }

// Load reads every configured list in stored order.
func (r *ListRepository) Load() (*models.ListFile, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.ListFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lists file: %w", err)
	}

	var file models.ListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: lists file %s: %v", shared.ErrInvalidConfig, r.path, err)
	}
	return &file, nil
}

// Save replaces the lists file with file's contents.
func (r *ListRepository) Save(file *models.ListFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lists file: %w", err)
	}

	if err := shared.EnsureDir(filepath.Dir(r.path)); err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write lists file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace lists file: %w", err)
	}
	return nil
}

// Update loads the file, applies fn, and saves the result unless fn fails.
func (r *ListRepository) Update(fn func(*models.ListFile) error) error {
	file, err := r.Load()
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		return err
	}
	return r.Save(file)
}

// Add validates cfg and stores it under cfg.ID, replacing an existing entry with that id.
func (r *ListRepository) Add(cfg models.ListConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: list id is required", shared.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return r.Update(func(f *models.ListFile) error {
		f.Put(cfg)
		return nil
	})
}

// SetEnabled flips the enabled flag for id.
func (r *ListRepository) SetEnabled(id string, enabled bool) error {
	return r.Update(func(f *models.ListFile) error {
		cfg, ok := f.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
		}
		cfg.Enabled = enabled
		f.Put(cfg)
		return nil
	})
}

// Remove deletes id from the file.
func (r *ListRepository) Remove(id string) error {
	return r.Update(func(f *models.ListFile) error {
		if !f.Remove(id) {
			return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
		}
		return nil
	})
}
