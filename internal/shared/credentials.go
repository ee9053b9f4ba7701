package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore keeps one raw bearer token per provider as <provider>_token.txt in dir.
type CredentialStore struct {
	dir string
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) Path(provider string) string {
	return filepath.Join(s.dir, provider+"_token.txt")
}

// Load returns the stored token, or [ErrMissingCredentials] when the file is absent or blank.
func (s *CredentialStore) Load(provider string) (string, error) {
	data, err := os.ReadFile(s.Path(provider))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s token not found", ErrMissingCredentials, provider)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s token: %w", provider, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s token is empty", ErrMissingCredentials, provider)
	}
	return token, nil
}

// Save writes token with newlines stripped, replacing any previous value.
func (s *CredentialStore) Save(provider, token string) error {
	token = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(token, "\r", ""), "\n", ""))
	if token == "" {
		return fmt.Errorf("%w: empty %s token", ErrInvalidInput, provider)
	}
	if err := EnsureDir(s.dir); err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(provider), []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write %s token: %w", provider, err)
	}
	return nil
}

func (s *CredentialStore) Remove(provider string) error {
	if err := os.Remove(s.Path(provider)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s token: %w", provider, err)
	}
	return nil
}
