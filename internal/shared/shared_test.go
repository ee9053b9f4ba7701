package shared

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{"bogus", log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRunLock(t *testing.T) {
	t.Run("second acquire fails and leaves marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "update.lock")

		first, err := AcquireLock(path)
		if err != nil {
			t.Fatalf("AcquireLock() error = %v", err)
		}
		original, _ := os.ReadFile(path)

		if _, err := AcquireLock(path); !errors.Is(err, ErrUpdateRunning) {
			t.Fatalf("expected ErrUpdateRunning, got %v", err)
		}

		after, _ := os.ReadFile(path)
		if string(after) != string(original) {
			t.Error("failed acquire must not modify the existing marker")
		}

		if err := first.Release(); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if LockHeld(path) {
			t.Error("marker should be gone after release")
		}
		if err := first.Release(); err != nil {
			t.Errorf("second Release() should be harmless, got %v", err)
		}
	})

	t.Run("only one of many concurrent acquirers wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "update.lock")

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := AcquireLock(path); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("expected exactly one winner, got %d", wins)
		}
	})

	t.Run("marker records run id", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "update.lock")
		lock, err := AcquireLock(path)
		if err != nil {
			t.Fatalf("AcquireLock() error = %v", err)
		}
		defer lock.Release()

		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), lock.ID) {
			t.Errorf("marker should contain run id %s, got %q", lock.ID, data)
		}
	})

	t.Run("ForceUnlock clears stale marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "update.lock")
		if err := os.WriteFile(path, []byte("Updating"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ForceUnlock(path); err != nil {
			t.Fatalf("ForceUnlock() error = %v", err)
		}
		if LockHeld(path) {
			t.Error("marker should be removed")
		}
	})
}

func TestCredentialStore(t *testing.T) {
	store := NewCredentialStore(t.TempDir())

	t.Run("missing token", func(t *testing.T) {
		if _, err := store.Load("tracker"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("save strips newlines", func(t *testing.T) {
		if err := store.Save("catalog", "abc\n123\n"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := store.Load("catalog")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != "abc123" {
			t.Errorf("Load() = %q, want abc123", got)
		}
	})

	t.Run("blank file counts as missing", func(t *testing.T) {
		if err := os.WriteFile(store.Path("recommender"), []byte("  \n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Load("recommender"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := store.Remove("catalog"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, err := store.Load("catalog"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials after remove, got %v", err)
		}
	})
}

func TestPacer(t *testing.T) {
	t.Run("zero interval never blocks", func(t *testing.T) {
		p := NewPacer(0)
		start := time.Now()
		for i := 0; i < 100; i++ {
			if err := p.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
		if time.Since(start) > 100*time.Millisecond {
			t.Error("zero interval pacer should not block")
		}
	})

	t.Run("first wait blocks for the interval", func(t *testing.T) {
		p := NewPacer(40 * time.Millisecond)
		start := time.Now()
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
			t.Errorf("two waits should take about two intervals, took %v", elapsed)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
