// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/curator/internal/models"
)

// MockRecommender is a scripted recommendation client.
//
// Replies are consumed in order; when exhausted the last one repeats.
type MockRecommender struct {
	mu      sync.Mutex
	Replies []MockReply
	Valid   bool
	Prompts []string
}

// MockReply is one scripted Generate result.
type MockReply struct {
	Recs *models.Recommendations
	Err  error
}

func (m *MockRecommender) Generate(ctx context.Context, prompt string) (*models.Recommendations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := m.Replies[0]
	if len(m.Replies) > 1 {
		m.Replies = m.Replies[1:]
	}
	return r.Recs, r.Err
}

func (m *MockRecommender) ValidateCredential(ctx context.Context) bool { return m.Valid }

// MockTracker returns fixed rows and records the cursors it was asked for.
type MockTracker struct {
	HistoryRows   []models.WatchEvent
	WatchlistRows []models.WatchEvent
	Err           error
	Cursors       []string
}

func (m *MockTracker) History(ctx context.Context, startAt string) ([]models.WatchEvent, error) {
	m.Cursors = append(m.Cursors, "history:"+startAt)
	return m.HistoryRows, m.Err
}

func (m *MockTracker) Watchlist(ctx context.Context, startAt string) ([]models.WatchEvent, error) {
	m.Cursors = append(m.Cursors, "watchlist:"+startAt)
	return m.WatchlistRows, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
