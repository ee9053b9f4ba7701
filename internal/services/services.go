// package services implements clients for the remote services the sync pipeline talks to
//
// Trakt (tracker), Gemini (recommender), TMDB (catalog), TinyURL (shortener)
package services

import (
	"context"

	"github.com/desertthunder/curator/internal/models"
)

// Recommender turns a prompt into structured recommendations.
type Recommender interface {
	// Generate sends prompt to the model and extracts the fenced JSON payload from its reply.
	// Returns an error wrapping [shared.ErrParse] when the reply has no usable payload.
	Generate(ctx context.Context, prompt string) (*models.Recommendations, error)

	// ValidateCredential sends a minimal request and reports whether the key was accepted.
	ValidateCredential(ctx context.Context) bool
}

// Resolver maps a free-text title to a catalog entry.
type Resolver interface {
	// Resolve searches for title restricted to kind ("movie", "show", or "" for any).
	// The second return is false when nothing usable was found or the request failed.
	Resolve(ctx context.Context, title, kind string) (models.ResolvedItem, bool)
}

// Publisher manages remote curated lists.
type Publisher interface {
	Create(ctx context.Context, name, description string) (string, error)
	Clear(ctx context.Context, listID string) error
	Rename(ctx context.Context, listID, name string) error

	// ReplaceItems resolves items and submits the resolved subset to the list.
	ReplaceItems(ctx context.Context, listID string, kind models.ListKind, items []models.RecommendationItem) (*PublishResult, error)
}

// Tracker reads the user's viewing activity.
type Tracker interface {
	// History returns watch events newer than startAt ("" for everything).
	History(ctx context.Context, startAt string) ([]models.WatchEvent, error)
	// Watchlist returns watchlist entries newer than startAt.
	Watchlist(ctx context.Context, startAt string) ([]models.WatchEvent, error)
}

// PublishResult summarises one ReplaceItems call.
type PublishResult struct {
	Submitted  int
	Unresolved []string
}
