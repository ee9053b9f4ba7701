package models

import "strings"

// ListKind selects what a list may contain.
type ListKind string

const (
	ListCombined ListKind = "combined"
	ListMovie    ListKind = "movie"
	ListShow     ListKind = "show"
)

// Valid reports whether k is one of the supported list kinds.
func (k ListKind) Valid() bool {
	switch k {
	case ListCombined, ListMovie, ListShow:
		return true
	}
	return false
}

// Item kinds as reported by the model, plus the stored kind for television rows.
const (
	KindMovie  = "movie"
	KindShow   = "show"
	KindTVShow = "tv_show"
)

// Attached data source names.
const (
	SourceWatchHistory = "watch_history"
	SourceWatchlist    = "watchlist"
)

// NormalizeKind folds the spellings a model or catalog may use for television into [KindShow].
// Anything unrecognized yields "".
func NormalizeKind(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "film":
		return KindMovie
	case "show", "tv", "tvshow", "tv_show", "series":
		return KindShow
	}
	return ""
}

// UserInfo keys written when accounts are linked.
const (
	InfoTrackerToken = "tracker_token"
	InfoCatalogToken = "catalog_token"
	InfoCatalogUser  = "catalog_account_id"
)
