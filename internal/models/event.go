package models

// WatchEvent is one row of the local watch_history or watchlist table.
//
// Rows are unique on (ExternalID, Kind); the first write wins.
// Timestamp is the tracker's ISO-8601 text, which sorts chronologically.
type WatchEvent struct {
	ExternalID string `json:"item_id"`
	Kind       string `json:"item_type"`
	Title      string `json:"title"`
	Timestamp  string `json:"added_at"`
}

// IsShow reports whether the row is a television entry.
func (e WatchEvent) IsShow() bool { return e.Kind == KindTVShow }
