// Package models defines the domain entities shared by the sync pipeline.
//
// Persistent entities:
//   - [ListConfig] : one curated list, stored in the lists file keyed by remote list id
//   - [WatchEvent] : a watch-history or watchlist row mirrored from the tracker
//
// Ephemeral values:
//   - [Recommendations] and [RecommendationItem] : the parsed model reply for one list
//   - [Credential] : a provider bearer token, loaded once and passed to clients explicitly
package models
