// Package repositories implements local persistence for the sync pipeline.
//
// Key Implementations:
//   - [UserInfoRepository] : append-only key/value facts about linked accounts
//   - [EventRepository] : watch_history and watchlist rows, deduplicated on (item_id, item_type)
//   - [ListRepository] : the ordered lists.json file of curated list configurations
//
// SQLite repositories hold a *sql.DB opened by [shared.OpenStore]; the list repository owns a file path.
package repositories
