// Package services contains the HTTP clients for every remote dependency of the sync pipeline.
//
// # Tracker
//
// [TraktService] mirrors watch history and the watchlist page by page. A 429 reply pauses for a
// fixed interval and retries the same page. It also drives the device-code account link.
//
// # Recommender
//
// [GeminiService] posts a prompt to the generateContent endpoint and extracts the first fenced
// block tagged json from the reply text.
//
// # Catalog
//
// [TMDBService] resolves titles through the search endpoints and implements [Publisher] on the
// v4 list API. Title resolution is paced with a [shared.Pacer]. It also drives the
// request-token / approval / access-token account link.
//
// # Error Handling
//
// Non-2xx replies become a [StatusError], which unwraps to:
//   - [shared.ErrRateLimited] : status 429
//   - [shared.ErrAPIRequest] : any other failure, including transport errors
//
// Unparseable model replies wrap [shared.ErrParse].
//
// Bearer tokens are attached with an [oauth2.StaticTokenSource] transport, so clients never
// format Authorization headers themselves.
package services
