// Package server provides the local HTTP listener used while linking a catalog account.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] uses [http.ServeMux] internally with method filtering, and
// [RequestLogger] logs each request at debug level.
//
// # Approval Callback
//
// Linking a catalog account is a three-legged flow:
//
//  1. The CLI requests a request token whose redirect points at /approved
//  2. The user approves it in the browser
//  3. The catalog redirects back and [ApprovalHandler] exchanges the request
//     token for an account access token
//
// The handler accepts only the request token it was created for, processes a
// single callback, and delivers the result on [ApprovalHandler.Result].
//
// [StartCallbackServer] binds the listener before returning and
// [CallbackServer.Shutdown] stops it once a result arrives.
package server
