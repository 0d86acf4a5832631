// Package server provides HTTP routing, middleware, and the REST API for
// browsing and importing playlists.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method-qualified patterns, so handlers can read path values directly.
//
// # API Surface
//
// Platform routes (/api/{platform}/...) cover the OAuth login flow, the
// user's remote playlists, and imports. Local routes (/api/playlists/...)
// cover CRUD, membership edits, status/space transitions, scoring, and
// CSV/JSON export. POST /api/resync re-fetches every platform-sourced
// playlist.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the authorization-code callback for CLI logins:
// a temporary local server receives the redirect, forwards code and state
// to the token manager, and reports the outcome on a channel. It only
// processes one callback to prevent replay.
package server
