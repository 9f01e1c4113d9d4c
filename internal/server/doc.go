// Package server exposes the pasted-list actions over HTTP and handles the OAuth callback flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] internally with method filtering. [Middleware] wraps handlers in reverse order
// (last added executes first).
//
// [NewHandler] assembles the full stack: request logging, panic recovery via gorilla/handlers,
// the JSON [API], the browser [LoginHandler], and CORS around everything so preflight requests
// never reach method filtering.
//
// # JSON API
//
//	POST /liked/add          {"text": "..."}
//	POST /liked/remove       {"text": "..."}
//	POST /playlist/add       {"text": "...", "playlist_id": "..."} or {"text": "...", "name": "..."}
//	POST /playlist/remove    {"text": "...", "playlist_id": "..."}
//	GET  /playlist-tracks?playlist_id=...
//	GET  /playlists
//	GET  /profile
//
// Every API request carries the caller's Spotify bearer token in the Authorization header
// (or the access_token query parameter). Failures are returned as {"error": "..."} with a status
// derived from the wrapped sentinel error.
//
// # OAuth
//
// [OAuthHandler] serves a single /callback for the CLI login flow and reports the token on a
// channel. [LoginHandler] serves /login and /callback for browser clients and returns the token as JSON.
package server
