// Package services defines the catalog capabilities consumed by the tasks package and implements them for Spotify.
//
// # Capabilities
//
//   - [Searcher] : ranked free-text track search
//   - [Library] : liked songs and playlist mutations, paged playlist listings
//   - [Account] : current user profile and playlists
//
// [Catalog] combines [Searcher] and [Library]; [Service] adds [Account] and authentication.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the zmb3/spotify client. HTTP requests go through an
// [oauth2] client, so expired tokens are refreshed automatically when a refresh
// token is available; a callback registered with [SpotifyService.SetTokenRefreshCallback]
// receives each new token so it can be persisted.
//
// Provider request limits are handled here rather than by callers: library
// mutations are sent in batches of 50 identifiers and playlist mutations in
// batches of 100.
//
// Playlist listings follow the provider's own "next" URL, see [SpotifyService.ListTracks].
//
// # Error Handling
//
// Provider errors are mapped by HTTP status onto sentinels from the shared package:
//   - 401 : [shared.ErrNotAuthenticated]
//   - 403 : [shared.ErrPermissionDenied]
//   - 404 : [shared.ErrPlaylistNotFound]
//   - 429 : [shared.ErrRateLimited]
//   - 502, 503, 504 : [shared.ErrServiceUnavailable]
//   - anything else : [shared.ErrAPIRequest]
package services
