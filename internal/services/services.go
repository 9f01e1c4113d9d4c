// package services defines the catalog capabilities textify consumes and
// implements them for Spotify
package services

import (
	"context"

	"github.com/desertthunder/textify/internal/models"
	"golang.org/x/oauth2"
)

// Searcher performs ranked free-text track searches.
type Searcher interface {
	// SearchTracks returns up to limit candidates, best match first.
	SearchTracks(ctx context.Context, text string, limit int) ([]models.Track, error)
}

// Library mutates and lists the user's collections.
type Library interface {
	AddToLiked(ctx context.Context, ids []string) error
	RemoveFromLiked(ctx context.Context, ids []string) error

	// CreatePlaylist creates a playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID string, ids []string) error
	RemoveFromPlaylist(ctx context.Context, playlistID string, ids []string) error

	// ListTracks fetches one page of a playlist. An empty cursor requests the first page;
	// otherwise cursor is the Next reference of the previous page.
	ListTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.TrackPage, error)
}

// Account exposes the authenticated user and their playlists.
type Account interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// Catalog is everything the resolution and mutation tasks need from a provider.
type Catalog interface {
	Searcher
	Library
}

// Service is a music provider bound to a credential.
type Service interface {
	Catalog
	Account

	// Authenticate binds the service to a credential.
	// Accepts "access_token" (optionally with "refresh_token") or "auth_code".
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is a [Service] that can run the OAuth2 authorization code flow.
type OAuthService interface {
	Service
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
