// Spotify implementation of [Service] backed by github.com/zmb3/spotify/v2.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	defaultRedirectURI = "http://127.0.0.1:8888/callback"

	libraryBatchSize  = 50
	playlistBatchSize = 100
	playlistsPageSize = 50
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the API client at a different Web API root (must end with "/").
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithHTTPClient sets the transport used underneath the OAuth2 client.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	httpClient     *http.Client
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration used for code exchange.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to receive every token the client obtains, including refreshes.
// It must be set before authenticating.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(s.oauthContext(ctx), authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate binds the service to token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrMissingCredentials)
	}

	src := &refreshableTokenSource{
		source:   s.config.TokenSource(s.oauthContext(ctx), token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	hc := oauth2.NewClient(s.oauthContext(ctx), src)

	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.token = token
	s.client = spotify.New(hc, opts...)
	return nil
}

// WithToken returns a copy of s bound to a bearer access token, leaving s untouched.
func (s *SpotifyService) WithToken(ctx context.Context, accessToken string) (*SpotifyService, error) {
	clone := &SpotifyService{
		config:     s.config,
		httpClient: s.httpClient,
		baseURL:    s.baseURL,
	}
	if err := clone.Authenticate(ctx, map[string]string{"access_token": accessToken}); err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// SearchTracks runs a ranked track search.
func (s *SpotifyService) SearchTracks(ctx context.Context, text string, limit int) ([]models.Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}

	results, err := client.Search(ctx, text, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, classify("search", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	tracks := make([]models.Track, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		tracks = append(tracks, trackFromSpotify(&results.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	u, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, classify("current user", err)
	}
	return &models.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
	}, nil
}

// Playlists retrieves every playlist of the current user.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistsPageSize))
	if err != nil {
		return nil, classify("list playlists", err)
	}

	var playlists []models.Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:          p.ID.String(),
				Name:        p.Name,
				Description: p.Description,
				Owner:       p.Owner.DisplayName,
				TrackCount:  int(p.Tracks.Total),
				Public:      p.IsPublic,
			})
		}

		err := client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return playlists, nil
		}
		if err != nil {
			return nil, classify("list playlists", err)
		}
	}
}

// CreatePlaylist creates a public playlist named name for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	p, err := client.CreatePlaylistForUser(ctx, user.ID, name, "", true, false)
	if err != nil {
		return nil, classify("create playlist", err)
	}
	return &models.Playlist{
		ID:     p.ID.String(),
		Name:   p.Name,
		Owner:  p.Owner.DisplayName,
		Public: p.IsPublic,
	}, nil
}

// AddToLiked saves ids to the user's library.
func (s *SpotifyService) AddToLiked(ctx context.Context, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}
	return inBatches(ids, libraryBatchSize, func(batch []spotify.ID) error {
		return classify("add to liked songs", client.AddTracksToLibrary(ctx, batch...))
	})
}

// RemoveFromLiked removes ids from the user's library.
func (s *SpotifyService) RemoveFromLiked(ctx context.Context, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}
	return inBatches(ids, libraryBatchSize, func(batch []spotify.ID) error {
		return classify("remove from liked songs", client.RemoveTracksFromLibrary(ctx, batch...))
	})
}

// AddToPlaylist appends ids to a playlist.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID string, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}
	return inBatches(ids, playlistBatchSize, func(batch []spotify.ID) error {
		_, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		return classify("add to playlist", err)
	})
}

// RemoveFromPlaylist removes every occurrence of ids from a playlist.
func (s *SpotifyService) RemoveFromPlaylist(ctx context.Context, playlistID string, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}
	return inBatches(ids, playlistBatchSize, func(batch []spotify.ID) error {
		_, err := client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), batch...)
		return classify("remove from playlist", err)
	})
}

// ListTracks fetches one page of a playlist's items.
//
// The first page is requested by offset; later pages are fetched from the absolute "next" URL
// Spotify returned, which is passed back in as cursor. Items that are not tracks
// (podcast episodes, unavailable local files) are skipped.
func (s *SpotifyService) ListTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.TrackPage, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	var page *spotify.PlaylistItemPage
	if cursor == "" {
		page, err = client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(0))
	} else {
		page = &spotify.PlaylistItemPage{}
		page.Next = cursor
		err = client.NextPage(ctx, page)
	}
	if err != nil {
		return nil, classify("list playlist tracks", err)
	}

	out := &models.TrackPage{Next: page.Next, Total: int(page.Total)}
	for _, item := range page.Items {
		if item.Track.Track == nil || item.Track.Track.ID == "" {
			continue
		}
		out.Items = append(out.Items, trackFromSpotify(item.Track.Track))
	}
	return out, nil
}

func trackFromSpotify(t *spotify.FullTrack) models.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return models.Track{
		ID:         t.ID.String(),
		Title:      t.Name,
		Artist:     models.JoinArtists(names),
		Album:      t.Album.Name,
		DurationMS: int(t.Duration),
		URI:        string(t.URI),
	}
}

func inBatches(ids []string, size int, fn func([]spotify.ID) error) error {
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, spotify.ID(id))
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// classify maps a provider error onto a shared sentinel. nil stays nil.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr spotify.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
	}

	var sentinel error
	switch apiErr.Status {
	case http.StatusUnauthorized:
		sentinel = shared.ErrNotAuthenticated
	case http.StatusForbidden:
		sentinel = shared.ErrPermissionDenied
	case http.StatusNotFound:
		sentinel = shared.ErrPlaylistNotFound
	case http.StatusTooManyRequests:
		sentinel = shared.ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		sentinel = shared.ErrServiceUnavailable
	default:
		sentinel = shared.ErrAPIRequest
	}
	return fmt.Errorf("%w: %s: %s (status %d)", sentinel, op, apiErr.Message, apiErr.Status)
}

// refreshableTokenSource reports every token that differs from the last one it saw.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
