package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/shared"
	"golang.org/x/oauth2"
)

const stateCookie = "textify_oauth_state"

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// exchanger is the subset of [oauth2.Config] used by the callback handlers.
type exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
}

// OAuthHandler handles a single OAuth2 callback for the CLI login flow.
type OAuthHandler struct {
	config exchanger
	state  string
	result chan OAuthResult
	once   sync.Once

	mu  sync.Mutex
	hit bool
}

// NewOAuthHandler creates a handler that accepts one callback carrying state.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config: config,
		state:  state,
		result: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates state, exchanges the code, and reports the outcome on [OAuthHandler.Result].
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	token, status, err := exchangeCallback(r, h.config, h.state)
	h.send(OAuthResult{Token: token, Err: err})
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, successPage)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

// Wait blocks for the callback result, ctx cancellation, or timeout.
func (h *OAuthHandler) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	select {
	case res := <-h.result:
		return res.Token, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: no callback after %s", shared.ErrTimeout, timeout)
	}
}

// LoginHandler serves /login and /callback for browser clients.
//
// State is kept in a short-lived cookie; the callback responds with the token as JSON.
type LoginHandler struct {
	config exchanger
	logger *log.Logger
}

// NewLoginHandler creates a browser login handler.
func NewLoginHandler(config *oauth2.Config, logger *log.Logger) *LoginHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LoginHandler{config: config, logger: logger}
}

func (h *LoginHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		state := shared.GenerateID()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, h.config.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
	case "/callback":
		cookie, err := r.Cookie(stateCookie)
		if err != nil {
			writeError(w, fmt.Errorf("%w: missing state cookie", shared.ErrInvalidAuthState), nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

		token, status, err := exchangeCallback(r, h.config, cookie.Value)
		if err != nil {
			LoggerFrom(r.Context(), h.logger).Warn("oauth callback failed", "err", err)
			writeJSON(w, status, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  token.AccessToken,
			"refresh_token": token.RefreshToken,
			"token_type":    token.TokenType,
			"expiry":        token.Expiry,
		})
	default:
		http.NotFound(w, r)
	}
}

// exchangeCallback checks state and error parameters, then trades the code for a token.
func exchangeCallback(r *http.Request, config exchanger, state string) (*oauth2.Token, int, error) {
	q := r.URL.Query()
	if q.Get("state") != state {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: state mismatch", shared.ErrInvalidAuthState)
	}

	code := q.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %s %s", shared.ErrAuthorizationDeny, q.Get("error"), q.Get("error_description"))
	}

	token, err := config.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, http.StatusOK, nil
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>textify: signed in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Signed in to Spotify</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
