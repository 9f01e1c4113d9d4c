package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
	tu "github.com/desertthunder/textify/internal/testing"
	"golang.org/x/oauth2"
)

func newTestAPI(t *testing.T) (*tu.FakeCatalog, http.Handler) {
	t.Helper()
	catalog := tu.NewFakeCatalog()
	catalog.AddResult("Bohemian Rhapsody", models.Track{ID: "queen", Title: "Bohemian Rhapsody", Artist: "Queen"})
	catalog.AddPlaylist("p1", "Mix", "a", "b")

	api := NewAPI(func(ctx context.Context, token string) (Backend, error) {
		if token != "good" {
			return nil, fmt.Errorf("%w: bad token", shared.ErrNotAuthenticated)
		}
		return catalog, nil
	}, nil, nil)

	return catalog, NewHandler(Options{AllowedOrigins: []string{"http://localhost:3000"}}, api, nil)
}

func do(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
}

func TestRouter(t *testing.T) {
	t.Run("Applies Middleware In Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))

		do(r, http.MethodGet, "/x", "", "")
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Rejects Other Methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/x", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		rec := do(r, http.MethodGet, "/x", "", "")
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
			t.Errorf("expected 405 with Allow header, got %d %v", rec.Code, rec.Header())
		}
	})

	t.Run("Recovery", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recovery(nil))
		r.Handle(http.MethodGet, "/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

		rec := do(r, http.MethodGet, "/panic", "", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Request ID", func(t *testing.T) {
		_, h := newTestAPI(t)
		rec := do(h, http.MethodGet, "/health", "", "")
		if rec.Code != http.StatusOK || rec.Header().Get(RequestIDHeader) == "" {
			t.Errorf("expected 200 with request id, got %d %v", rec.Code, rec.Header())
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		_, h := newTestAPI(t)
		req := httptest.NewRequest(http.MethodOptions, "/liked/add", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("expected allowed origin header, got %q (status %d)", got, rec.Code)
		}
	})
}

func TestAPI(t *testing.T) {
	t.Run("Add To Liked", func(t *testing.T) {
		catalog, h := newTestAPI(t)
		rec := do(h, http.MethodPost, "/liked/add", `{"text":"Bohemian Rhapsody\nunknown"}`, "good")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body map[string]any
		decode(t, rec, &body)
		if body["resolved"] != float64(1) || body["unmatched"] != float64(1) {
			t.Errorf("unexpected summary %v", body)
		}
		if !catalog.Liked["queen"] {
			t.Error("expected track to be liked")
		}
	})

	t.Run("Create Playlist By Name", func(t *testing.T) {
		catalog, h := newTestAPI(t)
		rec := do(h, http.MethodPost, "/playlist/add", `{"text":"Bohemian Rhapsody","name":"Road Trip"}`, "good")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body struct {
			PlaylistID string           `json:"playlist_id"`
			Created    *models.Playlist `json:"created_playlist"`
		}
		decode(t, rec, &body)
		if body.Created == nil || body.PlaylistID != body.Created.ID {
			t.Errorf("expected created playlist in response, got %+v", body)
		}
		if got := catalog.Playlist(body.PlaylistID); len(got) != 1 || got[0] != "queen" {
			t.Errorf("unexpected playlist contents %v", got)
		}
	})

	t.Run("Playlist Tracks", func(t *testing.T) {
		_, h := newTestAPI(t)
		rec := do(h, http.MethodGet, "/playlist-tracks?playlist_id=p1&access_token=good", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body TracksResponse
		decode(t, rec, &body)
		if body.Total != 2 || len(body.Tracks) != 2 || body.Tracks[0].ID != "a" {
			t.Errorf("unexpected listing %+v", body)
		}
	})

	t.Run("Playlists And Profile", func(t *testing.T) {
		_, h := newTestAPI(t)

		rec := do(h, http.MethodGet, "/playlists", "", "good")
		var lists struct {
			Playlists []models.Playlist `json:"playlists"`
		}
		decode(t, rec, &lists)
		if len(lists.Playlists) != 1 || lists.Playlists[0].ID != "p1" {
			t.Errorf("unexpected playlists %+v", lists)
		}

		rec = do(h, http.MethodGet, "/profile", "", "good")
		var user models.User
		decode(t, rec, &user)
		if user.ID != "fake-user" {
			t.Errorf("unexpected profile %+v", user)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			method string
			target string
			body   string
			token  string
			status int
		}{
			{name: "Missing Token", method: http.MethodPost, target: "/liked/add", body: `{"text":"x"}`, status: http.StatusUnauthorized},
			{name: "Rejected Token", method: http.MethodPost, target: "/liked/add", body: `{"text":"x"}`, token: "bad", status: http.StatusUnauthorized},
			{name: "Bad JSON", method: http.MethodPost, target: "/liked/add", body: `{`, token: "good", status: http.StatusBadRequest},
			{name: "Blank Text", method: http.MethodPost, target: "/liked/add", body: `{"text":"  "}`, token: "good", status: http.StatusBadRequest},
			{name: "No Valid Tracks", method: http.MethodPost, target: "/liked/remove", body: `{"text":"nope"}`, token: "good", status: http.StatusUnprocessableEntity},
			{name: "Missing Playlist", method: http.MethodPost, target: "/playlist/remove", body: `{"text":"Bohemian Rhapsody"}`, token: "good", status: http.StatusBadRequest},
			{name: "Unknown Playlist", method: http.MethodGet, target: "/playlist-tracks?playlist_id=zzz", token: "good", status: http.StatusNotFound},
			{name: "Wrong Method", method: http.MethodGet, target: "/liked/add", token: "good", status: http.StatusMethodNotAllowed},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, h := newTestAPI(t)
				rec := do(h, tc.method, tc.target, tc.body, tc.token)
				if rec.Code != tc.status {
					t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
				}

				var body errorBody
				decode(t, rec, &body)
				if body.Error == "" {
					t.Error("expected error message")
				}
			})
		}
	})

	t.Run("StatusFor", func(t *testing.T) {
		tests := []struct {
			err  error
			want int
		}{
			{fmt.Errorf("%w: %w", shared.ErrMutation, shared.ErrNotAuthenticated), http.StatusUnauthorized},
			{fmt.Errorf("%w: x", shared.ErrRateLimited), http.StatusTooManyRequests},
			{fmt.Errorf("%w: %w", shared.ErrPagination, shared.ErrServiceUnavailable), http.StatusServiceUnavailable},
			{fmt.Errorf("%w: x", shared.ErrCreatePlaylist), http.StatusBadGateway},
			{errors.New("plain"), http.StatusBadGateway},
		}
		for _, tc := range tests {
			if got := StatusFor(tc.err); got != tc.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		}
	})

	t.Run("BearerToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?access_token=q", nil)
		if BearerToken(req) != "q" {
			t.Error("expected query token")
		}
		req.Header.Set("Authorization", "bearer h")
		if BearerToken(req) != "h" {
			t.Error("expected header token to win")
		}
		req.Header.Set("Authorization", "Basic abc")
		if BearerToken(req) != "" {
			t.Error("expected non-bearer scheme to be ignored")
		}
	})
}

func newTokenServer(t *testing.T) *oauth2.Config {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(ts.Close)

	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: ts.URL + "/authorize", TokenURL: ts.URL + "/token"},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Exchanges Code Once", func(t *testing.T) {
		h := NewOAuthHandler(newTokenServer(t), "state-1")

		rec := do(h, http.MethodGet, "/callback?state=state-1&code=good-code", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		token, err := h.Wait(context.Background(), time.Second)
		if err != nil || token.AccessToken != "at" || token.RefreshToken != "rt" {
			t.Errorf("unexpected result %+v, %v", token, err)
		}

		again := do(h, http.MethodGet, "/callback?state=state-1&code=good-code", "", "")
		if again.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", again.Code)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		h := NewOAuthHandler(newTokenServer(t), "state-1")
		do(h, http.MethodGet, "/callback?state=other&code=good-code", "", "")

		res := <-h.Result()
		if !errors.Is(res.Err, shared.ErrInvalidAuthState) {
			t.Errorf("expected ErrInvalidAuthState, got %v", res.Err)
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h := NewOAuthHandler(newTokenServer(t), "s")
		do(h, http.MethodGet, "/callback?state=s&error=access_denied", "", "")

		res := <-h.Result()
		if !errors.Is(res.Err, shared.ErrAuthorizationDeny) {
			t.Errorf("expected ErrAuthorizationDeny, got %v", res.Err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		h := NewOAuthHandler(newTokenServer(t), "s")
		if _, err := h.Wait(context.Background(), 10*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestLoginHandler(t *testing.T) {
	h := NewLoginHandler(newTokenServer(t), nil)

	login := do(h, http.MethodGet, "/login", "", "")
	if login.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", login.Code)
	}

	loc, err := url.Parse(login.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	state := loc.Query().Get("state")
	cookies := login.Result().Cookies()
	if state == "" || len(cookies) == 0 || cookies[0].Value != state {
		t.Fatalf("expected state cookie matching redirect, got %q %v", state, cookies)
	}

	t.Run("Callback Returns Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state="+state, nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body map[string]any
		decode(t, rec, &body)
		if body["access_token"] != "at" {
			t.Errorf("unexpected token body %v", body)
		}
	})

	t.Run("Callback Without Cookie", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/callback?code=good-code&state="+state, "", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Bad Code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/callback?code=bad&state="+state, nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}
