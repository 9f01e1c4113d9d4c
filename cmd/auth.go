package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/textify/internal/server"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local callback server on the redirect URI, opens the browser, and saves the exchanged tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.oauth == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s",
			shared.ErrMissingCredentials, r.configPathOrDefault())
	}

	token, err := r.doOAuth(ctx, cmd.Duration("timeout"), cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	path := r.configPathOrDefault()
	if err := shared.SaveConfig(path, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := r.oauth.OAuthenticate(ctx, token); err != nil {
		return err
	}

	r.writePlainln("%s", ui.Styles.OK("✓ Authorization successful"))
	r.writePlain("✓ Tokens saved to %s\n", path)
	if user, err := r.oauth.CurrentUser(ctx); err == nil {
		r.writePlain("✓ Logged in as %s (%s)\n", user.DisplayName, user.ID)
	} else {
		r.logger.Warn("could not load profile", "error", err)
	}
	return nil
}

// AuthStatus reports whether a token is stored and which account it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if r.service == nil {
		return r.writePlain("%s\n", ui.Styles.Warn("✗ Spotify client credentials are not configured"))
	}
	if creds.Token() == nil {
		r.writePlain("%s\n", ui.Styles.Warn("✗ Not authenticated"))
		return r.writePlain("%s\n", ui.Styles.Help("Run 'textify auth login' to connect your account."))
	}

	user, err := r.service.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("%s\n", ui.Styles.OK("✓ Authenticated"))
	r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	if !creds.TokenExpiry.IsZero() {
		r.writePlain("Token expires: %s\n", creds.TokenExpiry.Local().Format(time.RFC1123))
	}
	return nil
}

// doOAuth serves the callback on the redirect URI's host until one result arrives or timeout elapses.
func (r *Runner) doOAuth(ctx context.Context, timeout time.Duration, noBrowser bool) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	config := r.oauth.GetOAuthConfig()
	redirect, err := url.Parse(config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, config.RedirectURL)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(config, state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var token *oauth2.Token
	g, gctx := errgroup.WithContext(srvCtx)
	g.Go(func() error {
		return server.Serve(gctx, redirect.Host, router, r.logger)
	})
	g.Go(func() error {
		defer cancel()

		authURL := r.oauth.GetAuthURL(state)
		if noBrowser {
			fmt.Fprintf(r.status, "Open this URL in your browser:\n%s\n\n", authURL)
		} else {
			fmt.Fprintf(r.status, "→ Opening browser for Spotify authorization...\n")
			if err := shared.OpenBrowser(authURL); err != nil {
				r.logger.Warn("failed to open browser automatically", "error", err)
				fmt.Fprintf(r.status, "Please open this URL in your browser:\n%s\n\n", authURL)
			}
		}
		fmt.Fprintf(r.status, "→ Waiting for authorization (%s timeout)...\n", timeout)

		t, err := handler.Wait(gctx, timeout)
		if err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		token = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return token, nil
}
